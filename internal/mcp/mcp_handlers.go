package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/fragscan/core"
	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// batchReply is what the sizing tools return: the batch plus any per-sample failures.
type batchReply struct {
	*schema.BatchResult
	Errors string `json:"errors,omitempty"`
}

// requestConfig clones the base config and applies the request arguments.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	paths := splitPaths(request.GetString("paths", ""))
	if len(paths) == 0 {
		return nil, fmt.Errorf("paths is required")
	}
	cfg.InputPaths = paths
	if err := contract.RevalidateRequest(cfg,
		request.GetString("ladder", ""),
		request.GetString("allele_method", ""),
		request.GetString("anchors", ""),
	); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (h *toolHandler) handleSizeFragments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid sizing parameters: %v", err)), nil
	}

	batch, err := core.GetScanResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if batch == nil {
		return mcp.NewToolResultError(fmt.Sprintf("sizing failed: %v", err)), nil
	}
	return batchResult(batch, err)
}

func (h *toolHandler) handleAlignLadder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid alignment parameters: %v", err)), nil
	}

	batch, err := core.GetAlignResults(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if batch == nil {
		return mcp.NewToolResultError(fmt.Sprintf("alignment failed: %v", err)), nil
	}
	return batchResult(batch, err)
}

func (h *toolHandler) handleListLadders(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := schema.LadderNames()
	ladders := make([]schema.Ladder, 0, len(names))
	for _, name := range names {
		if l, ok := schema.LookupLadder(name); ok {
			ladders = append(ladders, l)
		}
	}
	jsonData, _ := json.MarshalIndent(ladders, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func batchResult(batch *schema.BatchResult, runErr error) (*mcp.CallToolResult, error) {
	reply := batchReply{BatchResult: batch}
	if runErr != nil {
		reply.Errors = runErr.Error()
	}
	jsonData, _ := json.MarshalIndent(reply, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// splitPaths splits a comma separated path list.
func splitPaths(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
