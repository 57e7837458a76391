// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/fragscan/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the fragscan MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Fragment Sizing Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	s.AddTool(mcp.NewTool("size_fragments",
		mcp.WithDescription("Align the size standard of capillary electrophoresis traces and size every allele peak."),
		mcp.WithString("paths", mcp.Description("Comma separated trace files or directories (.fsa, .ab1, .json)."), mcp.Required()),
		mcp.WithString("ladder", mcp.Description("Size standard name (see list_ladders).")),
		mcp.WithString("allele_method", mcp.Description("Calibration method."), mcp.Enum("leastsquare", "cubicspline", "localsouthern")),
		mcp.WithString("anchors", mcp.Description("Pinned ladder peaks as 'rtime:size' pairs, e.g. '1520:100,2410:200'.")),
	), h.handleSizeFragments)

	s.AddTool(mcp.NewTool("align_ladder",
		mcp.WithDescription("Only align the size standard channel and report the alignment quality of each trace."),
		mcp.WithString("paths", mcp.Description("Comma separated trace files or directories."), mcp.Required()),
		mcp.WithString("ladder", mcp.Description("Size standard name.")),
		mcp.WithString("anchors", mcp.Description("Pinned ladder peaks as 'rtime:size' pairs.")),
	), h.handleAlignLadder)

	s.AddTool(mcp.NewTool("list_ladders",
		mcp.WithDescription("List the registered size standards with their sizes and score limits."),
	), h.handleListLadders)

	return s
}

// StartMCPServer starts the fragscan MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
