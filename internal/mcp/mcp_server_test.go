package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/huangsam/fragscan/internal/contract"
	mcp_internal "github.com/huangsam/fragscan/internal/mcp"
	"github.com/huangsam/fragscan/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig(t *testing.T) *contract.Config {
	t.Helper()
	ladder, ok := schema.LookupLadder("LIZ600")
	require.True(t, ok)
	return &contract.Config{
		Ladder:    ladder,
		LadderDye: ladder.Dye,
		Params:    schema.DefaultParams(),
		Workers:   1,
	}
}

func callTool(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(baseConfig(t), nil)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	t.Run("size_fragments missing paths", func(t *testing.T) {
		res := callTool(t, "size_fragments", map[string]any{"paths": " , "})
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, resultText(t, res), "paths is required")
	})

	t.Run("size_fragments unknown ladder", func(t *testing.T) {
		res := callTool(t, "size_fragments", map[string]any{"paths": t.TempDir(), "ladder": "GS9000"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "unknown ladder")
	})

	t.Run("align_ladder bad anchors", func(t *testing.T) {
		res := callTool(t, "align_ladder", map[string]any{"paths": t.TempDir(), "anchors": "100-20"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "invalid anchors")
	})

	t.Run("align_ladder without traces", func(t *testing.T) {
		res := callTool(t, "align_ladder", map[string]any{"paths": t.TempDir()})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "no trace files found")
	})
}

func TestMCPServerListLadders(t *testing.T) {
	res := callTool(t, "list_ladders", map[string]any{})
	require.False(t, res.IsError)

	var ladders []schema.Ladder
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &ladders))
	names := make([]string, 0, len(ladders))
	for _, l := range ladders {
		names = append(names, l.Name)
	}
	assert.Subset(t, names, []string{"LIZ500", "LIZ600", "ROX500"})
}
