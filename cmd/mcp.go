package cmd

import (
	"github.com/huangsam/fragscan/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the fragscan MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents size fragments, align ladders
and list size standards through standard tools. Global flags set the defaults
that each tool call may override.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
