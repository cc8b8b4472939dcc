package cmd

import (
	"github.com/huangsam/devhealth/internal/iocache"
	"github.com/huangsam/devhealth/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the devhealth MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents read stored ratings and
evaluate rating formulas via standard tools.`,
	PreRunE: runsSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, iocache.Manager)
	},
}
