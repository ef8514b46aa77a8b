// Package cmd - mcp command
package cmd

import (
	"github.com/spf13/cobra"

	"widget-estimate/adapters/mcp"
	"widget-estimate/adapters/widgets"
	"widget-estimate/internal/config"
	"widget-estimate/internal/logging"
)

var mcpWidgetsDir string

// mcpCmd runs the MCP tool server on stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tool server on stdio",
	Long: `Expose list_widgets, get_widget_config and compute_estimate as MCP tools
over stdin/stdout. Logs always go to stderr in this mode.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if mcpWidgetsDir != "" {
			cfg.Widgets.Directory = mcpWidgetsDir
		}
		if cfg.Logging.Output == "stdout" {
			cfg.Logging.Output = "stderr"
			if err := logging.Initialize(cfg.Logging); err != nil {
				return err
			}
		}

		provider, err := widgets.NewDirectoryProvider(cfg.Widgets.Directory)
		if err != nil {
			return err
		}
		defer provider.Close()

		server, err := mcp.NewServer(&mcp.ServerOptions{Widgets: provider})
		if err != nil {
			return err
		}
		return server.Run(cmd.Context())
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpWidgetsDir, "widgets", "", "widgets directory (default from config)")
}
