// Package cmd - serve command
package cmd

import (
	"github.com/spf13/cobra"

	"widget-estimate/internal/app"
	"widget-estimate/internal/config"
	"widget-estimate/internal/logging"
)

var (
	serveAddr       string
	serveWidgetsDir string
	serveBackend    string
)

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the public widget API over HTTP",
	Long: `Start the HTTP API serving widget configurations, estimates and lead
capture. The server drains in-flight requests on SIGINT or SIGTERM.

Examples:
  widget-estimate serve
  widget-estimate serve --addr :9090 --widgets ./widgets --storage sqlite`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&serveWidgetsDir, "widgets", "", "widgets directory (default from config)")
	serveCmd.Flags().StringVar(&serveBackend, "storage", "", "lead storage backend: file, memory, sqlite (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if serveAddr != "" {
		cfg.Server.Address = serveAddr
	}
	if serveWidgetsDir != "" {
		cfg.Widgets.Directory = serveWidgetsDir
	}
	if serveBackend != "" {
		cfg.Storage.Backend = serveBackend
	}
	return serve(cmd, cfg)
}

func serve(cmd *cobra.Command, cfg *config.Config) error {
	return app.Serve(cmd.Context(), cfg, version, logging.FromContext(cmd.Context()))
}
