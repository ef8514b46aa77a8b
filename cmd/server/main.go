// Package main - Entry point for the widget-estimate HTTP server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"widget-estimate/internal/app"
	"widget-estimate/internal/config"
	"widget-estimate/internal/logging"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "config file (.json or .hcl)")
	addr := flag.String("addr", "", "server address (overrides config)")
	widgetsDir := flag.String("widgets", "", "widgets directory (overrides config)")
	flag.Parse()

	if err := run(*configPath, *addr, *widgetsDir); err != nil {
		fmt.Fprintf(os.Stderr, "widget-estimate server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, addr, widgetsDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Address = addr
	}
	if widgetsDir != "" {
		cfg.Widgets.Directory = widgetsDir
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		return err
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Serve(ctx, cfg, version, logging.Logger)
}
