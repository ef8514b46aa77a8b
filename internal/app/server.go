// Package app assembles the HTTP API from application configuration. Both the
// CLI serve command and the standalone server binary start it through Serve.
package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"widget-estimate/adapters/storage"
	"widget-estimate/adapters/webhook"
	"widget-estimate/adapters/widgets"
	"widget-estimate/api"
	"widget-estimate/internal/config"
)

// Serve opens the widget directory and lead store, starts the API on
// cfg.Server.Address and blocks until ctx is cancelled or the listener fails.
func Serve(ctx context.Context, cfg *config.Config, version string, logger *zap.Logger) error {
	provider, err := widgets.NewDirectoryProvider(cfg.Widgets.Directory)
	if err != nil {
		return err
	}
	defer provider.Close()

	leads, err := OpenStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer leads.Close()

	srv, err := api.NewServer(api.Options{
		Version:        version,
		Widgets:        provider,
		Leads:          leads,
		Notifier:       LeadNotifier(cfg.Webhook),
		Logger:         logger,
		RequestTimeout: Seconds(cfg.Server.RequestTimeoutSeconds),
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	})
	if err != nil {
		return err
	}

	logger.Info("starting widget-estimate",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Address),
		zap.String("widgets", cfg.Widgets.Directory),
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("webhook", cfg.Webhook.URL != ""),
	)
	return srv.ListenAndServe(ctx, cfg.Server.Address,
		Seconds(cfg.Server.ReadTimeoutSeconds),
		Seconds(cfg.Server.WriteTimeoutSeconds),
		Seconds(cfg.Server.ShutdownTimeoutSeconds),
	)
}

// OpenStore opens the configured lead store backend
func OpenStore(cfg config.StorageConfig) (storage.Store, error) {
	return storage.StoreFactory(storage.Backend(cfg.Backend), storage.Options{
		Directory: cfg.Directory,
		DSN:       cfg.DSN,
	})
}

// LeadNotifier returns nil when no webhook URL is configured
func LeadNotifier(cfg config.WebhookConfig) api.LeadNotifier {
	if cfg.URL == "" {
		return nil
	}
	wh := webhook.DefaultConfig(webhook.Provider(cfg.Provider), cfg.URL)
	wh.Secret = cfg.Secret
	wh.Timeout = Seconds(cfg.TimeoutSeconds)
	wh.RetryCount = cfg.RetryCount
	return webhook.New(wh)
}

// Seconds converts a whole-second config value to a duration
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
