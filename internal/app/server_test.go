package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"widget-estimate/adapters/webhook"
	"widget-estimate/internal/config"
	apperrors "widget-estimate/internal/errors"
)

func TestLeadNotifier(t *testing.T) {
	assert.Nil(t, LeadNotifier(config.WebhookConfig{Provider: "slack"}))

	n := LeadNotifier(config.WebhookConfig{
		URL:            "https://hooks.example.com/leads",
		Provider:       "slack",
		Secret:         "s3cret",
		TimeoutSeconds: 5,
		RetryCount:     1,
	})
	require.NotNil(t, n)
	assert.IsType(t, &webhook.Adapter{}, n)
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	for _, cfg := range []config.StorageConfig{
		{Backend: config.BackendMemory},
		{Backend: config.BackendFile, Directory: filepath.Join(dir, "leads")},
		{Backend: config.BackendSQLite, DSN: filepath.Join(dir, "leads.db")},
	} {
		t.Run(cfg.Backend, func(t *testing.T) {
			store, err := OpenStore(cfg)
			require.NoError(t, err)
			require.NoError(t, store.Close())
		})
	}

	_, err := OpenStore(config.StorageConfig{Backend: "postgres"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeConfig))
}

func TestServeMissingWidgetsDirectory(t *testing.T) {
	cfg := config.Default()
	cfg.Widgets.Directory = filepath.Join(t.TempDir(), "absent")
	cfg.Storage.Backend = config.BackendMemory

	err := Serve(context.Background(), cfg, "test", zap.NewNop())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeConfig))
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Widgets.Directory = t.TempDir()
	cfg.Storage.Backend = config.BackendMemory

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, cfg, "test", zap.NewNop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 15*time.Second, Seconds(15))
	assert.Equal(t, time.Duration(0), Seconds(0))
}
