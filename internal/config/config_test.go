package config

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "widget-estimate/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":8080" || cfg.Storage.Backend != BackendFile || cfg.Output.DefaultFormat != "cli" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"server": {"address": ":9090"},
		"storage": {"backend": "sqlite", "dsn": "/tmp/leads.db"},
		"logging": {"level": "debug"}
	}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("expected address :9090, got %s", cfg.Server.Address)
	}
	if cfg.Server.RequestTimeoutSeconds != 15 {
		t.Errorf("expected default request timeout to survive, got %d", cfg.Server.RequestTimeoutSeconds)
	}
	if cfg.Storage.Backend != BackendSQLite || cfg.Storage.DSN != "/tmp/leads.db" {
		t.Errorf("unexpected storage config: %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadHCL(t *testing.T) {
	path := writeFile(t, "config.hcl", `
version = "2"

server {
  address = "127.0.0.1:8181"
}

widgets {
  directory = "/srv/widgets"
}

webhook {
  url      = "https://hooks.example.com/leads"
  provider = "slack"
}

output {
  default_format = "markdown"
  no_color       = true
}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Version != "2" || cfg.Server.Address != "127.0.0.1:8181" {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.ShutdownTimeoutSeconds != 10 {
		t.Errorf("expected default shutdown timeout, got %d", cfg.Server.ShutdownTimeoutSeconds)
	}
	if cfg.Widgets.Directory != "/srv/widgets" {
		t.Errorf("unexpected widgets dir %s", cfg.Widgets.Directory)
	}
	if cfg.Output.DefaultFormat != "markdown" || !cfg.Output.NoColor {
		t.Errorf("unexpected output config: %+v", cfg.Output)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Errorf("expected default storage backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Webhook.URL != "https://hooks.example.com/leads" || cfg.Webhook.Provider != "slack" || cfg.Webhook.RetryCount != 3 {
		t.Errorf("unexpected webhook config: %+v", cfg.Webhook)
	}
}

func TestLoadRejectsMalformedFiles(t *testing.T) {
	for name, content := range map[string]string{
		"bad.json": `{"server": `,
		"bad.hcl":  `server { address = }`,
	} {
		_, err := Load(writeFile(t, name, content))
		if !apperrors.IsType(err, apperrors.TypeConfig) {
			t.Errorf("%s: expected config error, got %v", name, err)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WIDGET_ESTIMATE_SERVER_ADDRESS", ":7070")
	t.Setenv("WIDGET_ESTIMATE_STORAGE_BACKEND", "memory")
	t.Setenv("WIDGET_ESTIMATE_LOG_LEVEL", "warn")
	t.Setenv("WIDGET_ESTIMATE_OUTPUT_NO_COLOR", "true")

	path := writeFile(t, "config.json", `{"server": {"address": ":9090"}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Errorf("expected env to win over file, got %s", cfg.Server.Address)
	}
	if cfg.Storage.Backend != BackendMemory || cfg.Logging.Level != "warn" || !cfg.Output.NoColor {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.Storage.Backend = "postgres" }},
		{"format", func(c *Config) { c.Output.DefaultFormat = "html" }},
		{"body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }},
		{"webhook provider", func(c *Config) { c.Webhook.Provider = "discord" }},
		{"webhook retries", func(c *Config) { c.Webhook.RetryCount = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !apperrors.IsType(err, apperrors.TypeConfig) {
				t.Errorf("expected config error, got %v", err)
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Widgets.Directory = "/data/widgets"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Widgets.Directory != "/data/widgets" {
		t.Errorf("expected saved widgets dir, got %s", loaded.Widgets.Directory)
	}
}
