// Package config provides configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"

	apperrors "widget-estimate/internal/errors"
	"widget-estimate/internal/logging"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "WIDGET_ESTIMATE_"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" env:"CONFIG_VERSION"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server" envPrefix:"SERVER_"`

	// Widgets locates widget configuration documents
	Widgets WidgetsConfig `json:"widgets" envPrefix:"WIDGETS_"`

	// Storage selects the lead store backend
	Storage StorageConfig `json:"storage" envPrefix:"STORAGE_"`

	// Webhook notifies an endpoint about captured leads
	Webhook WebhookConfig `json:"webhook" envPrefix:"WEBHOOK_"`

	// Output contains output configuration
	Output OutputConfig `json:"output" envPrefix:"OUTPUT_"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Address is the listen address
	Address string `json:"address" env:"ADDRESS"`

	// ReadTimeoutSeconds bounds reading a request
	ReadTimeoutSeconds int `json:"read_timeout_seconds" env:"READ_TIMEOUT_SECONDS"`

	// WriteTimeoutSeconds bounds writing a response
	WriteTimeoutSeconds int `json:"write_timeout_seconds" env:"WRITE_TIMEOUT_SECONDS"`

	// RequestTimeoutSeconds bounds a handler
	RequestTimeoutSeconds int `json:"request_timeout_seconds" env:"REQUEST_TIMEOUT_SECONDS"`

	// ShutdownTimeoutSeconds bounds graceful shutdown
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" env:"SHUTDOWN_TIMEOUT_SECONDS"`

	// MaxBodyBytes limits request bodies
	MaxBodyBytes int64 `json:"max_body_bytes" env:"MAX_BODY_BYTES"`
}

// WidgetsConfig contains configuration provider settings
type WidgetsConfig struct {
	// Directory holds <widget_key>.yaml|.yml|.json documents
	Directory string `json:"directory" env:"DIRECTORY"`
}

// StorageConfig contains lead store settings
type StorageConfig struct {
	// Backend is one of file, memory, sqlite
	Backend string `json:"backend" env:"BACKEND"`

	// Directory is the root for the file backend
	Directory string `json:"directory" env:"DIRECTORY"`

	// DSN is the database file for the sqlite backend
	DSN string `json:"dsn" env:"DSN"`
}

// WebhookConfig contains lead notification settings
type WebhookConfig struct {
	// URL receives lead.created events; empty disables notifications
	URL string `json:"url,omitempty" env:"URL"`

	// Provider is one of custom, slack, teams
	Provider string `json:"provider" env:"PROVIDER"`

	// Secret signs request bodies
	Secret string `json:"secret,omitempty" env:"SECRET"`

	// TimeoutSeconds bounds one delivery attempt
	TimeoutSeconds int `json:"timeout_seconds" env:"TIMEOUT_SECONDS"`

	// RetryCount is the number of retries after a failed attempt
	RetryCount int `json:"retry_count" env:"RETRY_COUNT"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format" env:"DEFAULT_FORMAT"`

	// NoColor disables ANSI colors in cli output
	NoColor bool `json:"no_color" env:"NO_COLOR"`
}

// Storage backends
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".widget-estimate")

	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Address:                ":8080",
			ReadTimeoutSeconds:     10,
			WriteTimeoutSeconds:    30,
			RequestTimeoutSeconds:  15,
			ShutdownTimeoutSeconds: 10,
			MaxBodyBytes:           1 << 20,
		},
		Widgets: WidgetsConfig{
			Directory: "widgets",
		},
		Storage: StorageConfig{
			Backend:   BackendFile,
			Directory: filepath.Join(dataDir, "leads"),
			DSN:       filepath.Join(dataDir, "leads.db"),
		},
		Webhook: WebhookConfig{
			Provider:       "custom",
			TimeoutSeconds: 10,
			RetryCount:     3,
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a JSON or HCL file, then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, apperrors.Config("read config file", err)
		case strings.EqualFold(filepath.Ext(path), ".hcl"):
			if err := decodeHCL(path, data, config); err != nil {
				return nil, apperrors.Config("decode HCL config", err).WithContext("path", path)
			}
		default:
			if err := json.Unmarshal(data, config); err != nil {
				return nil, apperrors.Config("decode JSON config", err).WithContext("path", path)
			}
		}
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides fields from WIDGET_ESTIMATE_* environment variables
func ApplyEnv(c *Config) error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return apperrors.Config("parse env", err)
	}
	return nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendMemory, BackendSQLite:
	default:
		return apperrors.New(apperrors.TypeConfig, fmt.Sprintf("unknown storage backend %q", c.Storage.Backend))
	}
	switch c.Output.DefaultFormat {
	case "cli", "json", "markdown":
	default:
		return apperrors.New(apperrors.TypeConfig, fmt.Sprintf("unknown output format %q", c.Output.DefaultFormat))
	}
	switch c.Webhook.Provider {
	case "custom", "slack", "teams":
	default:
		return apperrors.New(apperrors.TypeConfig, fmt.Sprintf("unknown webhook provider %q", c.Webhook.Provider))
	}
	if c.Webhook.RetryCount < 0 {
		return apperrors.New(apperrors.TypeConfig, "webhook.retry_count must not be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return apperrors.New(apperrors.TypeConfig, "server.max_body_bytes must be positive")
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
