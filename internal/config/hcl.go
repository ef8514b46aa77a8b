package config

import (
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// hclDocument mirrors Config for HCL files. Fields are pointers so that
// attributes left out of the file keep their defaults.
type hclDocument struct {
	Version *string     `hcl:"version,optional"`
	Server  *hclServer  `hcl:"server,block"`
	Widgets *hclWidgets `hcl:"widgets,block"`
	Storage *hclStorage `hcl:"storage,block"`
	Webhook *hclWebhook `hcl:"webhook,block"`
	Output  *hclOutput  `hcl:"output,block"`
	Logging *hclLogging `hcl:"logging,block"`
}

type hclServer struct {
	Address                *string `hcl:"address,optional"`
	ReadTimeoutSeconds     *int    `hcl:"read_timeout_seconds,optional"`
	WriteTimeoutSeconds    *int    `hcl:"write_timeout_seconds,optional"`
	RequestTimeoutSeconds  *int    `hcl:"request_timeout_seconds,optional"`
	ShutdownTimeoutSeconds *int    `hcl:"shutdown_timeout_seconds,optional"`
	MaxBodyBytes           *int64  `hcl:"max_body_bytes,optional"`
}

type hclWidgets struct {
	Directory *string `hcl:"directory,optional"`
}

type hclStorage struct {
	Backend   *string `hcl:"backend,optional"`
	Directory *string `hcl:"directory,optional"`
	DSN       *string `hcl:"dsn,optional"`
}

type hclWebhook struct {
	URL            *string `hcl:"url,optional"`
	Provider       *string `hcl:"provider,optional"`
	Secret         *string `hcl:"secret,optional"`
	TimeoutSeconds *int    `hcl:"timeout_seconds,optional"`
	RetryCount     *int    `hcl:"retry_count,optional"`
}

type hclOutput struct {
	DefaultFormat *string `hcl:"default_format,optional"`
	NoColor       *bool   `hcl:"no_color,optional"`
}

type hclLogging struct {
	Level       *string `hcl:"level,optional"`
	Format      *string `hcl:"format,optional"`
	Output      *string `hcl:"output,optional"`
	Development *bool   `hcl:"development,optional"`
}

// decodeHCL overlays an HCL document onto c
func decodeHCL(filename string, src []byte, c *Config) error {
	var doc hclDocument
	if err := hclsimple.Decode(filename, src, nil, &doc); err != nil {
		return err
	}

	set(&c.Version, doc.Version)
	if s := doc.Server; s != nil {
		set(&c.Server.Address, s.Address)
		set(&c.Server.ReadTimeoutSeconds, s.ReadTimeoutSeconds)
		set(&c.Server.WriteTimeoutSeconds, s.WriteTimeoutSeconds)
		set(&c.Server.RequestTimeoutSeconds, s.RequestTimeoutSeconds)
		set(&c.Server.ShutdownTimeoutSeconds, s.ShutdownTimeoutSeconds)
		set(&c.Server.MaxBodyBytes, s.MaxBodyBytes)
	}
	if w := doc.Widgets; w != nil {
		set(&c.Widgets.Directory, w.Directory)
	}
	if s := doc.Storage; s != nil {
		set(&c.Storage.Backend, s.Backend)
		set(&c.Storage.Directory, s.Directory)
		set(&c.Storage.DSN, s.DSN)
	}
	if wh := doc.Webhook; wh != nil {
		set(&c.Webhook.URL, wh.URL)
		set(&c.Webhook.Provider, wh.Provider)
		set(&c.Webhook.Secret, wh.Secret)
		set(&c.Webhook.TimeoutSeconds, wh.TimeoutSeconds)
		set(&c.Webhook.RetryCount, wh.RetryCount)
	}
	if o := doc.Output; o != nil {
		set(&c.Output.DefaultFormat, o.DefaultFormat)
		set(&c.Output.NoColor, o.NoColor)
	}
	if l := doc.Logging; l != nil {
		set(&c.Logging.Level, l.Level)
		set(&c.Logging.Format, l.Format)
		set(&c.Logging.Output, l.Output)
		set(&c.Logging.Development, l.Development)
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
