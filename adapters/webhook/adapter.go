// Package webhook delivers lead notifications to external endpoints.
// Supports plain JSON, Slack and Microsoft Teams targets.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"widget-estimate/adapters/storage"
	"widget-estimate/core/output"
	"widget-estimate/core/types"
)

// Provider is a webhook provider type
type Provider string

const (
	ProviderSlack  Provider = "slack"
	ProviderTeams  Provider = "teams"
	ProviderCustom Provider = "custom"
)

// EventLeadCreated is sent once per captured lead
const EventLeadCreated = "lead.created"

// SignatureHeader carries the hex HMAC-SHA256 of the body
const SignatureHeader = "X-Widget-Estimate-Signature"

// Config configures webhook behavior
type Config struct {
	// Provider type
	Provider Provider `json:"provider"`

	// Endpoint URL
	Endpoint string `json:"endpoint"`

	// Secret for signing; empty disables signing
	Secret string `json:"secret"`

	// Headers to include
	Headers map[string]string `json:"headers"`

	// Timeout for requests
	Timeout time.Duration `json:"timeout"`

	// RetryCount for failed requests
	RetryCount int `json:"retry_count"`

	// RetryDelay between retries
	RetryDelay time.Duration `json:"retry_delay"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig(provider Provider, endpoint string) *Config {
	return &Config{
		Provider:   provider,
		Endpoint:   endpoint,
		Timeout:    10 * time.Second,
		RetryCount: 3,
		RetryDelay: 1 * time.Second,
		Headers:    make(map[string]string),
	}
}

// Adapter is the webhook adapter
type Adapter struct {
	config     *Config
	httpClient *http.Client
}

// New creates a new webhook adapter
func New(config *Config) *Adapter {
	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Payload is the webhook payload
type Payload struct {
	Event      string              `json:"event"`
	LeadID     string              `json:"lead_id"`
	WidgetKey  string              `json:"widget_key"`
	WidgetID   string              `json:"widget_id,omitempty"`
	Contact    storage.ContactInfo `json:"contact_info"`
	TotalPrice json.Number         `json:"total_price"`
	Currency   types.Currency      `json:"currency"`
	LineItems  int                 `json:"line_items"`
	SourceURL  string              `json:"source_url,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// NewLeadPayload builds the lead.created payload
func NewLeadPayload(lead *storage.Lead) *Payload {
	p := &Payload{
		Event:      EventLeadCreated,
		LeadID:     lead.ID,
		WidgetKey:  lead.WidgetKey,
		WidgetID:   lead.WidgetID,
		Contact:    lead.Contact,
		TotalPrice: types.Cents(lead.TotalPrice()),
		Currency:   types.CurrencyUSD,
		SourceURL:  lead.SourceURL,
		Timestamp:  lead.CreatedAt,
	}
	if lead.Estimate != nil {
		p.Currency = lead.Estimate.Currency
		p.LineItems = len(lead.Estimate.Breakdown)
	}
	return p
}

// LeadCreated notifies the endpoint about a captured lead
func (a *Adapter) LeadCreated(ctx context.Context, lead *storage.Lead) error {
	return a.Send(ctx, NewLeadPayload(lead))
}

// Send sends the webhook
func (a *Adapter) Send(ctx context.Context, payload *Payload) error {
	var lastErr error

	for attempt := 0; attempt <= a.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.config.RetryDelay):
			}
		}

		if err := a.sendOnce(ctx, payload); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", a.config.RetryCount+1, lastErr)
}

func (a *Adapter) sendOnce(ctx context.Context, payload *Payload) error {
	body, err := a.formatPayload(payload)
	if err != nil {
		return fmt.Errorf("failed to format payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range a.config.Headers {
		req.Header.Set(k, v)
	}
	if a.config.Secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+a.sign(body))
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (a *Adapter) formatPayload(payload *Payload) ([]byte, error) {
	switch a.config.Provider {
	case ProviderSlack:
		return a.formatSlack(payload)
	case ProviderTeams:
		return a.formatTeams(payload)
	default:
		return json.Marshal(payload)
	}
}

func (a *Adapter) formatSlack(payload *Payload) ([]byte, error) {
	total := money(payload.TotalPrice)
	slack := map[string]any{
		"attachments": []map[string]any{
			{
				"color": "good",
				"title": fmt.Sprintf("New lead: %s (%s)", payload.Contact.DisplayName(), total),
				"fields": []map[string]any{
					{"title": "Widget", "value": payload.WidgetKey, "short": true},
					{"title": "Estimate", "value": total, "short": true},
					{"title": "Email", "value": payload.Contact.Email, "short": true},
					{"title": "Phone", "value": payload.Contact.Phone, "short": true},
				},
				"footer": payload.SourceURL,
				"ts":     payload.Timestamp.Unix(),
			},
		},
	}

	return json.Marshal(slack)
}

func (a *Adapter) formatTeams(payload *Payload) ([]byte, error) {
	total := money(payload.TotalPrice)
	teams := map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": "2E7D32",
		"summary":    fmt.Sprintf("New lead: %s", total),
		"sections": []map[string]any{
			{
				"activityTitle": fmt.Sprintf("New lead from %s", payload.WidgetKey),
				"facts": []map[string]any{
					{"name": "Contact", "value": payload.Contact.DisplayName()},
					{"name": "Email", "value": payload.Contact.Email},
					{"name": "Phone", "value": payload.Contact.Phone},
					{"name": "Estimate", "value": total},
				},
			},
		},
	}

	return json.Marshal(teams)
}

func money(n json.Number) string {
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return string(n)
	}
	return output.Money(d)
}

func (a *Adapter) sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(a.config.Secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies a signature produced for payload, with or without
// the "sha256=" prefix
func VerifySignature(payload []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if len(signature) > 7 && signature[:7] == "sha256=" {
		signature = signature[7:]
	}
	return hmac.Equal([]byte(signature), []byte(expected))
}
