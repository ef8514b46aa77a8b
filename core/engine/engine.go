// Package engine provides the API-primary estimation service.
// HTTP, CLI and MCP are thin wrappers around it: they resolve a widget
// configuration, decode the visitor's responses and run the pricing engine.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"widget-estimate/core/determinism"
	"widget-estimate/core/output"
	"widget-estimate/core/pricing"
	"widget-estimate/core/response"
	"widget-estimate/core/widget"
	apperrors "widget-estimate/internal/errors"
	"widget-estimate/internal/logging"
)

// ConfigSource resolves widget configurations by public key
type ConfigSource interface {
	Get(ctx context.Context, key string) (*widget.Configuration, error)
}

// Estimator runs estimates for the boundary layers
type Estimator struct {
	source ConfigSource
	pricer *pricing.Engine
	now    func() time.Time
}

// Option customises an Estimator
type Option func(*Estimator)

// WithPricer replaces the pricing engine
func WithPricer(p *pricing.Engine) Option {
	return func(e *Estimator) {
		e.pricer = p
	}
}

// WithClock replaces the timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) {
		e.now = now
	}
}

// NewEstimator creates an estimator; source may be nil when every request
// carries its own configuration.
func NewEstimator(source ConfigSource, opts ...Option) *Estimator {
	e := &Estimator{
		source: source,
		pricer: pricing.New(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EstimateRequest is the input to estimation
type EstimateRequest struct {
	// WidgetKey selects the configuration when Config is nil
	WidgetKey string

	// Config overrides the lookup, used for offline estimates
	Config *widget.Configuration

	// Responses is the raw responses object
	Responses json.RawMessage
}

// Config resolves the configuration for key
func (e *Estimator) Config(ctx context.Context, key string) (*widget.Configuration, error) {
	if e.source == nil {
		return nil, apperrors.NotFound("widget configuration", key)
	}
	return e.source.Get(ctx, key)
}

// Estimate prices one set of responses. The only failures are a missing
// configuration and a responses payload that is not a JSON object.
func (e *Estimator) Estimate(ctx context.Context, req EstimateRequest) (*output.Report, error) {
	cfg := req.Config
	if cfg == nil {
		var err error
		if cfg, err = e.Config(ctx, req.WidgetKey); err != nil {
			return nil, err
		}
	}

	responses, err := response.Parse(req.Responses)
	if err != nil {
		if errors.Is(err, response.ErrNotObject) {
			return nil, apperrors.InvalidRequest("responses must be an object")
		}
		return nil, apperrors.Input("decode responses", err)
	}

	result := e.pricer.Compute(cfg, responses)

	report := &output.Report{
		WidgetID:   cfg.ID,
		WidgetName: cfg.Name,
		Result:     result,
		Metadata: output.Metadata{
			Timestamp:     e.now().UTC().Format(time.RFC3339),
			EngineVersion: pricing.Version,
		},
	}
	if hash, err := inputHash(cfg, req.Responses); err == nil {
		report.Metadata.InputHash = hash.Hex()
	}

	logging.FromContext(ctx).Debug("estimate computed",
		zap.String("widget", req.WidgetKey),
		zap.Int("steps", len(responses)),
		zap.Int("lines", len(result.Breakdown)),
		zap.String("total", result.TotalPrice.StringFixed(2)),
	)
	return report, nil
}

func inputHash(cfg *widget.Configuration, responses json.RawMessage) (determinism.ContentHash, error) {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return determinism.ContentHash{}, err
	}
	return determinism.InputHash(map[string][]byte{
		"config":    doc,
		"responses": responses,
	})
}
