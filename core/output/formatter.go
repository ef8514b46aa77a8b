// Package output provides output formatting interfaces.
// This package produces human and machine-readable estimate reports.
package output

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"widget-estimate/core/types"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given report
	Render(w io.Writer, report *Report) error
}

// Report is one computed estimate with its context
type Report struct {
	// WidgetID identifies the widget configuration, when known
	WidgetID string `json:"widget_id,omitempty"`

	// WidgetName is the display name of the widget, when known
	WidgetName string `json:"widget_name,omitempty"`

	// Result is the engine output
	Result *types.EstimateResult `json:"result"`

	// Metadata contains execution context
	Metadata Metadata `json:"metadata"`
}

// Metadata contains execution context
type Metadata struct {
	// Timestamp is when the estimate was computed
	Timestamp string `json:"timestamp,omitempty"`

	// InputHash is a hash of the configuration and responses
	InputHash string `json:"input_hash,omitempty"`

	// EngineVersion is the pricing engine version
	EngineVersion string `json:"engine_version"`
}

// Registry manages formatter registration
type Registry struct {
	mu         sync.RWMutex
	formatters map[Format]Formatter
}

// NewRegistry creates a registry holding the given formatters
func NewRegistry(formatters ...Formatter) *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	for _, f := range formatters {
		_ = r.Register(f)
	}
	return r
}

// DefaultRegistry returns a registry with the cli, json and markdown formatters
func DefaultRegistry(noColor bool) *Registry {
	return NewRegistry(NewCLIFormatter(noColor), NewJSONFormatter(true), NewMarkdownFormatter())
}

// Register adds a formatter to the registry
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.formatters[f.Format()]; exists {
		return fmt.Errorf("formatter already registered: %s", f.Format())
	}
	r.formatters[f.Format()] = f
	return nil
}

// Get returns a formatter for a format type
func (r *Registry) Get(format Format) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[format]
	return f, ok
}

// Formats lists the registered format names, sorted
func (r *Registry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Format, 0, len(r.formatters))
	for f := range r.formatters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Money formats an amount as dollars with two decimals, e.g. -$30.00
func Money(d decimal.Decimal) string {
	d = d.Round(2)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
