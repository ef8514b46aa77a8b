// Package widget - Widget configuration model
// A Configuration is the read-only pricing document of one widget: its steps,
// their options and the pricing rule attached to each option.
package widget

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PricingType selects how a challenge or additional-service option is priced
type PricingType string

const (
	// PricingFixed is a flat amount
	PricingFixed PricingType = "fixed"

	// PricingPercentage is a fraction of the running total
	PricingPercentage PricingType = "percentage"

	// PricingDiscount is a (negative) fraction of the running total
	PricingDiscount PricingType = "discount"

	// PricingPerUnit is a per-unit amount; quantities are not collected yet,
	// so it prices like PricingFixed
	PricingPerUnit PricingType = "per_unit"
)

// Widget status values accepted by public lookups
const (
	StatusActive    = "active"
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// Configuration is the pricing document of a widget
type Configuration struct {
	// ID is the widget identifier
	ID string `json:"id,omitempty"`

	// Name is the display name of the widget
	Name string `json:"name,omitempty"`

	// Key is the public widget key used by embeds
	Key string `json:"widget_key,omitempty"`

	// Status is the publication status
	Status string `json:"status,omitempty"`

	// Steps maps step id to its definition
	Steps map[string]Step `json:"steps"`

	// Settings holds widget-wide estimation settings
	Settings Settings `json:"settings"`
}

// Settings holds widget-wide estimation settings
type Settings struct {
	// TaxRate is a fraction (0.08 = 8%); invalid means no tax
	TaxRate decimal.NullDecimal `json:"-"`
}

// Step is one wizard step
type Step struct {
	Options []Option `json:"options"`
}

// Option is one selectable choice of a step
type Option struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Estimation  *Estimation `json:"estimation,omitempty"`
}

// Estimation is the pricing rule attached to an option. Every field is
// optional; which ones matter depends on the step the option belongs to.
type Estimation struct {
	BasePrice       decimal.NullDecimal
	PriceMultiplier decimal.NullDecimal
	PricingType     PricingType
	PricingValue    decimal.NullDecimal
	CostPerMile     decimal.NullDecimal
	MinimumDistance decimal.NullDecimal
}

// Step returns the step definition for id
func (c *Configuration) Step(id string) (Step, bool) {
	if c == nil || c.Steps == nil {
		return Step{}, false
	}
	step, ok := c.Steps[id]
	return step, ok
}

// TaxRate returns the configured tax rate, zero when absent
func (c *Configuration) TaxRate() decimal.Decimal {
	if c == nil || !c.Settings.TaxRate.Valid {
		return decimal.Zero
	}
	return c.Settings.TaxRate.Decimal
}

// IsPublic reports whether the widget may be served to visitors
func (c *Configuration) IsPublic() bool {
	if c == nil {
		return false
	}
	switch c.Status {
	case "", StatusActive, StatusPublished:
		return true
	}
	return false
}

// Option returns the first option with the given id
func (s Step) Option(id string) (Option, bool) {
	for _, opt := range s.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// FirstEstimation returns the estimation block of the first option carrying one
func (s Step) FirstEstimation() (*Estimation, bool) {
	for _, opt := range s.Options {
		if opt.Estimation != nil {
			return opt.Estimation, true
		}
	}
	return nil, false
}

// Type returns the pricing type, fixed when unset
func (e *Estimation) Type() PricingType {
	if e == nil || e.PricingType == "" {
		return PricingFixed
	}
	return e.PricingType
}

// Value returns the pricing value, zero when unset
func (e *Estimation) Value() decimal.Decimal {
	if e == nil || !e.PricingValue.Valid {
		return decimal.Zero
	}
	return e.PricingValue.Decimal
}

// MarshalJSON writes numeric fields as JSON numbers and omits unset ones
func (e Estimation) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 6)
	putNumber(out, "base_price", e.BasePrice)
	putNumber(out, "price_multiplier", e.PriceMultiplier)
	putNumber(out, "pricing_value", e.PricingValue)
	putNumber(out, "cost_per_mile", e.CostPerMile)
	putNumber(out, "minimum_distance", e.MinimumDistance)
	if e.PricingType != "" {
		out["pricing_type"] = string(e.PricingType)
	}
	return json.Marshal(out)
}

// MarshalJSON writes the tax rate only when set
func (s Settings) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 1)
	putNumber(out, "tax_rate", s.TaxRate)
	return json.Marshal(out)
}

func putNumber(out map[string]any, key string, v decimal.NullDecimal) {
	if v.Valid {
		out[key] = json.Number(v.Decimal.String())
	}
}
