// Package types defines the estimate result types shared across all layers.
package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// LineType tags the pipeline stage that produced a breakdown line
type LineType string

const (
	LineBase       LineType = "base"
	LineAdjustment LineType = "adjustment"
	LineChallenge  LineType = "challenge"
	LineDiscount   LineType = "discount"
	LineTravel     LineType = "travel"
	LineAdditional LineType = "additional"
	LineSupply     LineType = "supply"
	LineTax        LineType = "tax"
)

// BreakdownLine is one itemized charge or discount
type BreakdownLine struct {
	// Item is the display label
	Item string `json:"item"`

	// Description explains how the price was derived
	Description string `json:"description"`

	// Price is signed; discounts are negative. Kept at full precision.
	Price decimal.Decimal `json:"price"`

	// Type is the stage tag
	Type LineType `json:"type"`
}

// EstimateResult is the output of one pricing run
type EstimateResult struct {
	// TotalPrice is the sum of all breakdown prices rounded to cents
	TotalPrice decimal.Decimal `json:"total_price"`

	// BasePrice is the unrounded size-derived base price
	BasePrice decimal.Decimal `json:"base_price"`

	// Subtotal is the pre-tax total rounded to cents
	Subtotal decimal.Decimal `json:"subtotal"`

	// TaxAmount is the tax line rounded to cents, zero without tax
	TaxAmount decimal.Decimal `json:"tax_amount"`

	// Breakdown lists lines in emission order
	Breakdown []BreakdownLine `json:"breakdown"`

	// Currency is always USD
	Currency Currency `json:"currency"`
}

// Sum adds all breakdown prices at full precision
func (r *EstimateResult) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, line := range r.Breakdown {
		total = total.Add(line.Price)
	}
	return total
}

// Lines returns the breakdown lines of one type, in order
func (r *EstimateResult) Lines(t LineType) []BreakdownLine {
	var out []BreakdownLine
	for _, line := range r.Breakdown {
		if line.Type == t {
			out = append(out, line)
		}
	}
	return out
}

// MarshalJSON writes the price as a JSON number with two decimals
func (l BreakdownLine) MarshalJSON() ([]byte, error) {
	type wire struct {
		Item        string      `json:"item"`
		Description string      `json:"description"`
		Price       json.Number `json:"price"`
		Type        LineType    `json:"type"`
	}
	return json.Marshal(wire{
		Item:        l.Item,
		Description: l.Description,
		Price:       Cents(l.Price),
		Type:        l.Type,
	})
}

// MarshalJSON writes money fields as JSON numbers; base_price stays unrounded
func (r EstimateResult) MarshalJSON() ([]byte, error) {
	type wire struct {
		TotalPrice json.Number     `json:"total_price"`
		BasePrice  json.Number     `json:"base_price"`
		Subtotal   json.Number     `json:"subtotal"`
		TaxAmount  json.Number     `json:"tax_amount"`
		Breakdown  []BreakdownLine `json:"breakdown"`
		Currency   Currency        `json:"currency"`
	}
	breakdown := r.Breakdown
	if breakdown == nil {
		breakdown = []BreakdownLine{}
	}
	return json.Marshal(wire{
		TotalPrice: Cents(r.TotalPrice),
		BasePrice:  json.Number(r.BasePrice.String()),
		Subtotal:   Cents(r.Subtotal),
		TaxAmount:  Cents(r.TaxAmount),
		Breakdown:  breakdown,
		Currency:   r.Currency,
	})
}

// Cents formats an amount as a fixed two-decimal JSON number
func Cents(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
