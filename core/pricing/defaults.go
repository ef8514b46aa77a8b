package pricing

import (
	"github.com/shopspring/decimal"

	"widget-estimate/core/types"
)

// Defaults are the values used when a configuration or response leaves a
// pricing input unspecified
type Defaults struct {
	// BasePrice applies when no project size was selected
	BasePrice decimal.Decimal

	// BaseLabel names the default project size in the base line
	BaseLabel string

	// CostPerMile applies when the distance step has no rate
	CostPerMile decimal.Decimal

	// MinimumDistance applies when the distance step has no threshold
	MinimumDistance decimal.Decimal

	// Currency of every result
	Currency types.Currency
}

// DefaultDefaults returns the studio-move defaults
func DefaultDefaults() Defaults {
	return Defaults{
		BasePrice:       decimal.NewFromInt(350),
		BaseLabel:       "Studio",
		CostPerMile:     decimal.NewFromInt(4),
		MinimumDistance: decimal.Zero,
		Currency:        types.CurrencyUSD,
	}
}

// Supply is one entry of the packing-supply price list
type Supply struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
}

// SupplyCatalog maps supply id to its price entry
type SupplyCatalog map[string]Supply

// DefaultSupplyCatalog returns the built-in packing-supply price list
func DefaultSupplyCatalog() SupplyCatalog {
	entries := []Supply{
		{ID: "small-box", Name: "Small Boxes", UnitPrice: decimal.RequireFromString("2.50")},
		{ID: "medium-box", Name: "Medium Boxes", UnitPrice: decimal.RequireFromString("3.75")},
		{ID: "large-box", Name: "Large Boxes", UnitPrice: decimal.RequireFromString("5.00")},
		{ID: "wardrobe-box", Name: "Wardrobe Boxes", UnitPrice: decimal.RequireFromString("12.00")},
		{ID: "bubble-wrap", Name: "Bubble Wrap Roll", UnitPrice: decimal.RequireFromString("15.00")},
		{ID: "packing-tape", Name: "Packing Tape", UnitPrice: decimal.RequireFromString("8.00")},
		{ID: "packing-paper", Name: "Packing Paper", UnitPrice: decimal.RequireFromString("12.00")},
	}
	catalog := make(SupplyCatalog, len(entries))
	for _, s := range entries {
		catalog[s.ID] = s
	}
	return catalog
}
