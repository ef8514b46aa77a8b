// Package response - Visitor responses as a tagged union
// Each wizard step records one response whose shape depends on the step
// kind. Decoding produces one variant per step; consumers pattern-match on
// the variant they expect and treat anything else as "no response".
package response

import (
	"github.com/shopspring/decimal"
)

// Kind identifies a response variant
type Kind string

const (
	KindSingleSelect Kind = "single_select"
	KindMultiSelect  Kind = "multi_select"
	KindDistance     Kind = "distance"
	KindSupplies     Kind = "supplies"
)

// Response is one step's recorded answer
type Response interface {
	Kind() Kind
}

// SingleSelect is {selectedOption: id}
type SingleSelect struct {
	SelectedOption string
}

// MultiSelect is {selections: [id, ...]}
type MultiSelect struct {
	Selections []string
}

// Distance is {distance: miles}
type Distance struct {
	Miles decimal.Decimal
}

// Supplies is {needsSupplies: bool, selectedSupplies: {id: quantity}}
type Supplies struct {
	// NeedsSupplies is nil when the visitor did not answer the question
	NeedsSupplies *bool

	// Selected keeps the document order of selectedSupplies
	Selected []SupplyQuantity
}

// SupplyQuantity is one selected supply and its quantity
type SupplyQuantity struct {
	ID       string
	Quantity decimal.Decimal
}

func (SingleSelect) Kind() Kind { return KindSingleSelect }
func (MultiSelect) Kind() Kind  { return KindMultiSelect }
func (Distance) Kind() Kind     { return KindDistance }
func (Supplies) Kind() Kind     { return KindSupplies }

// Declined reports whether the visitor explicitly said no supplies are needed
func (s Supplies) Declined() bool {
	return s.NeedsSupplies != nil && !*s.NeedsSupplies
}

// Map holds the responses of one visitor keyed by step id
type Map map[string]Response

// SingleSelect returns the single-select response for step
func (m Map) SingleSelect(step string) (SingleSelect, bool) {
	r, ok := m[step].(SingleSelect)
	return r, ok
}

// MultiSelect returns the multi-select response for step
func (m Map) MultiSelect(step string) (MultiSelect, bool) {
	r, ok := m[step].(MultiSelect)
	return r, ok
}

// Distance returns the distance response for step
func (m Map) Distance(step string) (Distance, bool) {
	r, ok := m[step].(Distance)
	return r, ok
}

// Supplies returns the supply-selection response for step
func (m Map) Supplies(step string) (Supplies, bool) {
	r, ok := m[step].(Supplies)
	return r, ok
}
