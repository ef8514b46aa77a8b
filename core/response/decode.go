package response

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"widget-estimate/core/widget"
)

// ErrNotObject is returned when a responses payload is not a JSON object
var ErrNotObject = errors.New("responses must be a JSON object")

// stepKinds maps the priced steps to the response variant they record.
// Steps not listed here are decoded by shape.
var stepKinds = map[string]Kind{
	widget.StepProjectScope:        KindSingleSelect,
	widget.StepServiceSelection:    KindSingleSelect,
	widget.StepServiceType:         KindSingleSelect,
	widget.StepLocationType:        KindSingleSelect,
	widget.StepTimeSelection:       KindSingleSelect,
	widget.StepOriginChallenges:    KindSingleSelect,
	widget.StepTargetChallenges:    KindSingleSelect,
	widget.StepDistanceCalculation: KindDistance,
	widget.StepAdditionalServices:  KindMultiSelect,
	widget.StepSupplySelection:     KindSupplies,
}

// KindFor returns the variant a step records, if the step is known
func KindFor(step string) (Kind, bool) {
	k, ok := stepKinds[step]
	return k, ok
}

// Parse decodes a responses payload. It fails only when the payload is not a
// JSON object; malformed per-step values are left out of the map.
func Parse(data []byte) (Map, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, ErrNotObject
	}
	var steps map[string]json.RawMessage
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, ErrNotObject
	}
	return FromRaw(steps), nil
}

// FromRaw decodes already split per-step documents
func FromRaw(steps map[string]json.RawMessage) Map {
	out := make(Map, len(steps))
	for step, raw := range steps {
		if r, ok := Decode(step, raw); ok {
			out[step] = r
		}
	}
	return out
}

// Decode decodes one step's response. Known steps are decoded as the variant
// they record; unknown steps are matched by shape.
func Decode(step string, raw json.RawMessage) (Response, bool) {
	doc, ok := object(raw)
	if !ok {
		return nil, false
	}
	if kind, known := stepKinds[step]; known {
		return decodeKind(kind, doc)
	}
	for _, kind := range []Kind{KindSingleSelect, KindMultiSelect, KindDistance, KindSupplies} {
		if r, ok := decodeKind(kind, doc); ok {
			return r, true
		}
	}
	return nil, false
}

func decodeKind(kind Kind, doc map[string]json.RawMessage) (Response, bool) {
	switch kind {
	case KindSingleSelect:
		var id string
		if err := json.Unmarshal(doc["selectedOption"], &id); err != nil || isNull(doc["selectedOption"]) {
			return nil, false
		}
		return SingleSelect{SelectedOption: id}, true

	case KindMultiSelect:
		return decodeMultiSelect(doc["selections"])

	case KindDistance:
		miles, ok := number(doc["distance"])
		if !ok {
			return nil, false
		}
		return Distance{Miles: miles}, true

	case KindSupplies:
		return decodeSupplies(doc)
	}
	return nil, false
}

func decodeMultiSelect(raw json.RawMessage) (Response, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || isNull(raw) {
		return nil, false
	}
	out := MultiSelect{Selections: make([]string, 0, len(items))}
	for _, item := range items {
		var id string
		if err := json.Unmarshal(item, &id); err == nil && !isNull(item) {
			out.Selections = append(out.Selections, id)
		}
	}
	return out, true
}

func decodeSupplies(doc map[string]json.RawMessage) (Response, bool) {
	_, hasNeeds := doc["needsSupplies"]
	_, hasSelected := doc["selectedSupplies"]
	if !hasNeeds && !hasSelected {
		return nil, false
	}

	out := Supplies{}
	var needs bool
	if err := json.Unmarshal(doc["needsSupplies"], &needs); err == nil && !isNull(doc["needsSupplies"]) {
		out.NeedsSupplies = &needs
	}
	out.Selected = orderedQuantities(doc["selectedSupplies"])
	return out, true
}

// orderedQuantities walks a {id: quantity} object keeping key order.
// Entries with a non-numeric quantity are skipped.
func orderedQuantities(raw json.RawMessage) []SupplyQuantity {
	if _, ok := object(raw); !ok {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil
	}
	var out []SupplyQuantity
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return out
		}
		if qty, ok := number(value); ok {
			out = append(out, SupplyQuantity{ID: key, Quantity: qty})
		}
	}
	return out
}

func object(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

// number accepts a JSON number or a numeric string
func number(raw json.RawMessage) (decimal.Decimal, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return decimal.Decimal{}, false
	}
	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Decimal{}, false
		}
		text = s
	}
	return widget.ParseNumber(text)
}
