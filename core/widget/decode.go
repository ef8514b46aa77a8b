package widget

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Parse decodes a configuration document. Only a document that is not a JSON
// object is rejected; malformed steps, options or numbers inside it are
// dropped so the engine falls back to its defaults for them.
func Parse(data []byte) (*Configuration, error) {
	cfg := &Configuration{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseYAML decodes a YAML configuration document by routing it through the
// JSON decoder, so both formats share the same leniency rules.
func ParseYAML(data []byte) (*Configuration, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	raw, err := json.Marshal(normalizeYAML(doc))
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	return Parse(raw)
}

// UnmarshalJSON implements the lenient decoding described on Parse. The
// legacy document keys steps_data and estimation_settings are accepted.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	root, ok := object(data)
	if !ok {
		return fmt.Errorf("widget configuration must be a JSON object")
	}

	*c = Configuration{
		ID:     scalarString(root["id"]),
		Name:   str(root["name"]),
		Key:    str(root["widget_key"]),
		Status: str(root["status"]),
		Steps:  map[string]Step{},
	}

	steps := root["steps"]
	if steps == nil {
		steps = root["steps_data"]
	}
	if stepDocs, ok := object(steps); ok {
		for id, raw := range stepDocs {
			if step, ok := decodeStep(raw); ok {
				c.Steps[id] = step
			}
		}
	}

	settings := root["settings"]
	if settings == nil {
		settings = root["estimation_settings"]
	}
	if doc, ok := object(settings); ok {
		c.Settings.TaxRate = number(doc["tax_rate"])
	}
	return nil
}

func decodeStep(raw json.RawMessage) (Step, bool) {
	doc, ok := object(raw)
	if !ok {
		return Step{}, false
	}
	step := Step{}
	var items []json.RawMessage
	if err := json.Unmarshal(doc["options"], &items); err != nil {
		return step, true
	}
	for _, item := range items {
		if opt, ok := decodeOption(item); ok {
			step.Options = append(step.Options, opt)
		}
	}
	return step, true
}

func decodeOption(raw json.RawMessage) (Option, bool) {
	doc, ok := object(raw)
	if !ok {
		return Option{}, false
	}
	var id string
	if err := json.Unmarshal(doc["id"], &id); err != nil {
		return Option{}, false
	}
	opt := Option{
		ID:          id,
		Title:       str(doc["title"]),
		Description: str(doc["description"]),
	}
	if est, ok := object(doc["estimation"]); ok {
		opt.Estimation = &Estimation{
			BasePrice:       number(est["base_price"]),
			PriceMultiplier: number(est["price_multiplier"]),
			PricingType:     PricingType(str(est["pricing_type"])),
			PricingValue:    number(est["pricing_value"]),
			CostPerMile:     number(est["cost_per_mile"]),
			MinimumDistance: number(est["minimum_distance"]),
		}
	}
	return opt, true
}

// object decodes raw as a JSON object; null and non-objects report false
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

func str(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// scalarString accepts a string or a number (numeric widget ids)
func scalarString(raw json.RawMessage) string {
	if s := str(raw); s != "" {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

// number decodes a JSON number or numeric string
func number(raw json.RawMessage) decimal.NullDecimal {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return decimal.NullDecimal{}
	}
	text := string(raw)
	if raw[0] == '"' {
		text = str(raw)
	}
	d, ok := ParseNumber(text)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// normalizeYAML converts map[any]any nodes into JSON-compatible maps
func normalizeYAML(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			node[k] = normalizeYAML(child)
		}
		return node
	case map[any]any:
		out := make(map[string]any, len(node))
		for k, child := range node {
			out[fmt.Sprint(k)] = normalizeYAML(child)
		}
		return out
	case []any:
		for i, child := range node {
			node[i] = normalizeYAML(child)
		}
		return node
	}
	return v
}
