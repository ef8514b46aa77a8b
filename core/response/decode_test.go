package response

import (
	"testing"
)

func TestParseVariantsByStep(t *testing.T) {
	m, err := Parse([]byte(`{
		"project-scope": {"selectedOption": "2br", "title": "2 Bedroom"},
		"additional-services": {"selections": ["packing", 3, null, "insurance"]},
		"distance-calculation": {"distance": 14.5, "pickup": "1 Main St"},
		"supply-selection": {"needsSupplies": true, "selectedSupplies": {"small-box": 4, "tape": "2", "bad": "lots"}}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	single, ok := m.SingleSelect("project-scope")
	if !ok || single.SelectedOption != "2br" {
		t.Errorf("unexpected single select: %+v", m["project-scope"])
	}

	multi, ok := m.MultiSelect("additional-services")
	if !ok || len(multi.Selections) != 2 || multi.Selections[0] != "packing" || multi.Selections[1] != "insurance" {
		t.Errorf("unexpected multi select: %+v", m["additional-services"])
	}

	dist, ok := m.Distance("distance-calculation")
	if !ok || dist.Miles.String() != "14.5" {
		t.Errorf("unexpected distance: %+v", m["distance-calculation"])
	}

	supplies, ok := m.Supplies("supply-selection")
	if !ok {
		t.Fatalf("supplies missing")
	}
	if supplies.Declined() {
		t.Error("supplies should not be declined")
	}
	if len(supplies.Selected) != 2 {
		t.Fatalf("expected 2 supply entries, got %d", len(supplies.Selected))
	}
	if supplies.Selected[0].ID != "small-box" || supplies.Selected[1].ID != "tape" {
		t.Errorf("supply order not preserved: %+v", supplies.Selected)
	}
}

func TestMalformedStepsAreAbsent(t *testing.T) {
	m, err := Parse([]byte(`{
		"project-scope": {"selectedOption": 12},
		"service-type": {"selectedOption": null},
		"time-selection": "morning",
		"additional-services": {"selections": "packing"},
		"distance-calculation": {"distance": "far"},
		"supply-selection": {"somethingElse": true}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected every step to be absent, got %+v", m)
	}
}

func TestWrongVariantDoesNotMatch(t *testing.T) {
	m, err := Parse([]byte(`{"distance-calculation": {"selectedOption": "route"}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := m.SingleSelect("distance-calculation"); ok {
		t.Error("distance step must not decode as a single select")
	}
	if _, ok := m.Distance("distance-calculation"); ok {
		t.Error("distance without a distance field must be absent")
	}
}

func TestUnknownStepsDecodeByShape(t *testing.T) {
	m, err := Parse([]byte(`{
		"season": {"selectedOption": "peak"},
		"extras": {"selections": ["a"]},
		"contact": {"name": "Jo"}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if r, ok := m["season"]; !ok || r.Kind() != KindSingleSelect {
		t.Errorf("expected season to be a single select, got %+v", r)
	}
	if r, ok := m["extras"]; !ok || r.Kind() != KindMultiSelect {
		t.Errorf("expected extras to be a multi select, got %+v", r)
	}
	if _, ok := m["contact"]; ok {
		t.Error("expected contact to be absent")
	}
}

func TestDeclinedSupplies(t *testing.T) {
	m, err := Parse([]byte(`{"supply-selection": {"needsSupplies": false}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s, ok := m.Supplies("supply-selection")
	if !ok || !s.Declined() {
		t.Errorf("expected declined supplies, got %+v", s)
	}
}

func TestParseRejectsNonObjectPayload(t *testing.T) {
	for _, doc := range []string{``, `[]`, `"x"`, `null`, `{bad json`} {
		if _, err := Parse([]byte(doc)); err != ErrNotObject {
			t.Errorf("payload %q: expected ErrNotObject, got %v", doc, err)
		}
	}
}

func TestOutOfRangeNumbersAreAbsent(t *testing.T) {
	m, err := Parse([]byte(`{
		"distance-calculation": {"distance": "1e50000000"},
		"supply-selection": {"selectedSupplies": {"tape": 1e400, "small-box": "2e-50000000", "large-box": 3}}
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := m.Distance("distance-calculation"); ok {
		t.Error("distance with an extreme exponent must be absent")
	}
	supplies, ok := m.Supplies("supply-selection")
	if !ok {
		t.Fatal("expected supplies")
	}
	if len(supplies.Selected) != 1 || supplies.Selected[0].ID != "large-box" {
		t.Errorf("expected only the in-range quantity, got %+v", supplies.Selected)
	}
}
