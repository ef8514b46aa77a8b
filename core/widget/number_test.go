package widget

import "testing"

func TestParseNumberRange(t *testing.T) {
	tests := []struct {
		text string
		ok   bool
		want string
	}{
		{"12", true, "12"},
		{" 7.25 ", true, "7.25"},
		{"-5.5", true, "-5.5"},
		{"999999999999", true, "999999999999"},
		{"9.99e11", true, "999000000000"},
		{"0.000000000001", true, "0.000000000001"},
		{"0e99999999", true, "0"},
		{"1000000000000", false, ""},
		{"1e12", false, ""},
		{"-1e50000000", false, ""},
		{"1e50000000", false, ""},
		{"1e-50000000", false, ""},
		{"0.0000000000001", false, ""},
		{"NaN", false, ""},
		{"Inf", false, ""},
		{"far", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseNumber(tt.text)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v (%s)", tt.ok, ok, got)
			}
			if ok && got.String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
