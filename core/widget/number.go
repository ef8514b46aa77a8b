package widget

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Accepted numbers satisfy |x| < 10^MaxIntegerDigits and carry at most
// MaxFractionDigits decimal places.
const (
	MaxIntegerDigits  = 12
	MaxFractionDigits = 12
)

// ParseNumber parses numeric text into a decimal within the accepted range.
// Values outside the range report false, as does text that is not a number.
func ParseNumber(text string) (decimal.Decimal, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return bounded(d)
}

// bounded inspects only the exponent and digit count so that an extreme
// exponent is rejected without expanding the coefficient.
func bounded(d decimal.Decimal) (decimal.Decimal, bool) {
	if d.IsZero() {
		return decimal.Zero, true
	}
	exp := int64(d.Exponent())
	if exp < -MaxFractionDigits {
		return decimal.Decimal{}, false
	}
	if d.NumDigits() > MaxIntegerDigits+MaxFractionDigits || int64(d.NumDigits())+exp > MaxIntegerDigits {
		return decimal.Decimal{}, false
	}
	return d, true
}
