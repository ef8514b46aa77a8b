// Package pricing - Estimate pricing engine
// Turns a widget configuration and a visitor's responses into an itemized
// breakdown and total. The engine is a pure function of its inputs and never
// fails; missing or malformed inputs contribute nothing or fall back to
// Defaults.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"widget-estimate/core/response"
	"widget-estimate/core/types"
	"widget-estimate/core/widget"
)

// Version identifies the pricing rules implemented by this engine
const Version = "1.0.0"

var hundred = decimal.NewFromInt(100)

// Engine computes estimates. The zero value is not usable; call New.
type Engine struct {
	defaults        Defaults
	supplies        SupplyCatalog
	multiplierSteps []string
}

// Option customises an Engine
type Option func(*Engine)

// WithDefaults replaces the fallback values
func WithDefaults(d Defaults) Option {
	return func(e *Engine) {
		e.defaults = d
	}
}

// WithSupplyCatalog replaces the packing-supply price list
func WithSupplyCatalog(c SupplyCatalog) Option {
	return func(e *Engine) {
		e.supplies = c
	}
}

// WithMultiplierSteps replaces the ordered list of multiplier steps
func WithMultiplierSteps(steps ...string) Option {
	return func(e *Engine) {
		e.multiplierSteps = append([]string(nil), steps...)
	}
}

// New creates an engine with the built-in defaults
func New(opts ...Option) *Engine {
	e := &Engine{
		defaults:        DefaultDefaults(),
		supplies:        DefaultSupplyCatalog(),
		multiplierSteps: append([]string(nil), widget.MultiplierSteps...),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Compute prices responses against cfg using the built-in defaults
func Compute(cfg *widget.Configuration, responses response.Map) *types.EstimateResult {
	return defaultEngine.Compute(cfg, responses)
}

// ledger accumulates breakdown lines and the running total
type ledger struct {
	lines []types.BreakdownLine
	total decimal.Decimal
}

func (l *ledger) add(line types.BreakdownLine) {
	l.lines = append(l.lines, line)
	l.total = l.total.Add(line.Price)
}

// Compute runs the seven pricing stages in order. cfg and responses may be
// nil or partially populated.
func (e *Engine) Compute(cfg *widget.Configuration, responses response.Map) *types.EstimateResult {
	l := &ledger{total: decimal.Zero}

	basePrice := e.applyBase(l, cfg, responses)
	e.applyMultipliers(l, cfg, responses, basePrice)
	e.applyChallenges(l, cfg, responses)
	e.applyTravel(l, cfg, responses)
	e.applyAdditionalServices(l, cfg, responses)
	e.applySupplies(l, cfg, responses)

	subtotal := l.total
	tax := e.applyTax(l, cfg)

	return &types.EstimateResult{
		TotalPrice: l.total.Round(2),
		BasePrice:  basePrice,
		Subtotal:   subtotal.Round(2),
		TaxAmount:  tax.Round(2),
		Breakdown:  l.lines,
		Currency:   e.defaults.Currency,
	}
}

// applyBase resolves the size-derived base price (stage 1)
func (e *Engine) applyBase(l *ledger, cfg *widget.Configuration, responses response.Map) decimal.Decimal {
	price := e.defaults.BasePrice
	label := e.defaults.BaseLabel

	if opt, ok := selectedOption(cfg, responses, widget.StepProjectScope); ok {
		label = opt.Title
		if opt.Estimation != nil && opt.Estimation.BasePrice.Valid {
			price = opt.Estimation.BasePrice.Decimal
		}
	}

	l.add(types.BreakdownLine{
		Item:        "Base Service",
		Description: label + " move - base service",
		Price:       price,
		Type:        types.LineBase,
	})
	return price
}

// applyMultipliers scales the base price by the product of the selected
// multiplier options (stage 2). Later stages add on top of the result.
func (e *Engine) applyMultipliers(l *ledger, cfg *widget.Configuration, responses response.Map, basePrice decimal.Decimal) {
	product := decimal.NewFromInt(1)
	var fragments []string

	for _, step := range e.multiplierSteps {
		opt, ok := selectedOption(cfg, responses, step)
		if !ok || opt.Estimation == nil || !opt.Estimation.PriceMultiplier.Valid {
			continue
		}
		m := opt.Estimation.PriceMultiplier.Decimal
		if m.Equal(decimal.NewFromInt(1)) {
			continue
		}
		title := opt.Title
		if title == "" {
			title = opt.ID
		}
		product = product.Mul(m)
		fragments = append(fragments, fmt.Sprintf("%s (%s%%)", title, m.Mul(hundred).String()))
	}

	if product.Equal(decimal.NewFromInt(1)) {
		return
	}
	multiplied := basePrice.Mul(product)
	l.add(types.BreakdownLine{
		Item:        "Service Adjustments",
		Description: strings.Join(fragments, ", "),
		Price:       multiplied.Sub(basePrice),
		Type:        types.LineAdjustment,
	})
}

// applyChallenges adds pickup then destination access fees (stage 3).
// Percentage and discount fees are taken from the total at stage entry.
func (e *Engine) applyChallenges(l *ledger, cfg *widget.Configuration, responses response.Map) {
	base := l.total
	locations := []struct {
		step  string
		label string
	}{
		{widget.StepOriginChallenges, "Pickup"},
		{widget.StepTargetChallenges, "Destination"},
	}

	for _, loc := range locations {
		opt, ok := selectedOption(cfg, responses, loc.step)
		if !ok || opt.Estimation == nil {
			continue
		}
		value := opt.Estimation.Value()
		line := types.BreakdownLine{
			Item:        loc.label + " - " + opt.Title,
			Description: opt.Description,
			Type:        types.LineChallenge,
		}
		switch opt.Estimation.Type() {
		case widget.PricingFixed, widget.PricingPerUnit:
			line.Price = value
		case widget.PricingPercentage:
			line.Price = base.Mul(value)
		case widget.PricingDiscount:
			line.Price = base.Mul(value)
			line.Type = types.LineDiscount
		default:
			continue
		}
		l.add(line)
	}
}

// applyTravel charges the distance beyond the configured minimum (stage 4)
func (e *Engine) applyTravel(l *ledger, cfg *widget.Configuration, responses response.Map) {
	d, ok := responses.Distance(widget.StepDistanceCalculation)
	if !ok {
		return
	}

	costPerMile := e.defaults.CostPerMile
	minimum := e.defaults.MinimumDistance
	if step, ok := cfg.Step(widget.StepDistanceCalculation); ok {
		if est, ok := step.FirstEstimation(); ok {
			if est.CostPerMile.Valid {
				costPerMile = est.CostPerMile.Decimal
			}
			if est.MinimumDistance.Valid {
				minimum = est.MinimumDistance.Decimal
			}
		}
	}

	if d.Miles.LessThanOrEqual(minimum) {
		return
	}
	price := d.Miles.Mul(costPerMile)
	if !price.IsPositive() {
		return
	}
	l.add(types.BreakdownLine{
		Item:        "Travel Distance",
		Description: fmt.Sprintf("%s miles × $%s/mile", groupThousands(d.Miles.StringFixed(1)), costPerMile.String()),
		Price:       price,
		Type:        types.LineTravel,
	})
}

// applyAdditionalServices adds one line per selected service in selection
// order (stage 5). Percentages use the total at stage entry.
func (e *Engine) applyAdditionalServices(l *ledger, cfg *widget.Configuration, responses response.Map) {
	sel, ok := responses.MultiSelect(widget.StepAdditionalServices)
	if !ok {
		return
	}
	step, ok := cfg.Step(widget.StepAdditionalServices)
	if !ok {
		return
	}

	base := l.total
	for _, id := range sel.Selections {
		opt, ok := step.Option(id)
		if !ok {
			continue
		}
		var price decimal.Decimal
		switch opt.Estimation.Type() {
		case widget.PricingFixed:
			price = opt.Estimation.Value()
		case widget.PricingPercentage:
			price = base.Mul(opt.Estimation.Value())
		default:
			continue
		}
		l.add(types.BreakdownLine{
			Item:        opt.Title,
			Description: opt.Description,
			Price:       price,
			Type:        types.LineAdditional,
		})
	}
}

// applySupplies prices packing supplies from the catalog (stage 6)
func (e *Engine) applySupplies(l *ledger, cfg *widget.Configuration, responses response.Map) {
	sel, ok := responses.Supplies(widget.StepSupplySelection)
	if !ok || sel.Declined() || len(sel.Selected) == 0 {
		return
	}

	for _, q := range sel.Selected {
		if !q.Quantity.IsPositive() {
			continue
		}
		supply, ok := e.supplies[q.ID]
		if !ok {
			continue
		}
		qty := q.Quantity.String()
		l.add(types.BreakdownLine{
			Item:        fmt.Sprintf("%s (%sx)", supply.Name, qty),
			Description: fmt.Sprintf("%s - $%s each × %s", supply.Name, supply.UnitPrice.StringFixed(2), qty),
			Price:       supply.UnitPrice.Mul(q.Quantity),
			Type:        types.LineSupply,
		})
	}
}

// applyTax adds the tax line on the full pre-tax total (stage 7)
func (e *Engine) applyTax(l *ledger, cfg *widget.Configuration) decimal.Decimal {
	rate := cfg.TaxRate()
	if !rate.IsPositive() {
		return decimal.Zero
	}
	tax := l.total.Mul(rate)
	l.add(types.BreakdownLine{
		Item:        "Tax",
		Description: rate.Mul(hundred).StringFixed(1) + "% tax",
		Price:       tax,
		Type:        types.LineTax,
	})
	return tax
}

// selectedOption resolves the option a single-select response points at
func selectedOption(cfg *widget.Configuration, responses response.Map, step string) (widget.Option, bool) {
	sel, ok := responses.SingleSelect(step)
	if !ok {
		return widget.Option{}, false
	}
	def, ok := cfg.Step(step)
	if !ok {
		return widget.Option{}, false
	}
	return def.Option(sel.SelectedOption)
}

// groupThousands inserts comma separators into the integer part of a
// fixed-point decimal string, e.g. 1234.5 becomes 1,234.5.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
