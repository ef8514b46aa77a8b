package output

import (
	"io"

	"widget-estimate/core/ui"
)

// CLIFormatter renders a colored breakdown table
type CLIFormatter struct {
	noColor bool
}

// NewCLIFormatter creates a CLI formatter
func NewCLIFormatter(noColor bool) *CLIFormatter {
	return &CLIFormatter{noColor: noColor}
}

// Format returns FormatCLI
func (f *CLIFormatter) Format() Format {
	return FormatCLI
}

// Render writes the breakdown table and totals
func (f *CLIFormatter) Render(w io.Writer, report *Report) error {
	out := ui.NewWriter(w, f.noColor)

	title := "Estimate"
	if report.WidgetName != "" {
		title = report.WidgetName + " Estimate"
	}
	out.Header(title)

	result := report.Result
	table := out.NewTable("Item", "Description", "Price").AlignRight(2)
	for _, line := range result.Breakdown {
		table.AddRow(line.Item, line.Description, Money(line.Price))
	}
	table.Render()

	summary := out.NewEstimateSummary()
	summary.Subtotal = Money(result.Subtotal)
	summary.Tax = Money(result.TaxAmount)
	summary.Total = Money(result.TotalPrice) + " " + result.Currency.String()
	summary.Lines = len(result.Breakdown)
	summary.Render()

	if report.Metadata.InputHash != "" {
		out.Debug("input hash %s", report.Metadata.InputHash)
	}
	return nil
}
