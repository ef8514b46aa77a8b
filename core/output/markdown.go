package output

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownFormatter renders the breakdown as a markdown table
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a markdown formatter
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format returns FormatMarkdown
func (f *MarkdownFormatter) Format() Format {
	return FormatMarkdown
}

// Render writes a heading, the breakdown table and the totals
func (f *MarkdownFormatter) Render(w io.Writer, report *Report) error {
	var b strings.Builder

	title := "Estimate"
	if report.WidgetName != "" {
		title = report.WidgetName + " Estimate"
	}
	fmt.Fprintf(&b, "## %s\n\n", title)

	result := report.Result
	b.WriteString("| Item | Description | Price |\n")
	b.WriteString("|------|-------------|------:|\n")
	for _, line := range result.Breakdown {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", escapeCell(line.Item), escapeCell(line.Description), Money(line.Price))
	}

	fmt.Fprintf(&b, "\n**Subtotal:** %s  \n", Money(result.Subtotal))
	fmt.Fprintf(&b, "**Tax:** %s  \n", Money(result.TaxAmount))
	fmt.Fprintf(&b, "**Total:** %s %s\n", Money(result.TotalPrice), result.Currency)

	if report.Metadata.InputHash != "" {
		fmt.Fprintf(&b, "\n<sub>input %s · engine %s</sub>\n", report.Metadata.InputHash[:min(12, len(report.Metadata.InputHash))], report.Metadata.EngineVersion)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
