// Package ui - Terminal user interface
// Rich CLI output with tables, colors and an estimate summary box.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Colors for terminal output
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
)

// Writer is the UI output destination
type Writer struct {
	out       io.Writer
	noColor   bool
	verbosity int
}

// NewWriter creates a UI writer
func NewWriter(out io.Writer, noColor bool) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{
		out:       out,
		noColor:   noColor,
		verbosity: 1,
	}
}

// SetVerbosity sets output verbosity (0=quiet, 1=normal, 2=verbose)
func (w *Writer) SetVerbosity(level int) {
	w.verbosity = level
}

// color applies color if enabled
func (w *Writer) color(c, text string) string {
	if w.noColor {
		return text
	}
	return c + text + Reset
}

// Print writes formatted text
func (w *Writer) Print(format string, args ...any) {
	fmt.Fprintf(w.out, format, args...)
}

// Println writes a line with newline
func (w *Writer) Println(format string, args ...any) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Header prints a section header
func (w *Writer) Header(title string) {
	w.Println("")
	w.Println("%s", w.color(Bold+Cyan, "━━━ "+title+" ━━━"))
	w.Println("")
}

// SubHeader prints a subsection header
func (w *Writer) SubHeader(title string) {
	w.Println("%s", w.color(Bold, "▸ "+title))
}

// Success prints a success message
func (w *Writer) Success(format string, args ...any) {
	w.Println("%s%s", w.color(Green, "✓ "), fmt.Sprintf(format, args...))
}

// Warning prints a warning
func (w *Writer) Warning(format string, args ...any) {
	w.Println("%s%s", w.color(Yellow, "⚠ "), fmt.Sprintf(format, args...))
}

// Error prints an error
func (w *Writer) Error(format string, args ...any) {
	w.Println("%s%s", w.color(Red, "✗ "), fmt.Sprintf(format, args...))
}

// Info prints an info message
func (w *Writer) Info(format string, args ...any) {
	if w.verbosity < 1 {
		return
	}
	w.Println("%s%s", w.color(Blue, "ℹ "), fmt.Sprintf(format, args...))
}

// Debug prints a debug message
func (w *Writer) Debug(format string, args ...any) {
	if w.verbosity < 2 {
		return
	}
	w.Println("%s", w.color(Dim, "  "+fmt.Sprintf(format, args...)))
}

// Table renders a table
type Table struct {
	w       *Writer
	headers []string
	rows    [][]string
	widths  []int
	right   map[int]bool
}

// NewTable creates a table
func (w *Writer) NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	return &Table{
		w:       w,
		headers: headers,
		rows:    [][]string{},
		widths:  widths,
		right:   map[int]bool{},
	}
}

// AlignRight right-aligns a column, used for amounts
func (t *Table) AlignRight(col int) *Table {
	t.right[col] = true
	return t
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	// Pad or truncate cells to match header count
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
		if n := utf8.RuneCountInString(row[i]); n > t.widths[i] {
			t.widths[i] = n
		}
	}
	t.rows = append(t.rows, row)
}

// Render prints the table
func (t *Table) Render() {
	t.w.Println("%s", t.w.color(Bold, t.line(t.headers)))

	sep := make([]string, len(t.widths))
	for i, w := range t.widths {
		sep[i] = strings.Repeat("─", w)
	}
	t.w.Println("%s", strings.Join(sep, "─┼─"))

	for _, row := range t.rows {
		t.w.Println("%s", t.line(row))
	}
}

func (t *Table) line(cells []string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		pad := strings.Repeat(" ", t.widths[i]-utf8.RuneCountInString(cell))
		if t.right[i] {
			parts[i] = pad + cell
		} else {
			parts[i] = cell + pad
		}
	}
	return strings.TrimRight(strings.Join(parts, " │ "), " ")
}

// EstimateSummary renders the totals box under a breakdown
type EstimateSummary struct {
	w        *Writer
	Total    string
	Subtotal string
	Tax      string
	Lines    int
}

// NewEstimateSummary creates an estimate summary
func (w *Writer) NewEstimateSummary() *EstimateSummary {
	return &EstimateSummary{w: w}
}

// Render prints the estimate summary
func (s *EstimateSummary) Render() {
	s.w.Println("")
	s.w.Println("%s", s.w.color(Bold, "╭─────────────────────────────────────╮"))
	s.w.Println("%s%s%s", s.w.color(Bold, "│"), s.w.color(Dim, fmt.Sprintf("  Subtotal:    %-22s", s.Subtotal)), s.w.color(Bold, "│"))
	s.w.Println("%s%s%s", s.w.color(Bold, "│"), s.w.color(Dim, fmt.Sprintf("  Tax:         %-22s", s.Tax)), s.w.color(Bold, "│"))
	s.w.Println("%s%s%s", s.w.color(Bold, "│"), s.w.color(Green, fmt.Sprintf("  Total:       %-22s", s.Total)), s.w.color(Bold, "│"))
	s.w.Println("%s", s.w.color(Bold, "╰─────────────────────────────────────╯"))
	s.w.Println("%s", s.w.color(Dim, fmt.Sprintf("  Line items: %d", s.Lines)))
}
