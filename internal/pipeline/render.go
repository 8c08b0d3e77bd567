package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ppiankov/ownfunds/internal/model"
)

// RowLookup resolves row metadata for rendering
type RowLookup interface {
	Row(id string) (model.FormRow, bool)
}

// Renderer writes reports as JSON, Markdown and a terminal summary
type Renderer struct {
	rows RowLookup
}

// NewRenderer creates a renderer that labels rows from rows
func NewRenderer(rows RowLookup) *Renderer {
	return &Renderer{rows: rows}
}

// RenderJSON writes the report as indented JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, report) })
}

// WriteJSON writes the report as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteMarkdown(w, report) })
}

// WriteMarkdown writes the populated template, issues and calculation trail
func (r *Renderer) WriteMarkdown(w io.Writer, report *model.Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Own Funds\n\n", report.Template)
	fmt.Fprintf(&b, "- Report: `%s`\n", report.ID)
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Extraction: %s", report.Extraction.Provider)
	if report.Extraction.Model != "" {
		fmt.Fprintf(&b, " / %s", report.Extraction.Model)
	}
	if report.Extraction.Cached {
		b.WriteString(" (cached)")
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "> %s\n\n", strings.ReplaceAll(strings.TrimSpace(report.Scenario), "\n", "\n> "))

	b.WriteString("| Row | Description | Amount | Sources |\n")
	b.WriteString("|-----|-------------|-------:|---------|\n")
	for _, rv := range report.Rows {
		row, _ := r.rows.Row(rv.RowID)
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			rv.RowID, escapeCell(row.Description),
			FormatMoney(rv.AmountMinorUnits, report.Currency, row.Role == model.RoleDeduction),
			escapeCell(sources(rv, row)))
	}

	b.WriteString("\n## Calculation\n\n")
	for _, tr := range report.Explanation.Trails {
		fmt.Fprintf(&b, "- Row %s: `%s`", tr.RowID, tr.Expression)
		if s := tr.Denomination.Suffix(); s != "" {
			fmt.Fprintf(&b, " (%s%s)", CurrencySymbol(report.Currency), s)
		}
		b.WriteString("\n")
	}
	if len(report.Explanation.Trails) == 0 {
		fmt.Fprintf(&b, "- `%s`\n", report.Explanation.Trail)
	}

	if len(report.Explanation.RulesApplied) > 0 {
		b.WriteString("\n## Rules applied\n\n")
		for _, line := range report.Explanation.RulesApplied {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	b.WriteString("\n## Issues\n\n")
	if len(report.Issues) == 0 {
		b.WriteString("None.\n")
	}
	for _, issue := range report.Issues {
		fmt.Fprintf(&b, "- **%s** %s\n", issue.Kind, issue.Detail)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSummary prints a short summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	r.WriteSummary(os.Stdout, report)
}

// WriteSummary writes a terminal-friendly summary
func (r *Renderer) WriteSummary(w io.Writer, report *model.Report) {
	fmt.Fprintf(w, "\n%s  %s\n", report.Template, report.ID)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	for _, rv := range report.Rows {
		row, _ := r.rows.Row(rv.RowID)
		fmt.Fprintf(w, "  %s  %-42s %18s\n", rv.RowID, truncate(row.Description, 42),
			FormatMoney(rv.AmountMinorUnits, report.Currency, row.Role == model.RoleDeduction))
	}

	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "  Trail: %s\n", report.Explanation.Trail)

	if report.Valid() {
		fmt.Fprintln(w, "  ✓ No issues")
		return
	}
	fmt.Fprintf(w, "  ⚠ %d issue(s)\n", len(report.Issues))
	for _, issue := range report.Issues {
		fmt.Fprintf(w, "    - %s: %s\n", issue.Kind, issue.Detail)
	}
}

// FormatMoney renders minor units in major units with thousands separators.
// Negative amounts and deduction rows are shown in parentheses.
func FormatMoney(minorUnits int64, currency string, deduction bool) string {
	neg := minorUnits < 0
	abs := minorUnits
	if neg {
		abs = -abs
	}

	major := humanize.Comma(abs / 100)
	if pence := abs % 100; pence != 0 {
		major = fmt.Sprintf("%s.%02d", major, pence)
	}
	s := CurrencySymbol(currency) + major

	if neg || deduction {
		return "(" + s + ")"
	}
	return s
}

// CurrencySymbol maps an ISO code to its symbol, or "<code> " if unknown
func CurrencySymbol(code string) string {
	switch strings.ToUpper(code) {
	case "GBP":
		return "£"
	case "EUR":
		return "€"
	case "USD":
		return "$"
	case "":
		return ""
	default:
		return strings.ToUpper(code) + " "
	}
}

func sources(rv model.RowValue, row model.FormRow) string {
	if row.Role == model.RoleTotal {
		return fmt.Sprintf("sum of %d contribution(s)", len(rv.Contributions))
	}
	parts := make([]string, 0, len(rv.Contributions))
	for _, c := range rv.Contributions {
		if c.Fact.SourceText != "" {
			parts = append(parts, c.Fact.SourceText)
		} else {
			parts = append(parts, c.Fact.Concept)
		}
	}
	return strings.Join(parts, "; ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
