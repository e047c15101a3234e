// Package observability provides logging, metrics and formatted CLI output.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/creative-compliance/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// PrintReport outputs a compliance report with its findings
func (p *Printer) PrintReport(report types.ComplianceReport) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:   %s\n", statusLabel(report.Status)))
	sb.WriteString(fmt.Sprintf("Errors:   %d\n", len(report.Errors)))
	sb.WriteString(fmt.Sprintf("Warnings: %d\n", len(report.Warnings)))

	writeFindings := func(icon string, vs []types.Violation) {
		for _, v := range vs {
			sb.WriteString("\n")
			label := v.CheckID
			if v.Element != "" {
				label += " · " + v.Element
			}
			sb.WriteString(fmt.Sprintf("%s %s\n", icon, label))
			sb.WriteString(fmt.Sprintf("  %s\n", v.Problem))
			if v.Suggestion != "" {
				sb.WriteString(fmt.Sprintf("  → %s\n", v.Suggestion))
			}
		}
	}
	writeFindings("✗", report.Errors)
	writeFindings("⚠", report.Warnings)

	if len(report.Strengths) > 0 {
		sb.WriteString("\nStrengths:\n")
		count := min(len(report.Strengths), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", report.Strengths[i]))
		}
		if len(report.Strengths) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Strengths)-maxItemsToShow))
		}
	}

	p.printBox("COMPLIANCE REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

func statusLabel(s types.ComplianceStatus) string {
	switch s {
	case types.StatusCompliant:
		return "✅ compliant"
	case types.StatusNeedsReview:
		return "⚠ needs review"
	case types.StatusNonCompliant:
		return "✗ non-compliant"
	default:
		return string(s)
	}
}

// PrintVariants outputs a summary of generated creative variants
func (p *Printer) PrintVariants(variants []types.Variant) {
	if len(variants) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generated %d variants:\n\n", len(variants)))
	for i, v := range variants {
		sb.WriteString(fmt.Sprintf("#%d  %s (%s, %s)\n", i+1, v.ID, v.Tone, v.PriceType))
		sb.WriteString(fmt.Sprintf("    %s\n", v.Headline))
		if v.Subheadline != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", v.Subheadline))
		}
		if v.Tag != "" {
			sb.WriteString(fmt.Sprintf("    [%s]\n", v.Tag))
		}
		if i < len(variants)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("CREATIVE VARIANTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFormats lists the supported ad formats
func (p *Printer) PrintFormats(formats []types.Format) {
	var sb strings.Builder
	for _, f := range formats {
		layout := "vertical"
		if f.IsHorizontal() {
			layout = "horizontal"
		}
		sb.WriteString(fmt.Sprintf("%-16s %4dx%-4d %-6s %s\n", f.ID, f.Width, f.Height, f.Ratio, layout))
	}
	p.printBox("FORMATS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs key/value lines under a title, in the given order
func (p *Printer) PrintSummary(title string, keys []string, values map[string]string) {
	var sb strings.Builder
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("%-*s  %s\n", width+1, k+":", values[k]))
	}
	p.printBox(strings.ToUpper(title), strings.TrimSuffix(sb.String(), "\n"))
}
