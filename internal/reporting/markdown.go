package reporting

import (
	"fmt"
	"strings"
	"time"

	"equity-feature-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Feature Run Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Range: %s to %s | Duration: %s\n\n",
		r.RunID, r.Start.Format(domain.DateLayout), r.End.Format(domain.DateLayout), r.Duration.Round(time.Millisecond)))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Instruments Requested | %d |\n", r.Summary.Requested))
	sb.WriteString(fmt.Sprintf("| Succeeded | %d |\n", r.Summary.Succeeded))
	sb.WriteString(fmt.Sprintf("| Failed | %d |\n", r.Summary.Failed))
	sb.WriteString(fmt.Sprintf("| Rows | %d |\n", r.Summary.Rows))
	sb.WriteString("\n")

	// Instruments
	sb.WriteString("## Instruments\n\n")
	if len(r.Instruments) > 0 {
		sb.WriteString("| Instrument | Status | Rows | First | Last | Last Adj Close |\n")
		sb.WriteString("|------------|--------|------|-------|------|----------------|\n")
		for _, row := range r.Instruments {
			if row.Status != "ok" {
				sb.WriteString(fmt.Sprintf("| %s | %s (%s) | - | - | - | - |\n", row.InstrumentID, row.Status, row.Kind))
				continue
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s | %.4f |\n",
				row.InstrumentID, row.Status, row.Rows,
				row.FirstDate.Format(domain.DateLayout), row.LastDate.Format(domain.DateLayout), row.LastAdjClose))
		}
	} else {
		sb.WriteString("No instruments processed.\n")
	}
	sb.WriteString("\n")

	// Failures
	if len(r.Failures) > 0 {
		sb.WriteString("## Failures\n\n")
		for _, g := range r.Failures {
			sb.WriteString(fmt.Sprintf("### %s\n\n", g.Kind))
			for _, id := range g.Instruments {
				sb.WriteString(fmt.Sprintf("- %s: %s\n", id, errorFor(r, id)))
			}
			sb.WriteString("\n")
		}
	}

	// Coverage
	sb.WriteString("## Feature Coverage\n\n")
	if len(r.Coverage) > 0 {
		sb.WriteString("| Feature | Present | Total | Ratio |\n")
		sb.WriteString("|---------|---------|-------|-------|\n")
		for _, c := range r.Coverage {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.4f |\n", c.Feature, c.Present, c.Total, c.Ratio()))
		}
	} else {
		sb.WriteString("No features requested.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func errorFor(r *Report, id string) string {
	for _, row := range r.Instruments {
		if row.InstrumentID == id {
			return row.Error
		}
	}
	return ""
}
