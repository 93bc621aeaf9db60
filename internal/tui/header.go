package tui

import (
	"fmt"
	"strings"

	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/render"
)

// headerHeight is the number of terminal lines the header occupies.
const headerHeight = 5

// renderHeader produces the header from the summary line and card states.
func renderHeader(summary string, cards []card, fromCache, done bool, width int) string {
	var b strings.Builder

	// Line 1: title and summary
	if summary == "" {
		summary = "Loading scan…"
	}
	b.WriteString(fmt.Sprintf("GCS Guardian  %s", summary))
	b.WriteString("\n")

	// Line 2: risk breakdown
	counts := make(map[string]int)
	var pending, failed int
	for _, c := range cards {
		switch c.Status {
		case render.StatusLoading:
			pending++
		case render.StatusError:
			failed++
		default:
			counts[c.Plan.RiskLevel()]++
		}
	}
	parts := make([]string, 0, 5)
	for _, risk := range []string{models.RiskCritical, models.RiskHigh, models.RiskMedium, models.RiskLow, models.RiskUnknown} {
		if n := counts[risk]; n > 0 {
			label := fmt.Sprintf("%s:%d", strings.ToUpper(risk[:1]), n)
			parts = append(parts, riskStyle(risk).Render(label))
		}
	}
	if failed > 0 {
		parts = append(parts, errorText.Render(fmt.Sprintf("Failed:%d", failed)))
	}
	b.WriteString(strings.Join(parts, "  "))
	b.WriteString("\n")

	// Line 3: progress
	var status []string
	if fromCache {
		status = append(status, "cached rows")
	}
	switch {
	case pending > 0:
		status = append(status, fmt.Sprintf("%d pending", pending))
	case done:
		status = append(status, "done")
	}
	b.WriteString(mutedText.Render(strings.Join(status, "  ")))

	return headerBox.Width(width).Render(b.String())
}
