package tui

import (
	"fmt"
	"strings"

	"github.com/gcsguardian/guardian/internal/render"
)

// detailHeight is the number of lines reserved for the detail panel.
const detailHeight = 12

// renderDetail produces the detail view for the selected card. copyLabel is
// the current label of the copy control.
func renderDetail(c *card, placeholder, copyLabel string, width int) string {
	if c == nil {
		if placeholder != "" {
			return detailBox.Width(width).Render(placeholder)
		}
		return detailBox.Width(width).Render("No bucket selected")
	}

	var b strings.Builder
	b.WriteString(c.Bucket)
	b.WriteString("\n")

	switch c.Status {
	case render.StatusLoading:
		b.WriteString(mutedText.Render(render.LoadingText))
	case render.StatusError:
		b.WriteString(errorText.Render(c.Error))
	default:
		risk := riskStyle(c.Plan.RiskLevel()).Render(render.RiskLabel(c.Plan))
		b.WriteString(fmt.Sprintf("Overall Risk: %s\n", risk))

		if len(c.Plan.Reasons) > 0 {
			b.WriteString("Why risky:\n")
			for _, r := range c.Plan.Reasons {
				b.WriteString(fmt.Sprintf("  • %s\n", r))
			}
		}
		if len(c.Plan.RecommendedFixes) > 0 {
			b.WriteString("Recommended fixes:\n")
			for _, f := range c.Plan.RecommendedFixes {
				b.WriteString(fmt.Sprintf("  • %s\n", f))
			}
		}
		if block := c.Plan.CommandBlock(); block != "" {
			b.WriteString("Commands:\n")
			b.WriteString(commandText.Render(block))
			b.WriteString("\n")
			if copyLabel == render.CopiedLabel {
				b.WriteString(copiedText.Render(copyLabel))
			} else {
				b.WriteString(fmt.Sprintf("[c] %s", copyLabel))
			}
		}
	}

	return detailBox.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}
