package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gcsguardian/guardian/internal/models"
)

// TextTarget streams results to a writer as they arrive.
type TextTarget struct {
	writer io.Writer
}

// NewTextTarget creates a text target
func NewTextTarget(w io.Writer) *TextTarget {
	return &TextTarget{writer: w}
}

// ObserveScan notes when rows came from the local cache.
func (t *TextTarget) ObserveScan(scan *models.ScanResult) {
	if scan != nil && scan.FromCache {
		fmt.Fprintf(t.writer, "%s\n", color.YellowString("Scan not found on the backend; showing cached rows."))
	}
}

func (t *TextTarget) Summary(text string) {
	fmt.Fprintf(t.writer, "%s\n\n", color.New(color.Bold).Sprint(text))
}

func (t *TextTarget) Placeholder(text string) {
	fmt.Fprintf(t.writer, "%s\n", text)
}

func (t *TextTarget) AddCard(bucket string) Card {
	fmt.Fprintf(t.writer, "%s\n", color.CyanString("▸ %s", bucket))
	fmt.Fprintf(t.writer, "  %s\n", color.HiBlackString(LoadingText))
	return &textCard{writer: t.writer}
}

type textCard struct {
	writer io.Writer
}

func (c *textCard) ShowPlan(plan *models.RemediationPlan) {
	if plan == nil {
		plan = &models.RemediationPlan{}
	}
	fmt.Fprintf(c.writer, "  Overall Risk: %s\n", riskColor(plan.RiskLevel())("%s", RiskLabel(plan)))

	if len(plan.Reasons) > 0 {
		fmt.Fprintf(c.writer, "  Why risky:\n")
		for _, r := range plan.Reasons {
			fmt.Fprintf(c.writer, "    - %s\n", r)
		}
	}

	if len(plan.RecommendedFixes) > 0 {
		fmt.Fprintf(c.writer, "  Recommended fixes:\n")
		for _, f := range plan.RecommendedFixes {
			fmt.Fprintf(c.writer, "    - %s\n", f)
		}
	}

	if block := plan.CommandBlock(); block != "" {
		fmt.Fprintf(c.writer, "  Commands:\n")
		for _, line := range strings.Split(block, "\n") {
			if line == "" {
				fmt.Fprintln(c.writer)
				continue
			}
			fmt.Fprintf(c.writer, "    %s\n", line)
		}
	}

	fmt.Fprintln(c.writer)
}

func (c *textCard) ShowError(msg string) {
	fmt.Fprintf(c.writer, "  %s\n\n", color.RedString(msg))
}

func riskColor(level string) func(format string, a ...interface{}) string {
	switch level {
	case models.RiskCritical:
		return color.New(color.FgRed, color.Bold).Sprintf
	case models.RiskHigh:
		return color.RedString
	case models.RiskMedium:
		return color.YellowString
	case models.RiskLow:
		return color.GreenString
	default:
		return fmt.Sprintf
	}
}
