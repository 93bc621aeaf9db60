package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/gcsguardian/guardian/internal/render"
)

const (
	riskColWidth   = 10
	statusColWidth = 10
	minBucketWidth = 20
	maxBucketWidth = 63
)

// columnsFor sizes the bucket column to the terminal; risk and status are fixed.
func columnsFor(width int) []table.Column {
	bucket := width - riskColWidth - statusColWidth - 8
	bucket = max(minBucketWidth, min(bucket, maxBucketWidth))
	return []table.Column{
		{Title: "Risk", Width: riskColWidth},
		{Title: "Bucket", Width: bucket},
		{Title: "Status", Width: statusColWidth},
	}
}

func buildRows(cards []card, bucketWidth int) []table.Row {
	rows := make([]table.Row, len(cards))
	for i, c := range cards {
		rows[i] = table.Row{riskLabel(c), truncate(c.Bucket, bucketWidth), c.Status}
	}
	return rows
}

// riskLabel is the upper-cased risk of a settled card, or a dash.
func riskLabel(c card) string {
	if c.Status != render.StatusReady {
		return "-"
	}
	return strings.ToUpper(c.Plan.RiskLevel())
}

// truncate cuts s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func newTable(width, height int) table.Model {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(inkFrame)
	styles.Selected = styles.Selected.
		Bold(false).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(inkViolet)

	return table.New(
		table.WithColumns(columnsFor(width)),
		table.WithFocused(true),
		table.WithHeight(height),
		table.WithStyles(styles),
	)
}
