package render

import (
	"strings"

	"github.com/gcsguardian/guardian/internal/models"
)

// User-facing labels shared by every surface.
const (
	LoadingText = "Loading suggestions…"
	CopyLabel   = "Copy Commands"
	CopiedLabel = "Copied ✓"
	NoRiskLabel = "—"
)

// Card states.
const (
	StatusLoading = "loading"
	StatusReady   = "ready"
	StatusError   = "error"
)

// Target is a results surface: one summary line, and either a placeholder
// or one card per public bucket.
type Target interface {
	Summary(text string)
	Placeholder(text string)

	// AddCard appends a card in the loading state.
	AddCard(bucket string) Card
}

// Card is one bucket's slot on a Target. Exactly one of ShowPlan or
// ShowError is called per card.
type Card interface {
	ShowPlan(plan *models.RemediationPlan)
	ShowError(msg string)
}

// ScanObserver is implemented by targets that want the scan metadata
// before anything else is drawn.
type ScanObserver interface {
	ObserveScan(scan *models.ScanResult)
}

// RiskLabel is the risk text as the backend sent it, or a dash.
func RiskLabel(plan *models.RemediationPlan) string {
	if plan == nil || strings.TrimSpace(plan.OverallRisk) == "" {
		return NoRiskLabel
	}
	return plan.OverallRisk
}
