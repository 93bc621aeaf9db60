package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Risk levels reported by the reasoning endpoint.
const (
	RiskCritical = "critical"
	RiskHigh     = "high"
	RiskMedium   = "medium"
	RiskLow      = "low"
	RiskUnknown  = "unknown"
)

// RemediationPlan is the AI-generated fix plan for one bucket.
type RemediationPlan struct {
	OverallRisk      string   `json:"overall_risk,omitempty"`
	Reasons          []string `json:"reasons"`
	RecommendedFixes []string `json:"recommended_fixes"`
	Commands         []string `json:"commands"`
}

// RiskLevel returns the lower-cased risk, or "unknown" when none was given.
func (p *RemediationPlan) RiskLevel() string {
	if p == nil {
		return RiskUnknown
	}
	risk := strings.ToLower(strings.TrimSpace(p.OverallRisk))
	if risk == "" {
		return RiskUnknown
	}
	return risk
}

// CommandBlock joins the remediation commands into one copyable block.
func (p *RemediationPlan) CommandBlock() string {
	if p == nil {
		return ""
	}
	return strings.Join(p.Commands, "\n\n")
}

// ParseRemediationPlan decodes a reasoning response. Missing or mistyped
// list fields come back empty; only invalid JSON is an error.
func ParseRemediationPlan(body []byte) (*RemediationPlan, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		if !json.Valid(body) {
			return nil, fmt.Errorf("decode remediation plan: %w", err)
		}
		fields = nil
	}

	return &RemediationPlan{
		OverallRisk:      fieldString(fields, "overall_risk"),
		Reasons:          stringList(fields["reasons"]),
		RecommendedFixes: stringList(fields["recommended_fixes"]),
		Commands:         stringList(fields["commands"]),
	}, nil
}
