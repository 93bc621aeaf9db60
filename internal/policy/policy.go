package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/results"
)

// Policy is a .guardian-policy.yaml file: limits a results run must stay
// within for `guardian results` to exit 0.
type Policy struct {
	Version string `yaml:"version"`
	Rules   Rules  `yaml:"rules"`
}

// Rules left nil are not enforced.
type Rules struct {
	MaxPublicBuckets *int     `yaml:"max_public_buckets,omitempty"`
	MaxCritical      *int     `yaml:"max_critical,omitempty"`
	MaxHigh          *int     `yaml:"max_high,omitempty"`
	MaxFailed        *int     `yaml:"max_failed,omitempty"`
	ForbidRisks      []string `yaml:"forbid_risks,omitempty"`
}

type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type Result struct {
	Pass       bool        `json:"pass"`
	Violations []Violation `json:"violations"`
}

// policyNames are tried in each directory, in order.
var policyNames = []string{".guardian-policy.yaml", ".guardian-policy.yml"}

// LoadFromFile parses the policy at path. It returns nil, nil when the
// file does not exist.
func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read policy: %w", err)
	}

	p := new(Policy)
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse policy %s: %w", path, err)
	}
	return p, nil
}

// FindPolicyFile returns the nearest policy file from the working directory
// upwards, or "" when there is none.
func FindPolicyFile() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findFrom(wd)
}

func findFrom(dir string) string {
	for {
		for _, name := range policyNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
		up := filepath.Dir(dir)
		if up == dir {
			return ""
		}
		dir = up
	}
}

// RiskCounts tallies rendered plans by lower-cased risk level.
func RiskCounts(out *results.Outcome) map[string]int {
	counts := map[string]int{}
	if out == nil {
		return counts
	}
	for _, c := range out.Remediation.Plans {
		counts[c.Plan.RiskLevel()]++
	}
	return counts
}

// limit is one max_* rule applied to a measured count.
type limit struct {
	rule  string
	what  string
	max   *int
	count int
}

// Evaluate checks a results run against the rules. A nil policy or outcome
// always passes.
func (p *Policy) Evaluate(out *results.Outcome) *Result {
	if p == nil || out == nil {
		return &Result{Pass: true}
	}
	risks := RiskCounts(out)

	var violations []Violation
	for _, l := range []limit{
		{"max_public_buckets", "public buckets", p.Rules.MaxPublicBuckets, len(out.Public)},
		{"max_critical", "critical buckets", p.Rules.MaxCritical, risks[models.RiskCritical]},
		{"max_high", "high-risk buckets", p.Rules.MaxHigh, risks[models.RiskHigh]},
		{"max_failed", "failed remediation requests", p.Rules.MaxFailed, out.Remediation.Failed},
	} {
		if l.max != nil && l.count > *l.max {
			violations = append(violations, Violation{
				Rule:    l.rule,
				Message: fmt.Sprintf("%s %d exceeds limit %d", l.what, l.count, *l.max),
			})
		}
	}

	for _, risk := range normalizeRisks(p.Rules.ForbidRisks) {
		if n := risks[risk]; n > 0 {
			violations = append(violations, Violation{
				Rule:    "forbid_risks",
				Message: fmt.Sprintf("forbidden risk %q found on %d bucket(s)", risk, n),
			})
		}
	}

	return &Result{Pass: len(violations) == 0, Violations: violations}
}

// normalizeRisks lower-cases, trims, de-duplicates and sorts risk names.
func normalizeRisks(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, r := range in {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
