package tui

import (
	"sort"
	"strings"

	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/render"
)

// filterState holds current active filters.
type filterState struct {
	Risk       string
	SearchText string
}

// sortField enumerates orderings of the card list.
type sortField int

const (
	sortByScan sortField = iota
	sortByRisk
	sortByBucket
	sortByStatus
)

// sortFieldCount is the total number of orderings.
const sortFieldCount = 4

var riskPriority = map[string]int{
	models.RiskCritical: 0,
	models.RiskHigh:     1,
	models.RiskMedium:   2,
	models.RiskLow:      3,
	models.RiskUnknown:  4,
}

// cardRisk is the risk used for filtering and sorting; unsettled cards
// have none.
func cardRisk(c card) string {
	if c.Status != render.StatusReady {
		return ""
	}
	return c.Plan.RiskLevel()
}

func riskRank(c card) int {
	if p, ok := riskPriority[cardRisk(c)]; ok {
		return p
	}
	return len(riskPriority)
}

// applyFilters returns cards matching all active filters.
func applyFilters(cards []card, f filterState) []card {
	result := make([]card, 0, len(cards))
	searchLower := strings.ToLower(f.SearchText)

	for _, c := range cards {
		if f.Risk != "" && cardRisk(c) != f.Risk {
			continue
		}
		if searchLower != "" && !matchesSearch(c, searchLower) {
			continue
		}
		result = append(result, c)
	}
	return result
}

func matchesSearch(c card, searchLower string) bool {
	if strings.Contains(strings.ToLower(c.Bucket), searchLower) ||
		strings.Contains(strings.ToLower(c.Error), searchLower) {
		return true
	}
	if c.Plan == nil {
		return false
	}
	for _, list := range [][]string{c.Plan.Reasons, c.Plan.RecommendedFixes, c.Plan.Commands} {
		for _, s := range list {
			if strings.Contains(strings.ToLower(s), searchLower) {
				return true
			}
		}
	}
	return false
}

// sortCards sorts a slice of cards in place by the given field.
func sortCards(cards []card, field sortField) {
	sort.SliceStable(cards, func(i, j int) bool {
		switch field {
		case sortByScan:
			return cards[i].Index < cards[j].Index
		case sortByRisk:
			return riskRank(cards[i]) < riskRank(cards[j])
		case sortByBucket:
			return cards[i].Bucket < cards[j].Bucket
		case sortByStatus:
			return cards[i].Status < cards[j].Status
		default:
			return false
		}
	})
}

// uniqueRisks returns the risk levels present, most severe first.
func uniqueRisks(cards []card) []string {
	seen := make(map[string]bool)
	var risks []string
	for _, c := range cards {
		r := cardRisk(c)
		if r != "" && !seen[r] {
			seen[r] = true
			risks = append(risks, r)
		}
	}
	sort.SliceStable(risks, func(i, j int) bool {
		pi, iok := riskPriority[risks[i]]
		pj, jok := riskPriority[risks[j]]
		if !iok {
			pi = len(riskPriority)
		}
		if !jok {
			pj = len(riskPriority)
		}
		if pi != pj {
			return pi < pj
		}
		return risks[i] < risks[j]
	})
	return risks
}

// sortFieldName returns a human-readable name for the sort field.
func sortFieldName(f sortField) string {
	switch f {
	case sortByScan:
		return "scan order"
	case sortByRisk:
		return "risk"
	case sortByBucket:
		return "bucket"
	case sortByStatus:
		return "status"
	default:
		return "unknown"
	}
}
