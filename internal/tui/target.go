package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gcsguardian/guardian/internal/models"
	"github.com/gcsguardian/guardian/internal/render"
)

// Messages delivered from the results pipeline to the model.
type (
	scanMsg struct {
		scanID    string
		fromCache bool
	}
	summaryMsg     struct{ text string }
	placeholderMsg struct{ text string }
	cardAddedMsg   struct {
		index  int
		bucket string
	}
	cardPlanMsg struct {
		index int
		plan  *models.RemediationPlan
	}
	cardErrorMsg struct {
		index int
		text  string
	}
	pipelineDoneMsg struct{ err error }
	copyExpiredMsg  struct{ gen uint64 }
)

// Target forwards render calls to a running program as messages, so the
// model stays the only owner of UI state.
type Target struct {
	send func(tea.Msg)

	mu   sync.Mutex
	next int
}

// NewTarget creates a target that delivers messages through send,
// typically (*tea.Program).Send.
func NewTarget(send func(tea.Msg)) *Target {
	return &Target{send: send}
}

func (t *Target) ObserveScan(scan *models.ScanResult) {
	if scan == nil {
		return
	}
	t.send(scanMsg{scanID: scan.ScanID, fromCache: scan.FromCache})
}

func (t *Target) Summary(text string) {
	t.send(summaryMsg{text: text})
}

func (t *Target) Placeholder(text string) {
	t.send(placeholderMsg{text: text})
}

func (t *Target) AddCard(bucket string) render.Card {
	t.mu.Lock()
	idx := t.next
	t.next++
	t.mu.Unlock()

	t.send(cardAddedMsg{index: idx, bucket: bucket})
	return &targetCard{target: t, index: idx}
}

type targetCard struct {
	target *Target
	index  int
}

func (c *targetCard) ShowPlan(plan *models.RemediationPlan) {
	c.target.send(cardPlanMsg{index: c.index, plan: plan})
}

func (c *targetCard) ShowError(msg string) {
	c.target.send(cardErrorMsg{index: c.index, text: msg})
}
