package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// bindings are the normal-mode actions. Navigation keys belong to the
// table and are listed only for help.
type bindings struct {
	Up, Down   key.Binding
	CopyFix    key.Binding
	Search     key.Binding
	RiskFilter key.Binding
	CycleSort  key.Binding
	Reset      key.Binding
	Quit       key.Binding
}

var keys = bindings{
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	CopyFix:    key.NewBinding(key.WithKeys("c", "y"), key.WithHelp("c", "copy fix")),
	Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	RiskFilter: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "risk")),
	CycleSort:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
	Reset:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "reset")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var _ help.KeyMap = bindings{}

// ShortHelp implements help.KeyMap.
func (b bindings) ShortHelp() []key.Binding {
	return []key.Binding{b.Quit, b.Search, b.RiskFilter, b.CycleSort, b.CopyFix, b.Reset}
}

// FullHelp implements help.KeyMap.
func (b bindings) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{b.Up, b.Down},
		{b.CopyFix, b.Search, b.RiskFilter},
		{b.CycleSort, b.Reset, b.Quit},
	}
}
