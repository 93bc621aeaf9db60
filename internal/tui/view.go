package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gcsguardian/guardian/internal/render"
)

// View implements tea.Model.
func (m Model) View() string {
	sections := []string{renderHeader(m.summary, m.cards, m.fromCache, m.done, m.width)}

	switch m.mode {
	case modeSearch:
		sections = append(sections, promptText.Render("/ ")+m.searchInput.View())
	case modeFilterRisk:
		sections = append(sections, m.riskPicker())
	}

	sel := m.selected()
	sections = append(sections,
		m.table.View(),
		renderDetail(sel, m.placeholder, m.copyLabel(sel), m.width),
		m.footer(),
	)
	return strings.Join(sections, "\n")
}

// copyLabel reads "Copied ✓" only on the card that was copied, while the
// confirmation lasts.
func (m Model) copyLabel(c *card) string {
	if c == nil || c.Index != m.confirmIndex {
		return render.CopyLabel
	}
	return m.confirm.Label(render.CopyLabel, render.CopiedLabel)
}

func (m Model) riskPicker() string {
	var b strings.Builder
	b.WriteString("Filter by risk:\n")
	for i, opt := range append([]string{"All"}, m.riskChoices...) {
		marker := "  "
		if i == m.riskCursor {
			marker = promptText.Render("> ")
		}
		fmt.Fprintf(&b, "%s%s\n", marker, opt)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// footer puts key help on the left and the visible count plus any status
// message on the right.
func (m Model) footer() string {
	left := m.help.ShortHelpView(keys.ShortHelp())
	right := fmt.Sprintf("%d/%d buckets", len(m.visible), len(m.cards))
	if m.statusMsg != "" {
		right = m.statusMsg + "  " + right
	}
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return footerLine.Render(left + strings.Repeat(" ", gap) + right)
}
