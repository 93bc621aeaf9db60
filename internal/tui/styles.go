package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/gcsguardian/guardian/internal/models"
)

var (
	inkRed    = lipgloss.Color("#E5484D")
	inkOrange = lipgloss.Color("#F76B15")
	inkYellow = lipgloss.Color("#FFC53D")
	inkGreen  = lipgloss.Color("#46A758")
	inkGrey   = lipgloss.Color("#8B8D98")
	inkViolet = lipgloss.Color("#8E4EC6")
	inkFrame  = lipgloss.Color("#3E3E44")
)

// riskPalette colors each known risk level; anything else renders plain.
var riskPalette = map[string]lipgloss.Style{
	models.RiskCritical: lipgloss.NewStyle().Foreground(inkRed).Bold(true),
	models.RiskHigh:     lipgloss.NewStyle().Foreground(inkOrange).Bold(true),
	models.RiskMedium:   lipgloss.NewStyle().Foreground(inkYellow),
	models.RiskLow:      lipgloss.NewStyle().Foreground(inkGreen),
	models.RiskUnknown:  lipgloss.NewStyle().Foreground(inkGrey),
}

var (
	headerBox = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(inkFrame)

	detailBox = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(inkFrame)

	footerLine = lipgloss.NewStyle().Padding(0, 1)

	promptText  = lipgloss.NewStyle().Foreground(inkViolet).Bold(true)
	mutedText   = lipgloss.NewStyle().Foreground(inkGrey)
	errorText   = lipgloss.NewStyle().Foreground(inkRed)
	commandText = lipgloss.NewStyle().Foreground(inkViolet)
	copiedText  = lipgloss.NewStyle().Foreground(inkGreen).Bold(true)
)

func riskStyle(risk string) lipgloss.Style {
	if s, ok := riskPalette[risk]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
