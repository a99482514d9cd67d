package cli

import (
	"fmt"
	"strings"

	"MarketBrief/internal/domain/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F9FAFB")).
			Background(lipgloss.Color("#1F2937")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1).
			Width(80)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// sectionLabels title the boxed sections; the header is rendered as the title.
var sectionLabels = map[models.SectionType]string{
	models.SectionDriver:    "Driver",
	models.SectionFactors:   "Factors",
	models.SectionMechanics: "Mechanics",
	models.SectionLevels:    "Levels",
	models.SectionScenarios: "Scenarios",
	models.SectionSizing:    "Sizing",
	models.SectionRisk:      "Risk",
	models.SectionWatch:     "Watch",
}

// renderBrief lays a brief out for a terminal.
func renderBrief(b *models.Brief) string {
	var sb strings.Builder
	for _, s := range b.Sections {
		switch s.Type {
		case models.SectionHeader:
			sb.WriteString(titleStyle.Render(s.Content))
			sb.WriteString("\n")
		case models.SectionFooter:
			sb.WriteString(mutedStyle.Render(s.Content))
			sb.WriteString("\n")
		default:
			label := sectionLabels[s.Type]
			if label == "" {
				label = string(s.Type)
			}
			sb.WriteString(sectionStyle.Render(labelStyle.Render(label) + "\n" + s.Content))
			sb.WriteString("\n")
		}
	}
	if len(b.ValidationWarnings) > 0 {
		sb.WriteString(warnStyle.Render("Warnings:"))
		sb.WriteString("\n")
		for _, w := range b.ValidationWarnings {
			sb.WriteString(warnStyle.Render("  ! " + w))
			sb.WriteString("\n")
		}
	}
	for _, st := range b.SourceStatus {
		sb.WriteString(renderStatus(st))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderStatus(st models.SourceStatus) string {
	name := fmt.Sprintf("%s/%s", st.Kind, st.Source)
	switch {
	case st.OK && st.Cached:
		return okStyle.Render("  ✓ "+name) + mutedStyle.Render(" (cached)")
	case st.OK:
		return okStyle.Render("  ✓ " + name)
	case st.CircuitOpen:
		return errorStyle.Render("  ✗ "+name) + mutedStyle.Render(" (circuit open)")
	default:
		return errorStyle.Render("  ✗ "+name) + mutedStyle.Render(" ("+st.Error+")")
	}
}

func renderSession(s models.MarketSession, desc string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(desc))
	sb.WriteString("\n")
	row := func(k, v string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", k)))
		sb.WriteString(v)
		sb.WriteString("\n")
	}
	row("Session", s.Name)
	if s.IsOpen {
		row("Market", okStyle.Render("open"))
	} else {
		row("Market", errorStyle.Render("closed"))
	}
	row("Liquidity", s.Liquidity)
	row("Volatility", s.Volatility)
	if len(s.ActiveSessions) > 0 {
		row("Active", strings.Join(s.ActiveSessions, ", "))
	}
	if s.KillZone != "" {
		row("Kill zone", s.KillZone)
	}
	return sb.String()
}

func renderPosition(r models.PositionSizeResult) string {
	if !r.OK() {
		return errorStyle.Render("Cannot size position: " + r.Error)
	}
	var sb strings.Builder
	title := "Position size"
	if r.Instrument != "" {
		title += " · " + r.Instrument
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n")
	row := func(k, v string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", k)))
		sb.WriteString(v)
		sb.WriteString("\n")
	}
	row("Lots", fmt.Sprintf("%.2f", r.LotSize))
	row("Units", fmt.Sprintf("%.2f %s", r.PositionSize, r.Unit))
	row("Risk", fmt.Sprintf("$%.2f", r.RiskAmount))
	row("Stop distance", fmt.Sprintf("%g (%g pips)", r.StopDistance, r.StopPips))
	row("Pip value", fmt.Sprintf("$%.2f per lot", r.PipValue))
	if r.Formula != "" {
		sb.WriteString(mutedStyle.Render(r.Formula))
		sb.WriteString("\n")
	}
	return sb.String()
}
