// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// CLI STYLES
// =============================================================================

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Indigo)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.TextPrimary)

	labelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(16)

	valueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	idStyle = lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Teal).
			Bold(true)

	citationStyle = lipgloss.NewStyle().
			Foreground(styles.Gold)

	linkStyle = lipgloss.NewStyle().
			Foreground(styles.LinkColor).
			Underline(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	separatorStyle = lipgloss.NewStyle().
			Foreground(styles.Overlay)
)

// renderSeparator returns a horizontal rule of the given width.
func renderSeparator(width int) string {
	if width <= 0 {
		width = 40
	}
	return separatorStyle.Render(strings.Repeat("-", width))
}

// renderLabel renders an aligned "label value" row.
func renderLabel(label, value string) string {
	return labelStyle.Render(label) + " " + valueStyle.Render(value)
}

// renderRisk colors a risk level the way the chat screen does.
func renderRisk(level string) string {
	return lipgloss.NewStyle().Foreground(styles.RiskColor(level)).Bold(true).Render(level)
}
