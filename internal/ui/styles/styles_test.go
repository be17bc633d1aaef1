// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// THEME
// =============================================================================

func TestNewTheme_Modes(t *testing.T) {
	defer lipgloss.SetHasDarkBackground(true)

	dark := NewTheme(ModeDark)
	assert.True(t, dark.IsDark)
	assert.Equal(t, "dark", dark.GlamourStyle())

	light := NewTheme(ModeLight)
	assert.False(t, light.IsDark)
	assert.Equal(t, "light", light.GlamourStyle())

	unknown := NewTheme("neon")
	assert.Equal(t, ModeAuto, unknown.Mode)
}

func TestTheme_StylesRender(t *testing.T) {
	theme := NewTheme(ModeDark)
	for name, s := range map[string]lipgloss.Style{
		"Header":       theme.Header,
		"Sidebar":      theme.Sidebar,
		"UserBubble":   theme.UserBubble,
		"FailedBubble": theme.FailedBubble,
		"Panel":        theme.Panel,
		"Modal":        theme.Modal,
		"StatusBar":    theme.StatusBar,
	} {
		assert.Contains(t, s.Render("測試"), "測試", name)
	}
}

func TestGetLayoutMode(t *testing.T) {
	theme := NewTheme(ModeDark)
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 30)
		assert.Equal(t, tt.want, theme.GetLayoutMode(), "width %d", tt.width)
	}
}

// =============================================================================
// COLORS
// =============================================================================

func TestRiskColor(t *testing.T) {
	assert.Equal(t, Rose, RiskColor("高"))
	assert.Equal(t, Rose, RiskColor("High"))
	assert.Equal(t, Amber, RiskColor("中"))
	assert.Equal(t, Emerald, RiskColor("低"))
	assert.Equal(t, TextSecondary, RiskColor(""))
}

func TestRenderHelpers(t *testing.T) {
	assert.True(t, strings.Contains(RenderSuccess("ok"), "[OK] ok"))
	assert.True(t, strings.Contains(RenderError("bad"), "[X] bad"))
	assert.True(t, strings.Contains(RenderWarning("hmm"), "[!] hmm"))
	assert.True(t, strings.Contains(RenderInfo("fyi"), "[i] fyi"))
}

func TestLoadingSpinner(t *testing.T) {
	s := LoadingSpinner(NewTheme(ModeDark))
	assert.Equal(t, DotsSpinner.Frames, s.Spinner.Frames)
}
