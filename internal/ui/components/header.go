// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Brand strings.
const (
	AppTitle   = "法律小幫手"
	AppTagline = "AI 法律諮詢"
)

// Header is the top bar: brand on the left, view tabs on the right.
type Header struct {
	Title   string
	Tagline string
	Width   int
	View    model.View
	theme   *styles.Theme
}

// NewHeader creates a header with the default brand.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title:   AppTitle,
		Tagline: AppTagline,
		Width:   80,
		View:    model.ViewChat,
		theme:   theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetView highlights a tab.
func (h *Header) SetView(v model.View) {
	h.View = v
}

// Tabs renders the view tabs.
func (h *Header) Tabs() string {
	var parts []string
	for _, v := range []model.View{model.ViewChat, model.ViewTeam, model.ViewInfo} {
		if v == h.View {
			parts = append(parts, h.theme.TabActive.Render(v.Title()))
		} else {
			parts = append(parts, h.theme.Tab.Render(v.Title()))
		}
	}
	return strings.Join(parts, "")
}

// Render renders the header.
func (h *Header) Render() string {
	brand := h.theme.HeaderTitle.Render(h.Title)
	if h.Width >= 60 {
		brand += "  " + h.theme.HeaderTagline.Render(h.Tagline)
	}
	tabs := h.Tabs()

	inner := h.Width - 2
	gap := inner - lipgloss.Width(brand) - lipgloss.Width(tabs)
	if gap < 1 {
		gap = 1
	}
	return h.theme.Header.Width(h.Width).Render(brand + strings.Repeat(" ", gap) + tabs)
}
