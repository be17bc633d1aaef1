// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/lawassist-tui/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "載入中…"
	}
	if m.confirm != nil {
		return m.confirm.Place(m.width, m.height)
	}

	body := m.viewport.View()
	if m.sidebarW > 0 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), body)
	}

	screen := lipgloss.JoinVertical(lipgloss.Left,
		m.header.Render(),
		body,
		m.inputView(),
		m.status.View(),
	)

	if m.panelOpen {
		screen = components.Overlay(screen, m.panelView.Lines, m.panelView.Bounds.X, m.panelView.Bounds.Y)
	}
	return screen
}
