// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/tooltip"
	"github.com/jeranaias/lawassist-tui/internal/ui/components"
)

// =============================================================================
// MOUSE
// =============================================================================

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if !m.ready || m.confirm != nil {
		return nil
	}

	switch msg.Type {
	case tea.MouseMotion:
		m.trackPointer(msg.X, msg.Y)

	case tea.MouseWheelUp:
		m.viewport.LineUp(wheelLines)
		m.dismissOnScroll()

	case tea.MouseWheelDown:
		m.viewport.LineDown(wheelLines)
		m.dismissOnScroll()

	case tea.MouseLeft:
		return m.click(msg.X, msg.Y)
	}
	return nil
}

// trackPointer turns a pointer position into hover transitions. The controller is
// only told about region changes, never about motion within a region.
func (m *Model) trackPointer(x, y int) {
	region, idx := pointerNone, -1
	switch {
	case m.panelOpen && m.panelView.Bounds.Contains(x, y):
		region = pointerPanel
	default:
		if i := m.hitAt(x, y); i >= 0 {
			region, idx = pointerTrigger, i
		}
	}

	prev, prevIdx := m.pointer, m.pointerHit
	sameTrigger := region == pointerTrigger && prev == pointerTrigger && idx == prevIdx

	switch prev {
	case pointerTrigger:
		if !sameTrigger {
			m.hover.LeaveTrigger()
		}
	case pointerPanel:
		if region != pointerPanel {
			m.hover.LeavePanel()
		}
	}

	switch region {
	case pointerTrigger:
		if !sameTrigger {
			m.hover.EnterTrigger(m.triggerState(m.hits[idx]))
		}
	case pointerPanel:
		if prev != pointerPanel {
			m.hover.EnterPanel()
		}
	}

	m.pointer, m.pointerHit = region, idx
	m.syncHover()
}

func (m *Model) click(x, y int) tea.Cmd {
	if m.panelOpen {
		if m.panelView.CopyButton.Contains(x, y) {
			return m.copyCmd()
		}
		if m.panelView.Bounds.Contains(x, y) {
			return nil
		}
	}

	if i := m.hitAt(x, y); i >= 0 {
		// A click on a citation opens its panel at once and goes nowhere.
		m.hover.EnterTrigger(m.triggerState(m.hits[i]))
		m.pointer, m.pointerHit = pointerTrigger, i
		m.syncHover()
		return nil
	}

	if m.panelOpen {
		m.hover.Dismiss()
		m.syncHover()
	}

	if m.sidebarW > 0 && x < m.sidebarW && y >= m.bodyY && y < m.bodyY+m.viewport.Height {
		if m.sidebar.Select(y - m.bodyY - components.HeaderRows) {
			m.focus = focusSidebar
			return m.openSelected()
		}
	}
	return nil
}

// hitAt returns the index of the citation under screen cell (x, y), or -1.
func (m *Model) hitAt(x, y int) int {
	if m.state.View() != model.ViewChat || len(m.hits) == 0 {
		return -1
	}
	row := y - m.bodyY
	if row < 0 || row >= m.viewport.Height {
		return -1
	}
	col := x - m.sidebarW
	if col < 0 {
		return -1
	}
	line := m.viewport.YOffset + row
	for i, h := range m.hits {
		if h.contains(line, col) {
			return i
		}
	}
	return -1
}

// triggerState builds the hover state for a hit at its current screen position.
func (m *Model) triggerState(h hit) tooltip.State {
	return tooltip.State{
		Content: h.span.Text,
		LinkURL: h.span.URL,
		Label:   h.span.Label,
		Anchor: tooltip.Rect{
			X:      m.sidebarW + h.col,
			Y:      m.bodyY + h.line - m.viewport.YOffset,
			Width:  h.width,
			Height: 1,
		},
	}
}

func (m *Model) dismissOnScroll() {
	if m.panelOpen {
		m.hover.Dismiss()
	}
	m.pointer, m.pointerHit = pointerNone, -1
	m.syncHover()
}

// =============================================================================
// CITATION PANEL
// =============================================================================

// syncHover mirrors the controller into the panel fields.
func (m *Model) syncHover() {
	st, open := m.hover.Current()
	if !open {
		m.panelOpen = false
		m.panelState = tooltip.State{}
		m.panelView = components.PanelView{}
		m.copied = false
		if m.pointer == pointerPanel {
			m.pointer = pointerNone
		}
		return
	}
	if !m.panelOpen || st.Label != m.panelState.Label || st.Anchor != m.panelState.Anchor {
		m.copied = false
	}
	m.panelOpen = true
	m.panelState = st
	m.renderPanel()
}

func (m *Model) renderPanel() {
	if !m.panelOpen {
		return
	}
	pl := tooltip.Place(m.panelState.Anchor, tooltip.Size{Width: m.width, Height: m.height}, components.CellOptions())
	m.panelView = m.panel.Render(m.panelState, pl, components.PanelOptions{
		Hyperlinks: m.hyperlinks,
		CanCopy:    m.caps.ClipboardWrite,
		Copied:     m.copied,
	})
}

// copyCmd writes the open citation to the clipboard.
func (m *Model) copyCmd() tea.Cmd {
	if !m.panelOpen || !m.caps.ClipboardWrite {
		return nil
	}
	text := m.panelState.Content
	if m.panelState.LinkURL != "" {
		text += "\n" + m.panelState.LinkURL
	}
	write := m.clipboard
	return func() tea.Msg {
		return copiedMsg{err: write(text)}
	}
}
