// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable pieces of the lawassist TUI.

Each component takes a *styles.Theme, is sized with SetWidth/SetHeight, and
renders itself with View. None of them own application state: the chat model
feeds them a snapshot every frame.

  - Header (header.go) - brand line and view tabs
  - SessionList (sidebar.go) - past sessions with selection and active marker
  - StatusBar (statusbar.go) - style, capabilities, loading spinner, last error
  - CitationPanel (panel.go) - statute preview with arrow, OSC 8 link and copy button
  - ConfirmDialog (modal.go) - y/n confirmation for destructive actions
  - Overlay (overlay.go) - composites a floating block over a rendered screen

Example:

	theme := styles.NewTheme("auto")
	panel := components.NewCitationPanel(theme)
	view := panel.Render(state, placement, true, true)
	screen = components.Overlay(screen, view.Lines, view.Bounds.X, view.Bounds.Y)
*/
package components
