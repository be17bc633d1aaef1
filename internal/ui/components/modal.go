// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
)

// ConfirmDialog is a y/n prompt drawn in the middle of the screen.
type ConfirmDialog struct {
	theme  *styles.Theme
	Prompt string
	// Payload identifies what is being confirmed, e.g. a session id.
	Payload string
}

// NewConfirmDialog creates a dialog.
func NewConfirmDialog(theme *styles.Theme, prompt, payload string) *ConfirmDialog {
	return &ConfirmDialog{theme: theme, Prompt: prompt, Payload: payload}
}

// Place renders the dialog centred in a width x height area.
func (d *ConfirmDialog) Place(width, height int) string {
	box := d.theme.Modal.Render(
		d.theme.ModalTitle.Render("刪除對話") + "\n\n" +
			d.Prompt + "\n\n" +
			d.theme.StatusKey.Render("y") + " 刪除   " + d.theme.StatusKey.Render("n") + " 取消",
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
