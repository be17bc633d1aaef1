// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the keyboard bindings of the chat screen.
type KeyMap struct {
	Send       key.Binding
	NewChat    key.Binding
	Reload     key.Binding
	Delete     key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Style      key.Binding
	Speech     key.Binding
	NextView   key.Binding
	QuickTopic key.Binding
	Copy       key.Binding
	Dismiss    key.Binding
	Quit       key.Binding

	// Confirm and Cancel answer the delete dialog.
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "送出 / 開啟對話"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("^N", "新對話"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("^L", "重新整理歷史"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("^D", "刪除選取的對話"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("Up", "上一則對話"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("Down", "下一則對話"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "向上捲動"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "向下捲動"),
		),
		Style: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("^S", "切換回答風格"),
		),
		Speech: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("^R", "語音輸入"),
		),
		NextView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "切換頁面"),
		),
		QuickTopic: key.NewBinding(
			key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9"),
			key.WithHelp("Alt+1..9", "快速提問"),
		),
		Copy: key.NewBinding(
			key.WithKeys("alt+c"),
			key.WithHelp("Alt+C", "複製引用條文"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "關閉"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("^C", "離開"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "確認"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "取消"),
		),
	}
}

// ShortHelp returns the bindings shown in compact help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.NewChat, k.Style, k.NextView, k.Quit}
}

// FullHelp returns every binding, grouped by column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.NewChat, k.Reload, k.Delete},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Style, k.Speech, k.NextView, k.QuickTopic},
		{k.Copy, k.Dismiss, k.Quit},
	}
}

// quickTopicIndex maps "alt+N" to a zero-based topic index.
func quickTopicIndex(keyStr string) (int, bool) {
	n, ok := strings.CutPrefix(keyStr, "alt+")
	if !ok || len(n) != 1 || n[0] < '1' || n[0] > '9' {
		return 0, false
	}
	return int(n[0] - '1'), true
}
