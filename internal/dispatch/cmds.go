// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// SentMsg reports a completed send to the Bubble Tea program.
type SentMsg struct {
	Outcome Outcome
}

// Cmd completes the send in the background.
func (p *Pending) Cmd() tea.Cmd {
	return func() tea.Msg {
		return SentMsg{Outcome: p.Complete(context.Background())}
	}
}
