// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/lawassist-tui/internal/model"
)

// RequestTimeout bounds every session operation started from the UI.
const RequestTimeout = 15 * time.Second

// ListedMsg reports the result of ListCmd.
type ListedMsg struct {
	Sessions []model.Session
	Err      error
}

// LoadedMsg reports the result of LoadCmd.
type LoadedMsg struct {
	ID  string
	Err error
}

// DeletedMsg reports the result of DeleteCmd.
type DeletedMsg struct {
	ID  string
	Err error
}

// ListCmd refreshes the session list in the background.
func (s *Store) ListCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		sessions, err := s.ListSessions(ctx)
		return ListedMsg{Sessions: sessions, Err: err}
	}
}

// LoadCmd loads a session in the background.
func (s *Store) LoadCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		return LoadedMsg{ID: id, Err: s.LoadSession(ctx, id)}
	}
}

// DeleteCmd deletes a session in the background. The caller is expected to have
// confirmed with the user already, so the store's confirmer is bypassed.
func (s *Store) DeleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		return DeletedMsg{ID: id, Err: s.remove(ctx, id)}
	}
}
