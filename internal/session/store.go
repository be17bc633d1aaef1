// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/lawassist-tui/internal/backend"
	"github.com/jeranaias/lawassist-tui/internal/model"
)

// =============================================================================
// CONFIRMATION
// =============================================================================

// ErrCancelled is returned when the user declines a deletion.
var ErrCancelled = errors.New("session deletion cancelled")

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Approved is a Confirmer for callers that already asked the user, such as the TUI's
// confirmation dialog.
var Approved Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// declineAll is the default Confirmer: nothing is deleted without an explicit one.
var declineAll Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })

// DeletePrompt returns the confirmation prompt for deleting a session.
func DeletePrompt(title string) string {
	return fmt.Sprintf("確定要刪除「%s」這段對話嗎？", title)
}

// =============================================================================
// STORE
// =============================================================================

// Store performs session operations against the backend and applies their results to
// the shared state.
type Store struct {
	api      backend.API
	state    *model.State
	clientID string
	confirm  Confirmer
	logger   *zap.Logger
}

// NewStore creates a store. logger may be nil.
func NewStore(api backend.API, state *model.State, clientID string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		api:      api,
		state:    state,
		clientID: clientID,
		confirm:  declineAll,
		logger:   logger,
	}
}

// WithConfirmer sets the confirmer used by DeleteSession.
func (s *Store) WithConfirmer(c Confirmer) *Store {
	if c == nil {
		c = declineAll
	}
	s.confirm = c
	return s
}

// ClientID returns the identity the store lists sessions for.
func (s *Store) ClientID() string {
	return s.clientID
}

// ListSessions refreshes the session list. On failure the previous list is kept; the
// error is returned for diagnostics only.
func (s *Store) ListSessions(ctx context.Context) ([]model.Session, error) {
	sessions, err := s.api.ListSessions(ctx, s.clientID)
	if err != nil {
		s.logger.Warn("list sessions failed", zap.Error(err))
		return s.state.Sessions(), fmt.Errorf("list sessions: %w", err)
	}
	s.state.SetSessions(sessions)
	s.logger.Debug("sessions listed", zap.Int("count", len(sessions)))
	return s.state.Sessions(), nil
}

// LoadSession replaces the conversation with session id's messages and makes it active.
// On failure nothing but the loading flag changes.
func (s *Store) LoadSession(ctx context.Context, id string) error {
	s.state.SetSessionLoading(true)
	defer s.state.SetSessionLoading(false)

	messages, err := s.api.GetSession(ctx, id)
	if err != nil {
		s.logger.Warn("load session failed", zap.String("session_id", id), zap.Error(err))
		return fmt.Errorf("load session %s: %w", id, err)
	}
	s.state.ReplaceConversation(id, messages)
	s.logger.Debug("session loaded", zap.String("session_id", id), zap.Int("messages", len(messages)))
	return nil
}

// DeleteSession asks for confirmation, deletes the session on the backend and then
// drops it locally. Deleting the active session resets the conversation.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	ok, err := s.confirm.Confirm(ctx, DeletePrompt(s.titleOf(id)))
	if err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	if !ok {
		return ErrCancelled
	}
	return s.remove(ctx, id)
}

// remove deletes id on the backend, then locally.
func (s *Store) remove(ctx context.Context, id string) error {
	if err := s.api.DeleteSession(ctx, id); err != nil {
		s.logger.Warn("delete session failed", zap.String("session_id", id), zap.Error(err))
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	wasActive := s.state.RemoveSession(id)
	s.logger.Info("session deleted", zap.String("session_id", id), zap.Bool("was_active", wasActive))
	return nil
}

// StartNew clears the active session and the buffer. A reply still in flight for the
// previous conversation is discarded when it arrives.
func (s *Store) StartNew() {
	s.state.Reset()
}

func (s *Store) titleOf(id string) string {
	for _, sess := range s.state.Sessions() {
		if sess.ID == id {
			return sess.DisplayTitle()
		}
	}
	return id
}
