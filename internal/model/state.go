// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"sync"
)

// =============================================================================
// VIEW AND STYLE
// =============================================================================

// View is the active top-level view of the client.
type View int

const (
	ViewChat View = iota
	ViewTeam
	ViewInfo
)

// String returns the view name.
func (v View) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewTeam:
		return "team"
	case ViewInfo:
		return "info"
	default:
		return fmt.Sprintf("View(%d)", int(v))
	}
}

// Title returns the tab label shown in the header.
func (v View) Title() string {
	switch v {
	case ViewChat:
		return "對話"
	case ViewTeam:
		return "團隊"
	case ViewInfo:
		return "說明"
	default:
		return v.String()
	}
}

// Next returns the view after v, wrapping around.
func (v View) Next() View {
	return (v + 1) % 3
}

// Style is the response style requested from the backend.
type Style string

const (
	StyleHumor        Style = "humor"
	StyleProfessional Style = "professional"
	StyleConcise      Style = "concise"
)

// Styles lists every known style in cycle order.
var Styles = []Style{StyleHumor, StyleProfessional, StyleConcise}

// ParseStyle returns the style named s, or an error for unknown names.
func ParseStyle(s string) (Style, error) {
	for _, st := range Styles {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown style %q (want humor, professional or concise)", s)
}

// Next returns the style after s, wrapping around. Unknown styles restart the cycle.
func (s Style) Next() Style {
	for i, st := range Styles {
		if st == s {
			return Styles[(i+1)%len(Styles)]
		}
	}
	return Styles[0]
}

// Label returns the display label for the style.
func (s Style) Label() string {
	switch s {
	case StyleHumor:
		return "幽默"
	case StyleProfessional:
		return "專業"
	case StyleConcise:
		return "精簡"
	default:
		return string(s)
	}
}

// =============================================================================
// STATE
// =============================================================================

// Snapshot is a consistent copy of State taken under its lock.
type Snapshot struct {
	Messages       []Message
	ActiveID       string
	Sessions       []Session
	View           View
	Style          Style
	Input          string
	Loading        bool
	SessionLoading bool
	Epoch          uint64
}

// HasActive reports whether the snapshot has an active session.
func (s Snapshot) HasActive() bool {
	return s.ActiveID != ""
}

// State owns all client-side conversation state.
//
// The epoch identifies the current conversation. It changes whenever the buffer is
// replaced or cleared, and never on append.
type State struct {
	mu sync.RWMutex

	messages       []Message
	activeID       string
	sessions       []Session
	view           View
	style          Style
	input          string
	loading        bool
	sessionLoading bool
	epoch          uint64
}

// NewState creates an empty state in the chat view with the default style.
func NewState() *State {
	return &State{view: ViewChat, style: StyleHumor}
}

// Snapshot returns a copy of the whole state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Messages:       cloneMessages(s.messages),
		ActiveID:       s.activeID,
		Sessions:       append([]Session(nil), s.sessions...),
		View:           s.view,
		Style:          s.style,
		Input:          s.input,
		Loading:        s.loading,
		SessionLoading: s.sessionLoading,
		Epoch:          s.epoch,
	}
}

// Messages returns a copy of the message buffer.
func (s *State) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMessages(s.messages)
}

// ActiveID returns the active session id and whether one is set.
func (s *State) ActiveID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID, s.activeID != ""
}

// Epoch returns the current conversation epoch.
func (s *State) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// =============================================================================
// CONVERSATION MUTATIONS
// =============================================================================

// BeginSend appends the user's message, clears the input line, marks a reply as
// loading and switches to the chat view. It returns the epoch and session id the
// request belongs to.
func (s *State) BeginSend(content string) (epoch uint64, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, NewUserMessage(content))
	s.input = ""
	s.loading = true
	s.view = ViewChat
	return s.epoch, s.activeID
}

// AppendReply appends an assistant message if epoch is still current. When no session
// is active and sessionID is non-empty, the id is adopted in the same step. It reports
// whether the message was appended.
func (s *State) AppendReply(epoch uint64, msg Message, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false
	}
	s.messages = append(s.messages, msg)
	if s.activeID == "" && sessionID != "" {
		s.activeID = sessionID
	}
	return true
}

// ReplaceConversation swaps in a loaded session's messages and makes it active.
func (s *State) ReplaceConversation(id string, messages []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = cloneMessages(messages)
	s.activeID = id
	s.view = ViewChat
	s.epoch++
}

// Reset clears the active session and the buffer and switches to the chat view.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *State) resetLocked() {
	s.messages = nil
	s.activeID = ""
	s.view = ViewChat
	s.epoch++
}

// =============================================================================
// SESSION LIST
// =============================================================================

// Sessions returns a copy of the session list.
func (s *State) Sessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Session(nil), s.sessions...)
}

// SetSessions replaces the session list.
func (s *State) SetSessions(sessions []Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]Session(nil), sessions...)
}

// RemoveSession drops id from the session list. If id was the active session the
// conversation is reset. It reports whether the active session was removed.
func (s *State) RemoveSession(id string) (wasActive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.sessions[:0:0]
	for _, sess := range s.sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	s.sessions = kept
	if s.activeID == id && id != "" {
		s.resetLocked()
		return true
	}
	return false
}

// =============================================================================
// FLAGS AND UI FIELDS
// =============================================================================

// SetLoading sets the reply-loading flag.
func (s *State) SetLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// Loading reports whether a reply is outstanding.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetSessionLoading sets the session-loading flag.
func (s *State) SetSessionLoading(v bool) {
	s.mu.Lock()
	s.sessionLoading = v
	s.mu.Unlock()
}

// SessionLoading reports whether a session load is outstanding.
func (s *State) SessionLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionLoading
}

// SetView switches the active view.
func (s *State) SetView(v View) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// View returns the active view.
func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// SetStyle sets the response style.
func (s *State) SetStyle(st Style) {
	s.mu.Lock()
	s.style = st
	s.mu.Unlock()
}

// Style returns the response style.
func (s *State) Style() Style {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style
}

// SetInput sets the input line.
func (s *State) SetInput(v string) {
	s.mu.Lock()
	s.input = v
	s.mu.Unlock()
}

// Input returns the input line.
func (s *State) Input() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.input
}

func cloneMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	for i, m := range in {
		out[i] = m
		out[i].Analysis = m.Analysis.Clone()
	}
	return out
}
