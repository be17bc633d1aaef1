// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
	"github.com/jeranaias/lawassist-tui/internal/util"
)

// =============================================================================
// SESSION LIST
// =============================================================================

// SidebarTitle heads the session list.
const SidebarTitle = "歷史對話"

// SessionList is the sidebar of past sessions. It tracks a selection cursor that is
// independent of the active session.
type SessionList struct {
	theme    *styles.Theme
	width    int
	height   int
	sessions []model.Session
	selected int
	offset   int
	activeID string
	loading  bool
}

// NewSessionList creates an empty session list.
func NewSessionList(theme *styles.Theme) *SessionList {
	return &SessionList{theme: theme, width: 28, height: 10}
}

// SetSize sets the list dimensions in cells.
func (s *SessionList) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.scrollToSelected()
}

// SetSessions replaces the list, keeping the selection on the same session id when
// it is still present.
func (s *SessionList) SetSessions(sessions []model.Session) {
	prev := ""
	if sel, ok := s.Selected(); ok {
		prev = sel.ID
	}
	s.sessions = append(s.sessions[:0:0], sessions...)
	s.selected = 0
	for i, sess := range s.sessions {
		if sess.ID == prev {
			s.selected = i
			break
		}
	}
	s.scrollToSelected()
}

// SetActive marks the session whose conversation is shown.
func (s *SessionList) SetActive(id string) {
	s.activeID = id
}

// SetLoading shows the loading hint.
func (s *SessionList) SetLoading(v bool) {
	s.loading = v
}

// Len returns the number of sessions.
func (s *SessionList) Len() int {
	return len(s.sessions)
}

// Selected returns the session under the cursor.
func (s *SessionList) Selected() (model.Session, bool) {
	if s.selected < 0 || s.selected >= len(s.sessions) {
		return model.Session{}, false
	}
	return s.sessions[s.selected], true
}

// MoveUp moves the cursor up one row.
func (s *SessionList) MoveUp() {
	if s.selected > 0 {
		s.selected--
		s.scrollToSelected()
	}
}

// MoveDown moves the cursor down one row.
func (s *SessionList) MoveDown() {
	if s.selected < len(s.sessions)-1 {
		s.selected++
		s.scrollToSelected()
	}
}

// Select moves the cursor to the session at a visible row (0-based, relative to the
// first item row). It reports whether a session is there.
func (s *SessionList) Select(row int) bool {
	i := s.offset + row
	if row < 0 || i >= len(s.sessions) {
		return false
	}
	s.selected = i
	return true
}

// HeaderRows is the number of rows above the first item.
const HeaderRows = 2

func (s *SessionList) visibleRows() int {
	if n := s.height - HeaderRows; n > 0 {
		return n
	}
	return 1
}

func (s *SessionList) scrollToSelected() {
	rows := s.visibleRows()
	if s.selected < s.offset {
		s.offset = s.selected
	}
	if s.selected >= s.offset+rows {
		s.offset = s.selected - rows + 1
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// View renders the list.
func (s *SessionList) View() string {
	inner := s.width - 2
	if inner < 4 {
		inner = 4
	}

	title := SidebarTitle
	if s.loading {
		title += " …"
	}
	lines := []string{s.theme.SidebarTitle.Render(title)}

	if len(s.sessions) == 0 {
		lines = append(lines, s.theme.SidebarHint.Render(util.TruncateWidth("尚無對話", inner)))
	}

	end := s.offset + s.visibleRows()
	if end > len(s.sessions) {
		end = len(s.sessions)
	}
	for i := s.offset; i < end; i++ {
		sess := s.sessions[i]
		marker := "  "
		if sess.ID == s.activeID {
			marker = "> "
		}
		text := util.PadWidth(marker+util.TruncateWidth(sess.DisplayTitle(), inner-2), inner)
		switch {
		case i == s.selected:
			lines = append(lines, s.theme.SessionSelected.Render(text))
		case sess.ID == s.activeID:
			lines = append(lines, s.theme.SessionActive.Render(text))
		default:
			lines = append(lines, s.theme.SessionItem.Render(text))
		}
	}

	return s.theme.Sidebar.
		Width(s.width - 1).
		Height(s.height).
		Render(strings.Join(lines, "\n"))
}
