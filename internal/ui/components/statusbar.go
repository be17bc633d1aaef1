// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
	"github.com/jeranaias/lawassist-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// StatusBar is the bottom line: response style, capabilities, loading state and a
// transient notice.
type StatusBar struct {
	theme *styles.Theme
	width int

	Style       model.Style
	Speech      bool
	Listening   bool
	Clipboard   bool
	Loading     bool
	SpinnerView string
	Notice      string
	NoticeError bool
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme, width: 80, Style: model.StyleHumor}
}

// SetWidth updates the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// View renders the bar.
func (s *StatusBar) View() string {
	var left []string
	left = append(left, s.theme.StatusKey.Render("風格")+" "+s.theme.StatusValue.Render(s.Style.Label()))

	switch {
	case s.Listening:
		left = append(left, s.theme.Listening.Render("* 聆聽中"))
	case s.Speech:
		left = append(left, s.theme.StatusValue.Render("語音 ^R"))
	}
	if s.Loading {
		left = append(left, s.theme.StatusValue.Render("思考中"+s.SpinnerView))
	}

	leftStr := strings.Join(left, "  ")
	right := s.hints()

	inner := s.width - 2
	if s.Notice != "" {
		avail := inner - lipgloss.Width(leftStr) - 2
		if avail > 4 {
			st := s.theme.StatusValue
			if s.NoticeError {
				st = s.theme.StatusError
			}
			right = st.Render(util.TruncateWidth(s.Notice, avail))
		}
	}

	gap := inner - lipgloss.Width(leftStr) - lipgloss.Width(right)
	if gap < 1 {
		right = ""
		gap = 1
	}
	return s.theme.StatusBar.Width(s.width).Render(leftStr + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) hints() string {
	keys := []string{"Enter 送出", "^N 新對話", "^S 風格", "Tab 切換"}
	if s.width < 100 {
		keys = keys[:2]
	}
	return s.theme.StatusValue.Render(strings.Join(keys, " · "))
}
