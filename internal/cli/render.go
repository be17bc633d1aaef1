// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/jeranaias/lawassist-tui/internal/citation"
	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/util"
)

// excerptWidth bounds the statute excerpt printed under a reply.
const excerptWidth = 60

// =============================================================================
// REPLY RENDERING
// =============================================================================

// replyRenderer prints assistant replies for line-mode output. With colors on,
// markdown goes through glamour and citation labels are highlighted; otherwise the
// annotated markdown is printed as is.
type replyRenderer struct {
	markdown *glamour.TermRenderer
	color    bool
}

// newReplyRenderer creates a renderer wrapping at width cells.
func newReplyRenderer(width int, color bool) *replyRenderer {
	r := &replyRenderer{color: color}
	if !color {
		return r
	}
	if width < 20 {
		width = 20
	}
	style := "light"
	if termenv.HasDarkBackground() {
		style = "dark"
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		r.markdown = md
	}
	return r
}

// Reply writes an assistant message followed by its analysis and citations.
func (r *replyRenderer) Reply(w io.Writer, msg model.Message) {
	body, spans := citation.Annotate(msg.Content)
	fmt.Fprintln(w, r.render(body, spans))

	if a := msg.Analysis; a != nil {
		parts := []string{}
		if a.Domain != "" {
			parts = append(parts, "領域 "+a.Domain)
		}
		if a.RiskLevel != "" {
			risk := a.RiskLevel
			if r.color {
				risk = renderRisk(risk)
			}
			parts = append(parts, "風險 "+risk)
		}
		if len(a.Keywords) > 0 {
			parts = append(parts, "關鍵字 "+strings.Join(a.Keywords, "、"))
		}
		if len(parts) > 0 {
			fmt.Fprintln(w, r.dim(strings.Join(parts, " · ")))
		}
	}

	r.Citations(w, spans)
}

// Citations lists each distinct cited statute with its URL and an excerpt.
func (r *replyRenderer) Citations(w io.Writer, spans []citation.Span) {
	if len(spans) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.section("引用條文"))
	seen := make(map[string]bool, len(spans))
	for _, s := range spans {
		if seen[s.Label] {
			continue
		}
		seen[s.Label] = true

		label, link := s.Label, s.URL
		if r.color {
			label = citationStyle.Render(label)
			link = linkStyle.Render(link)
		}
		fmt.Fprintf(w, "  %s %s\n", label, link)
		excerpt := util.TruncateWidth(strings.Join(strings.Fields(s.Text), " "), excerptWidth)
		fmt.Fprintf(w, "    %s\n", r.dim(excerpt))
	}
}

func (r *replyRenderer) render(body string, spans []citation.Span) string {
	if r.markdown == nil {
		return strings.TrimRight(body, "\n")
	}
	out, err := r.markdown.Render(body)
	if err != nil {
		return strings.TrimRight(body, "\n")
	}
	out = strings.Trim(out, "\n")
	for _, s := range spans {
		out = strings.ReplaceAll(out, s.Label, citationStyle.Render(s.Label))
	}
	return out
}

func (r *replyRenderer) dim(s string) string {
	if !r.color {
		return s
	}
	return dimStyle.Render(s)
}

func (r *replyRenderer) section(s string) string {
	if !r.color {
		return s
	}
	return sectionStyle.Render(s)
}

// Question writes a user turn.
func (r *replyRenderer) Question(w io.Writer, msg model.Message) {
	label := msg.Role.DisplayName() + "："
	if r.color {
		label = promptStyle.Render(label)
	}
	fmt.Fprintln(w, label+msg.Content)
}

// Transcript writes a whole conversation.
func (r *replyRenderer) Transcript(w io.Writer, msgs []model.Message) {
	for i, msg := range msgs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if msg.Role == model.RoleUser {
			r.Question(w, msg)
			continue
		}
		r.Reply(w, msg)
	}
}
