// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/lawassist-tui/internal/citation"
	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
)

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// EmptyHint is shown when the conversation has no messages.
const EmptyHint = "還沒有對話紀錄，試著問問看「闖紅燈罰多少？」"

// maxCachedBlocks bounds the rendered-reply cache.
const maxCachedBlocks = 256

// hit is a citation label's position in the rendered transcript. line is the
// transcript line, col and width are in cells.
type hit struct {
	line  int
	col   int
	width int
	span  citation.Span
}

func (h hit) contains(line, col int) bool {
	return h.line == line && col >= h.col && col < h.col+h.width
}

// block is one rendered assistant reply. Hit lines are relative to the block.
type block struct {
	lines []string
	hits  []hit
}

// transcript renders messages at a fixed width and remembers rendered replies.
type transcript struct {
	theme    *styles.Theme
	width    int
	markdown *glamour.TermRenderer
	cache    map[string]block
}

func newTranscript(theme *styles.Theme) *transcript {
	return &transcript{theme: theme, cache: make(map[string]block)}
}

// setWidth changes the wrap width. The markdown renderer and the cache are
// rebuilt lazily.
func (t *transcript) setWidth(width int) {
	if width == t.width {
		return
	}
	t.width = width
	t.markdown = nil
	t.cache = make(map[string]block)
}

// render lays out the whole conversation and returns it with every citation hit.
func (t *transcript) render(msgs []model.Message, loading bool) (string, []hit) {
	if len(msgs) == 0 && !loading {
		return "", nil
	}

	var lines []string
	var hits []hit
	for i, msg := range msgs {
		if i > 0 {
			lines = append(lines, "")
		}
		switch {
		case msg.Role == model.RoleUser:
			lines = append(lines, t.theme.UserLabel.Render(msg.Role.DisplayName()))
			lines = append(lines, t.userBody(msg.Content)...)

		case msg.Failed:
			lines = append(lines, t.theme.AssistantLabel.Render(msg.Role.DisplayName()))
			lines = append(lines, t.theme.FailedBubble.Render(msg.Content))

		default:
			lines = append(lines, t.theme.AssistantLabel.Render(msg.Role.DisplayName()))
			b := t.assistant(msg.Content)
			for _, h := range b.hits {
				h.line += len(lines)
				hits = append(hits, h)
			}
			lines = append(lines, b.lines...)
			if a := t.analysis(msg.Analysis); a != "" {
				lines = append(lines, a)
			}
		}
	}

	if loading {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines,
			t.theme.AssistantLabel.Render(model.RoleAssistant.DisplayName()),
			t.theme.AnalysisBadge.Render("思考中…"),
		)
	}
	return strings.Join(lines, "\n"), hits
}

func (t *transcript) userBody(content string) []string {
	w := t.width - 2
	if w < 10 {
		w = 10
	}
	return strings.Split(t.theme.UserBubble.Width(w).Render(content), "\n")
}

func (t *transcript) analysis(a *model.AnalysisSummary) string {
	if a == nil {
		return ""
	}
	var parts []string
	if a.Domain != "" {
		parts = append(parts, "領域 "+a.Domain)
	}
	if a.RiskLevel != "" {
		parts = append(parts, "風險 "+t.theme.RiskBadge(a.RiskLevel))
	}
	if len(a.Keywords) > 0 {
		parts = append(parts, "關鍵字 "+strings.Join(a.Keywords, "、"))
	}
	if len(parts) == 0 {
		return ""
	}
	return t.theme.AnalysisBadge.Render(strings.Join(parts, " · "))
}

// assistant renders one reply through glamour and locates its citation labels.
func (t *transcript) assistant(content string) block {
	if b, ok := t.cache[content]; ok {
		return b
	}

	annotated, spans := citation.Annotate(content)
	out := t.markdownRender(annotated)
	lines := strings.Split(out, "\n")
	hits := locate(lines, spans)
	styleLabels(lines, hits, t.theme.Citation)

	b := block{lines: lines, hits: hits}
	if len(t.cache) >= maxCachedBlocks {
		t.cache = make(map[string]block)
	}
	t.cache[content] = b
	return b
}

func (t *transcript) markdownRender(src string) string {
	if t.markdown == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(t.theme.GlamourStyle()),
			glamour.WithWordWrap(t.wrapWidth()),
		)
		if err == nil {
			t.markdown = r
		}
	}
	if t.markdown != nil {
		if out, err := t.markdown.Render(src); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return lipgloss.NewStyle().Width(t.wrapWidth()).Render(src)
}

func (t *transcript) wrapWidth() int {
	if t.width < 20 {
		return 20
	}
	return t.width - 2
}

// locate finds each span's label in the rendered lines, in document order. A label
// that glamour wrapped across lines is not found and gets no hit.
func locate(lines []string, spans []citation.Span) []hit {
	if len(spans) == 0 {
		return nil
	}
	plain := make([]string, len(lines))
	for i, l := range lines {
		plain[i] = ansi.Strip(l)
	}

	var hits []hit
	line, from := 0, 0
	for _, s := range spans {
		l, idx, ok := search(plain, s.Label, line, from)
		if !ok {
			continue
		}
		hits = append(hits, hit{
			line:  l,
			col:   runewidth.StringWidth(plain[l][:idx]),
			width: runewidth.StringWidth(s.Label),
			span:  s,
		})
		line, from = l, idx+len(s.Label)
	}
	return hits
}

func search(plain []string, label string, line, from int) (int, int, bool) {
	for l := line; l < len(plain); l++ {
		start := 0
		if l == line {
			start = from
		}
		if start > len(plain[l]) {
			continue
		}
		if i := strings.Index(plain[l][start:], label); i >= 0 {
			return l, start + i, true
		}
	}
	return 0, 0, false
}

// styleLabels highlights hit labels in place. Labels whose bytes glamour split
// with escape sequences stay unstyled but remain hoverable.
func styleLabels(lines []string, hits []hit, st lipgloss.Style) {
	done := make(map[int]map[string]bool)
	for _, h := range hits {
		if done[h.line] == nil {
			done[h.line] = make(map[string]bool)
		}
		if done[h.line][h.span.Label] {
			continue
		}
		done[h.line][h.span.Label] = true
		lines[h.line] = strings.ReplaceAll(lines[h.line], h.span.Label, st.Render(h.span.Label))
	}
}
