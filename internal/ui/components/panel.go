// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/lawassist-tui/internal/tooltip"
	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
	"github.com/jeranaias/lawassist-tui/internal/util"
)

// =============================================================================
// CITATION PANEL
// =============================================================================

const (
	// CellUnit is how many layout units one terminal cell stands for.
	CellUnit = 8
	// MinPanelWidth is the narrowest panel in cells.
	MinPanelWidth = 24

	maxBodyLines = 10
	// border + padding on each side
	panelChrome = 2
)

// Labels shown in the panel.
const (
	LinkLabel   = "查看全國法規資料庫"
	CopyLabel   = "c 複製"
	CopiedLabel = "已複製"
)

// CellOptions converts the reference placement constants to cells.
func CellOptions() tooltip.Options {
	ref := tooltip.DefaultOptions()
	width := ref.PanelWidth / CellUnit
	if width < MinPanelWidth {
		width = MinPanelWidth
	}
	return tooltip.Options{
		PanelWidth:  width,
		MarginLeft:  scaleCells(ref.MarginLeft),
		MarginRight: scaleCells(ref.MarginRight),
		Gap:         scaleCells(ref.Gap),
	}
}

func scaleCells(units int) int {
	if c := units / CellUnit; c > 0 {
		return c
	}
	return 1
}

// PanelOptions selects optional panel parts.
type PanelOptions struct {
	// Hyperlinks renders the statute URL as an OSC 8 link instead of raw text.
	Hyperlinks bool
	// CanCopy shows the copy button.
	CanCopy bool
	// Copied swaps the copy button label for a confirmation.
	Copied bool
}

// PanelView is a rendered panel and the screen regions it occupies.
type PanelView struct {
	Lines      []string
	Bounds     tooltip.Rect
	CopyButton tooltip.Rect
}

// CitationPanel renders the statute preview.
type CitationPanel struct {
	theme *styles.Theme
	width int
}

// NewCitationPanel creates a panel with the cell-scaled width.
func NewCitationPanel(theme *styles.Theme) *CitationPanel {
	return &CitationPanel{theme: theme, width: CellOptions().PanelWidth}
}

// Width returns the panel width in cells, arrow row included.
func (p *CitationPanel) Width() int {
	return p.width
}

// Render lays out the panel for an open state at the given placement.
func (p *CitationPanel) Render(s tooltip.State, pl tooltip.Placement, opts PanelOptions) PanelView {
	inner := p.width - 2*panelChrome

	var body []string
	body = append(body, p.theme.PanelTitle.Render(util.TruncateWidth(s.Label, inner)))

	wrapped := lipgloss.NewStyle().Width(inner).Render(strings.TrimSpace(s.Content))
	textLines := strings.Split(wrapped, "\n")
	if len(textLines) > maxBodyLines {
		textLines = textLines[:maxBodyLines]
		last := strings.TrimRight(textLines[maxBodyLines-1], " ")
		textLines[maxBodyLines-1] = util.TruncateWidth(last, inner-1) + util.Ellipsis
	}
	for _, l := range textLines {
		body = append(body, p.theme.PanelBody.Render(l))
	}

	if s.LinkURL != "" {
		body = append(body, "")
		if opts.Hyperlinks {
			body = append(body, termenv.Hyperlink(s.LinkURL, p.theme.PanelLink.Render(LinkLabel)))
		} else {
			body = append(body, p.theme.PanelLink.Render(util.TruncateWidth(s.LinkURL, inner)))
		}
	}

	buttonRow := -1
	button := ""
	if opts.CanCopy {
		label := CopyLabel
		if opts.Copied {
			label = CopiedLabel
		}
		button = p.theme.PanelButton.Render(label)
		body = append(body, "")
		buttonRow = len(body)
		body = append(body, button)
	}

	box := p.theme.Panel.Width(p.width - 2).Render(strings.Join(body, "\n"))
	boxLines := strings.Split(box, "\n")

	arrow := p.arrowLine(pl)
	var lines []string
	boxOffset := 0
	if pl.GrowsUp() {
		lines = append(boxLines, arrow)
	} else {
		lines = append([]string{arrow}, boxLines...)
		boxOffset = 1
	}

	view := PanelView{
		Lines:  lines,
		Bounds: pl.Bounds(p.width, len(lines)),
	}
	if buttonRow >= 0 {
		// +1 for the top border row
		view.CopyButton = tooltip.Rect{
			X:      view.Bounds.X + panelChrome,
			Y:      view.Bounds.Y + boxOffset + 1 + buttonRow,
			Width:  lipgloss.Width(button),
			Height: 1,
		}
	}
	return view
}

func (p *CitationPanel) arrowLine(pl tooltip.Placement) string {
	glyph := "^"
	if pl.GrowsUp() {
		glyph = "v"
	}
	off := pl.ArrowOffset
	if off < 1 {
		off = 1
	}
	if off > p.width-2 {
		off = p.width - 2
	}
	return strings.Repeat(" ", off) + p.theme.PanelArrow.Render(glyph) + strings.Repeat(" ", p.width-off-1)
}
