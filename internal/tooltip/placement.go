// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tooltip positions the citation preview panel and decides when it opens and
// closes.
package tooltip

// =============================================================================
// GEOMETRY
// =============================================================================

// Rect is a rectangle in viewport coordinates. For the terminal UI the unit is one cell.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Top returns the top edge.
func (r Rect) Top() int { return r.Y }

// Bottom returns the bottom edge (exclusive).
func (r Rect) Bottom() int { return r.Y + r.Height }

// Right returns the right edge (exclusive).
func (r Rect) Right() int { return r.X + r.Width }

// CenterX returns the horizontal midpoint.
func (r Rect) CenterX() int { return r.X + r.Width/2 }

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Size is the viewport size.
type Size struct {
	Width, Height int
}

// Arrow is the direction the panel's pointer faces.
type Arrow int

const (
	// ArrowUp: panel sits below the trigger, arrow points up at it.
	ArrowUp Arrow = iota
	// ArrowDown: panel sits above the trigger, arrow points down at it.
	ArrowDown
)

func (a Arrow) String() string {
	if a == ArrowDown {
		return "down"
	}
	return "up"
}

// =============================================================================
// PLACEMENT
// =============================================================================

// Options holds the placement constants. DefaultOptions matches the web layout; the
// terminal UI scales them to cells.
type Options struct {
	PanelWidth  int
	MarginLeft  int
	MarginRight int
	Gap         int
}

// DefaultOptions returns the reference layout: 360 wide, 10/20 margins, 12 gap.
func DefaultOptions() Options {
	return Options{
		PanelWidth:  360,
		MarginLeft:  10,
		MarginRight: 20,
		Gap:         12,
	}
}

// Placement is where the panel goes.
type Placement struct {
	Left int
	// Top is the panel's top edge when Arrow is ArrowUp, and its bottom edge when
	// Arrow is ArrowDown (the panel grows upward from there).
	Top         int
	Arrow       Arrow
	ArrowOffset int
}

// GrowsUp reports whether the panel extends upward from Top.
func (p Placement) GrowsUp() bool { return p.Arrow == ArrowDown }

// Bounds returns the panel rectangle for a given rendered height.
func (p Placement) Bounds(width, height int) Rect {
	if p.GrowsUp() {
		return Rect{X: p.Left, Y: p.Top - height, Width: width, Height: height}
	}
	return Rect{X: p.Left, Y: p.Top, Width: width, Height: height}
}

// Place computes the panel position for a trigger rectangle.
//
// Horizontally the panel is centred on the trigger and clamped to
// [MarginLeft, viewport.Width-PanelWidth-MarginRight]; the left margin wins when the
// viewport is too narrow for both. Vertically it goes below a trigger in the upper half
// of the viewport and above one in the lower half.
func Place(trigger Rect, viewport Size, opts Options) Placement {
	centerX := trigger.CenterX()

	left := centerX - opts.PanelWidth/2
	if maxLeft := viewport.Width - opts.PanelWidth - opts.MarginRight; left > maxLeft {
		left = maxLeft
	}
	if left < opts.MarginLeft {
		left = opts.MarginLeft
	}

	p := Placement{Left: left, ArrowOffset: centerX - left}
	if 2*trigger.Top() < viewport.Height {
		p.Top = trigger.Bottom() + opts.Gap
		p.Arrow = ArrowUp
	} else {
		p.Top = trigger.Top() - opts.Gap
		p.Arrow = ArrowDown
	}
	return p
}
