// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// resetSGR clears styling so the block does not bleed into the row tail.
const resetSGR = "\x1b[0m"

// Overlay draws block over base with its top-left corner at cell (x, y). Rows of
// block that fall outside base are dropped. The part of a base row left of the block
// keeps its styling; the part to the right is redrawn as plain text.
func Overlay(base string, block []string, x, y int) string {
	if len(block) == 0 {
		return base
	}
	if x < 0 {
		x = 0
	}
	rows := strings.Split(base, "\n")
	for i, line := range block {
		row := y + i
		if row < 0 || row >= len(rows) {
			continue
		}
		w := ansi.StringWidth(line)
		orig := rows[row]

		left := ansi.Truncate(orig, x, "")
		if pad := x - ansi.StringWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		right := cutCells(ansi.Strip(orig), x+w)
		rows[row] = left + resetSGR + line + resetSGR + right
	}
	return strings.Join(rows, "\n")
}

// cutCells drops the first n cells of plain text. A wide rune split by the cut
// becomes a space.
func cutCells(plain string, n int) string {
	col := 0
	for i, r := range plain {
		if col >= n {
			if col > n {
				return " " + plain[i:]
			}
			return plain[i:]
		}
		col += runewidth.RuneWidth(r)
	}
	if col > n {
		return " "
	}
	return ""
}
