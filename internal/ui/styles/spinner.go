// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// DotsSpinner is the three-dot animation shown while a reply is pending.
var DotsSpinner = spinner.Spinner{
	Frames: []string{".  ", ".. ", "...", " ..", "  .", "   "},
	FPS:    time.Second / 6,
}

// LoadingSpinner returns a spinner model styled for the theme.
func LoadingSpinner(t *Theme) spinner.Model {
	return spinner.New(
		spinner.WithSpinner(DotsSpinner),
		spinner.WithStyle(t.Spinner),
	)
}
