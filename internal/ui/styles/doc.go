// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the lawassist TUI and CLI.

All colors use Lip Gloss AdaptiveColor so they follow the terminal background.
A Theme can also be pinned to dark or light through the ui.theme setting.

# Color System (colors.go)

  - Indigo - brand color, headers, active session marker
  - Teal - user messages, prompts
  - Gold - citation spans and the statute preview panel
  - Emerald / Amber / Rose - low, medium and high risk analysis badges

# Theme (theme.go)

Theme groups the lipgloss styles for each screen region: header, view tabs,
session sidebar, message bubbles, input line, status bar, citation panel and
the confirmation modal.

	theme := styles.NewTheme("auto")
	theme.SetSize(width, height)
	header := theme.Header.Render("法律小幫手")

# Spinner (spinner.go)

LoadingSpinner returns the bubbles spinner shown while a reply is pending.
*/
package styles
