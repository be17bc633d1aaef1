// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	Mode         string
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER AND VIEW TABS
	// ==========================================================================

	Header        lipgloss.Style
	HeaderTitle   lipgloss.Style
	HeaderTagline lipgloss.Style
	Tab           lipgloss.Style
	TabActive     lipgloss.Style

	// ==========================================================================
	// SESSION SIDEBAR
	// ==========================================================================

	Sidebar         lipgloss.Style
	SidebarTitle    lipgloss.Style
	SessionItem     lipgloss.Style
	SessionSelected lipgloss.Style
	SessionActive   lipgloss.Style
	SidebarHint     lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel       lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantLabel  lipgloss.Style
	AssistantBubble lipgloss.Style
	FailedBubble    lipgloss.Style
	AnalysisBadge   lipgloss.Style
	EmptyHint       lipgloss.Style
	Citation        lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS BAR
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
	Listening        lipgloss.Style
	StatusBar        lipgloss.Style
	StatusKey        lipgloss.Style
	StatusValue      lipgloss.Style
	StatusError      lipgloss.Style
	Spinner          lipgloss.Style
	QuickTopic       lipgloss.Style

	// ==========================================================================
	// CITATION PANEL
	// ==========================================================================

	Panel       lipgloss.Style
	PanelTitle  lipgloss.Style
	PanelBody   lipgloss.Style
	PanelLink   lipgloss.Style
	PanelButton lipgloss.Style
	PanelArrow  lipgloss.Style

	// ==========================================================================
	// MODAL AND INFO VIEWS
	// ==========================================================================

	Modal       lipgloss.Style
	ModalTitle  lipgloss.Style
	Section     lipgloss.Style
	MemberName  lipgloss.Style
	MemberRole  lipgloss.Style
	Paragraph   lipgloss.Style
	ErrorText   lipgloss.Style
	SuccessText lipgloss.Style
}

// NewTheme creates a theme. mode is "auto" (follow the terminal), "dark" or "light".
func NewTheme(mode string) *Theme {
	isDark := true
	switch mode {
	case ModeDark:
		lipgloss.SetHasDarkBackground(true)
	case ModeLight:
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	default:
		mode = ModeAuto
		isDark = lipgloss.HasDarkBackground()
	}

	t := &Theme{
		Mode:         mode,
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// GlamourStyle returns the glamour standard style matching the background.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return ModeDark
	}
	return ModeLight
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.HeaderTagline = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.Tab = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.TabActive = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true).
		Underline(true).
		Padding(0, 1)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary).
		MarginBottom(1)

	t.SessionItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SessionSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SurfaceBright)

	t.SessionActive = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.SidebarHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Teal).
		PaddingLeft(1)

	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.AssistantBubble = lipgloss.NewStyle()

	t.FailedBubble = lipgloss.NewStyle().
		Foreground(Rose).
		Background(RoseDeep).
		Padding(0, 1)

	t.AnalysisBadge = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.EmptyHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Padding(1, 2)

	t.Citation = lipgloss.NewStyle().
		Foreground(Gold).
		Underline(true)

	// Input and status bar
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.Listening = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusKey = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.StatusValue = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.StatusError = lipgloss.NewStyle().
		Foreground(Rose)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Indigo)

	t.QuickTopic = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Citation panel
	t.Panel = lipgloss.NewStyle().
		Background(GoldDeep).
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Gold).
		Padding(0, 1)

	t.PanelTitle = lipgloss.NewStyle().
		Foreground(Gold).
		Bold(true)

	t.PanelBody = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.PanelLink = lipgloss.NewStyle().
		Foreground(LinkColor).
		Underline(true)

	t.PanelButton = lipgloss.NewStyle().
		Foreground(SurfaceDim).
		Background(Gold).
		Padding(0, 1)

	t.PanelArrow = lipgloss.NewStyle().
		Foreground(Gold)

	// Modal and info views
	t.Modal = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Rose).
		Padding(1, 2)

	t.ModalTitle = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.Section = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true).
		MarginTop(1)

	t.MemberName = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Bold(true)

	t.MemberRole = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.Paragraph = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose)

	t.SuccessText = lipgloss.NewStyle().
		Foreground(Emerald)
}

// RiskBadge renders a risk level in its color.
func (t *Theme) RiskBadge(level string) string {
	return lipgloss.NewStyle().Foreground(RiskColor(level)).Bold(true).Render(level)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns, sidebar hidden
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
