// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/lawassist-tui/internal/capability"
	"github.com/jeranaias/lawassist-tui/internal/config"
	"github.com/jeranaias/lawassist-tui/internal/dispatch"
	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/session"
	"github.com/jeranaias/lawassist-tui/internal/speech"
	"github.com/jeranaias/lawassist-tui/internal/tooltip"
	"github.com/jeranaias/lawassist-tui/internal/ui/components"
	"github.com/jeranaias/lawassist-tui/internal/ui/styles"
	"github.com/jeranaias/lawassist-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// minSidebarLayout is the narrowest terminal that still shows the sidebar.
	minSidebarLayout = 60
	minSidebarWidth  = 16

	noticeTTL   = 4 * time.Second
	prefTimeout = 2 * time.Second

	// wheelLines is how far one wheel notch scrolls.
	wheelLines = 3

	inputPlaceholder = "描述你遇到的狀況，例如：房東不退押金怎麼辦？"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// pointerRegion is what the mouse is over, for hover transitions.
type pointerRegion int

const (
	pointerNone pointerRegion = iota
	pointerTrigger
	pointerPanel
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// PrefWriter persists a preference.
type PrefWriter interface {
	Set(ctx context.Context, key, value string) error
}

// Deps wires the model to the rest of the client. Config, State, Sessions and
// Dispatcher are required.
type Deps struct {
	Config *config.Config
	// ConfigPath is watched for changes by Run. Empty disables reloading.
	ConfigPath string

	State      *model.State
	Sessions   *session.Store
	Dispatcher *dispatch.Dispatcher

	// Speech may be nil when voice input is not configured.
	Speech       *speech.Capture
	Capabilities capability.Set
	Prefs        PrefWriter
	Logger       *zap.Logger
	// LogLevel, when set, follows logging.level on config reload.
	LogLevel     *zap.AtomicLevel

	// Clock drives the hover close delay. Nil means the system clock.
	Clock tooltip.Clock
	// Clipboard writes text to the system clipboard. Nil means atotto/clipboard.
	Clipboard func(string) error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the chat screen.
type Model struct {
	// Wiring
	state      *model.State
	sessions   *session.Store
	dispatcher *dispatch.Dispatcher
	capture    *speech.Capture
	caps       capability.Set
	prefs      PrefWriter
	logger     *zap.Logger
	logLevel   *zap.AtomicLevel
	clipboard  func(string) error
	hover      *tooltip.Controller
	notify     *notifier

	// Presentation
	theme      *styles.Theme
	keys       KeyMap
	header     *components.Header
	sidebar    *components.SessionList
	status     *components.StatusBar
	panel      *components.CitationPanel
	confirm    *components.ConfirmDialog
	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	transcript *transcript

	// Settings that follow the config file
	hyperlinks  bool
	mouse       bool
	sidebarPref int
	quickTopics []string

	// Layout
	width    int
	height   int
	bodyY    int
	sidebarW int
	ready    bool
	quitting bool

	// Interaction
	focus      focusArea
	listening  bool
	hits       []hit
	shownView  model.View
	shownEpoch uint64
	shownCount int

	// Pointer and citation panel
	pointer    pointerRegion
	pointerHit int
	panelOpen  bool
	panelState tooltip.State
	panelView  components.PanelView
	copied     bool

	noticeSeq int
	noticeTTL time.Duration
}

// New creates the chat model and registers its callbacks.
func New(d Deps) *Model {
	cfg := d.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := d.Clock
	if clock == nil {
		clock = tooltip.SystemClock{}
	}
	clip := d.Clipboard
	if clip == nil {
		clip = clipboard.WriteAll
	}

	theme := styles.NewTheme(cfg.UI.Theme)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Placeholder = inputPlaceholder
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.SetValue(d.State.Input())
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = false

	m := &Model{
		state:       d.State,
		sessions:    d.Sessions,
		dispatcher:  d.Dispatcher,
		capture:     d.Speech,
		caps:        d.Capabilities,
		prefs:       d.Prefs,
		logger:      logger,
		logLevel:    d.LogLevel,
		clipboard:   clip,
		hover:       tooltip.NewController(clock),
		notify:      newNotifier(),
		theme:       theme,
		keys:        DefaultKeyMap(),
		header:      components.NewHeader(theme),
		sidebar:     components.NewSessionList(theme),
		status:      components.NewStatusBar(theme),
		panel:       components.NewCitationPanel(theme),
		input:       ti,
		viewport:    vp,
		spinner:     styles.LoadingSpinner(theme),
		transcript:  newTranscript(theme),
		hyperlinks:  cfg.UI.Hyperlinks,
		mouse:       cfg.UI.Mouse,
		sidebarPref: cfg.UI.SidebarWidth,
		quickTopics: append([]string(nil), cfg.Chat.QuickTopics...),
		shownView:   -1,
		pointerHit:  -1,
		noticeTTL:   noticeTTL,
	}
	m.hover.SetDelay(cfg.HoverCloseDelay())
	m.hover.OnChange(func(open bool, s tooltip.State) {
		m.notify.post(hoverMsg{open: open, state: s})
	})
	if m.capture != nil {
		m.capture.OnUpdate(func(value string, listening bool) {
			m.notify.post(speechMsg{value: value, listening: listening})
		})
	}
	m.sidebar.SetSessions(d.State.Sessions())
	if id, ok := d.State.ActiveID(); ok {
		m.sidebar.SetActive(id)
	}
	return m
}

// Init starts the cursor blink and the first session list fetch.
func (m *Model) Init() tea.Cmd {
	m.sidebar.SetLoading(true)
	return tea.Batch(textinput.Blink, m.sessions.ListCmd())
}

// speechAvailable reports whether voice input can be started.
func (m *Model) speechAvailable() bool {
	return m.caps.SpeechInput && m.capture != nil && m.capture.Available()
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) inputView() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

// layout recomputes every region from the terminal size.
func (m *Model) layout() {
	m.theme.SetSize(m.width, m.height)
	m.header.SetWidth(m.width)
	m.status.SetWidth(m.width)

	m.sidebarW = 0
	if m.width >= minSidebarLayout && m.sidebarPref > 0 {
		sw := m.sidebarPref
		if sw > m.width/3 {
			sw = m.width / 3
		}
		if sw < minSidebarWidth {
			sw = minSidebarWidth
		}
		m.sidebarW = sw
	}

	m.input.Width = m.width - lipgloss.Width(m.input.Prompt) - 2
	if m.input.Width < 1 {
		m.input.Width = 1
	}
	// textinput clips the placeholder by rune count, not cells.
	m.input.Placeholder = util.TruncateWidth(inputPlaceholder, m.input.Width)

	headerH := lipgloss.Height(m.header.Render())
	inputH := lipgloss.Height(m.inputView())
	statusH := lipgloss.Height(m.status.View())
	bodyH := m.height - headerH - inputH - statusH
	if bodyH < 1 {
		bodyH = 1
	}

	m.bodyY = headerH
	if m.sidebarW > 0 {
		m.sidebar.SetSize(m.sidebarW, bodyH)
	}
	m.viewport.Width = m.width - m.sidebarW
	m.viewport.Height = bodyH
	m.transcript.setWidth(m.viewport.Width)
	m.ready = true
}

// =============================================================================
// CONTENT
// =============================================================================

// refresh rebuilds the viewport content and the hit map from the shared state.
func (m *Model) refresh() {
	snap := m.state.Snapshot()

	m.header.SetView(snap.View)
	m.status.Style = snap.Style
	m.status.Speech = m.speechAvailable()
	m.status.Listening = m.listening
	m.status.Clipboard = m.caps.ClipboardWrite
	m.status.Loading = snap.Loading
	if snap.Loading {
		m.status.SpinnerView = m.spinner.View()
	}
	m.sidebar.SetActive(snap.ActiveID)

	if !m.ready {
		return
	}

	var content string
	m.hits = nil
	switch snap.View {
	case model.ViewTeam:
		content = m.teamPage()
	case model.ViewInfo:
		content = m.infoPage()
	default:
		if len(snap.Messages) == 0 && !snap.Loading {
			content = m.welcome()
		} else {
			content, m.hits = m.transcript.render(snap.Messages, snap.Loading)
		}
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(content)

	switch {
	case snap.View != m.shownView:
		if snap.View == model.ViewChat {
			m.viewport.GotoBottom()
		} else {
			m.viewport.GotoTop()
		}
	case snap.View == model.ViewChat && (snap.Epoch != m.shownEpoch || len(snap.Messages) != m.shownCount):
		m.viewport.GotoBottom()
	case atBottom:
		m.viewport.GotoBottom()
	}

	// The panel is anchored to transcript coordinates that just moved.
	if m.panelOpen && (snap.View != m.shownView || snap.Epoch != m.shownEpoch || len(snap.Messages) != m.shownCount) {
		m.hover.Dismiss()
		m.syncHover()
	}

	m.shownView = snap.View
	m.shownEpoch = snap.Epoch
	m.shownCount = len(snap.Messages)
}

// =============================================================================
// NOTICES
// =============================================================================

// setNotice shows a transient status message.
func (m *Model) setNotice(text string, isErr bool) tea.Cmd {
	m.noticeSeq++
	seq := m.noticeSeq
	m.status.Notice = text
	m.status.NoticeError = isErr
	return tea.Tick(m.noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}
