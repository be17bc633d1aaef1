// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/base64"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/lawassist-tui/internal/backend"
	"github.com/jeranaias/lawassist-tui/internal/backend/backendtest"
	"github.com/jeranaias/lawassist-tui/internal/capability"
	"github.com/jeranaias/lawassist-tui/internal/citation"
	"github.com/jeranaias/lawassist-tui/internal/config"
	"github.com/jeranaias/lawassist-tui/internal/dispatch"
	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/session"
	"github.com/jeranaias/lawassist-tui/internal/speech"
	"github.com/jeranaias/lawassist-tui/internal/storage"
	"github.com/jeranaias/lawassist-tui/internal/tooltip"
	"github.com/jeranaias/lawassist-tui/internal/ui/components"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// FIXTURES
// =============================================================================

const article184 = "因故意或過失，不法侵害他人之權利者，負損害賠償責任。"

func citationLink(text, excerpt string) string {
	return "[" + text + "](" + citation.SchemePrefix + base64.StdEncoding.EncodeToString([]byte(excerpt)) + ")"
}

var replyWithCitation = "依照 " + citationLink("民法第184條", article184) + " 你可以請求賠償。"

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) tooltip.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.fn()
	}
}

type fakeRecognizer struct {
	mu      sync.Mutex
	handler speech.Handler
}

func (r *fakeRecognizer) Start(_ context.Context, h speech.Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = h
	return nil
}

func (r *fakeRecognizer) Stop() error { return nil }

func (r *fakeRecognizer) emit(ev speech.Event) {
	r.mu.Lock()
	h := r.handler
	r.mu.Unlock()
	h(ev)
}

type prefRecorder struct {
	mu   sync.Mutex
	sets map[string]string
}

func (p *prefRecorder) Set(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sets == nil {
		p.sets = make(map[string]string)
	}
	p.sets[key] = value
	return nil
}

type harness struct {
	m       *Model
	api     *backendtest.Fake
	state   *model.State
	clock   *manualClock
	rec     *fakeRecognizer
	prefs   *prefRecorder
	clipped []string
}

func newHarness(t *testing.T, api *backendtest.Fake) *harness {
	t.Helper()
	if api == nil {
		api = &backendtest.Fake{}
	}
	cfg := config.Default()
	cfg.UI.Theme = "dark"

	h := &harness{
		api:   api,
		state: model.NewState(),
		clock: &manualClock{},
		rec:   &fakeRecognizer{},
		prefs: &prefRecorder{},
	}
	store := session.NewStore(api, h.state, "client-1", nil)
	capture := speech.NewCapture(h.rec, nil)
	d := dispatch.New(api, h.state, "client-1", nil).
		WithSpeech(capture).
		WithRefresher(store)

	h.m = New(Deps{
		Config:       cfg,
		State:        h.state,
		Sessions:     store,
		Dispatcher:   d,
		Speech:       capture,
		Capabilities: capability.Set{SpeechInput: true, ClipboardWrite: true},
		Prefs:        h.prefs,
		Clock:        h.clock,
		Clipboard: func(s string) error {
			h.clipped = append(h.clipped, s)
			return nil
		},
	})
	h.m.noticeTTL = time.Millisecond
	h.update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// update feeds msg to the model and returns the command.
func (h *harness) update(msg tea.Msg) tea.Cmd {
	_, cmd := h.m.Update(msg)
	return cmd
}

// run executes cmd, flattening batches, and feeds every result back in.
func (h *harness) run(cmd tea.Cmd) []tea.Msg {
	msgs := drain(cmd)
	for _, msg := range msgs {
		h.update(msg)
	}
	return msgs
}

func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func (h *harness) typeText(s string) {
	h.update(keyRunes(s))
}

// pending returns queued callback messages of type T.
func pendingOf[T any](h *harness) []T {
	var out []T
	for _, msg := range h.m.notify.pending() {
		if v, ok := msg.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func (h *harness) loadReply(content string) {
	h.state.ReplaceConversation("s1", []model.Message{
		model.NewUserMessage("鄰居打我怎麼辦？"),
		model.NewAssistantMessage(content, &model.AnalysisSummary{Domain: "民事", RiskLevel: "中", Keywords: []string{"侵權", "賠償"}}),
	})
	h.m.refresh()
}

func (h *harness) hitPoint(i int) (int, int) {
	hh := h.m.hits[i]
	return h.m.sidebarW + hh.col, h.m.bodyY + hh.line - h.m.viewport.YOffset
}

func (h *harness) motion(x, y int) {
	h.update(tea.MouseMsg{X: x, Y: y, Type: tea.MouseMotion})
}

func plainView(m *Model) string {
	return ansi.Strip(m.View())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func TestTranscript_LocatesCitationLabels(t *testing.T) {
	h := newHarness(t, nil)
	h.loadReply(replyWithCitation + "\n\n另見 " + citationLink("刑法第277條", "傷害人之身體或健康者。"))

	require.Len(t, h.m.hits, 2)
	lines := strings.Split(ansi.Strip(h.m.viewport.View()), "\n")
	for _, hh := range h.m.hits {
		line := lines[hh.line]
		// The label starts exactly hh.col cells into its line.
		prefix := runewidth.Truncate(line, hh.col, "")
		assert.Equal(t, hh.col, runewidth.StringWidth(prefix))
		assert.True(t, strings.HasPrefix(line[len(prefix):], hh.span.Label), "line %q", line)
	}
	assert.Equal(t, "〔民法第184條〕", h.m.hits[0].span.Label)
	assert.Equal(t, article184, h.m.hits[0].span.Text)
	assert.Contains(t, h.m.hits[0].span.URL, "pcode=B0000001")
	assert.Contains(t, h.m.hits[1].span.URL, "pcode=C0000001")
}

func TestTranscript_ShowsAnalysisAndRoles(t *testing.T) {
	h := newHarness(t, nil)
	h.loadReply("好的，以下說明。")
	plain := plainView(h.m)
	assert.Contains(t, plain, "你")
	assert.Contains(t, plain, "法律助手")
	assert.Contains(t, plain, "領域 民事")
	assert.Contains(t, plain, "風險 中")
	assert.Contains(t, plain, "侵權、賠償")
}

func TestTranscript_CachesRenderedReplies(t *testing.T) {
	tr := newTranscript(newHarness(t, nil).m.theme)
	tr.setWidth(80)
	a := tr.assistant(replyWithCitation)
	require.Len(t, tr.cache, 1)
	b := tr.assistant(replyWithCitation)
	assert.Equal(t, a.lines, b.lines)

	tr.setWidth(60)
	assert.Empty(t, tr.cache)
}

func TestLocate_WrappedLabelIsSkipped(t *testing.T) {
	spans := []citation.Span{{Label: "〔甲〕"}, {Label: "〔乙〕"}}
	hits := locate([]string{"前〔甲", "〕後 〔乙〕"}, spans)
	require.Len(t, hits, 1)
	assert.Equal(t, "〔乙〕", hits[0].span.Label)
	assert.Equal(t, 1, hits[0].line)
	assert.Equal(t, 5, hits[0].col)
}

func TestWelcomeShowsQuickTopics(t *testing.T) {
	h := newHarness(t, nil)
	plain := plainView(h.m)
	assert.Contains(t, plain, EmptyHint)
	assert.Contains(t, plain, "Alt+1")
	assert.Contains(t, plain, "租屋糾紛")
}

// =============================================================================
// CITATION HOVER
// =============================================================================

func TestHover_OpensPanelOnCitation(t *testing.T) {
	h := newHarness(t, nil)
	h.loadReply(replyWithCitation)
	require.NotEmpty(t, h.m.hits)

	x, y := h.hitPoint(0)
	h.motion(x+1, y)

	require.True(t, h.m.panelOpen)
	assert.Equal(t, "〔民法第184條〕", h.m.panelState.Label)
	assert.Equal(t, y, h.m.panelState.Anchor.Y)

	plain := plainView(h.m)
	assert.Contains(t, plain, "不法侵害")
	assert.Contains(t, plain, components.CopyLabel)
}

func TestHover_LeaveClosesAfterDelay(t *testing.T) {
	h := newHarness(t, nil)
	h.loadReply(replyWithCitation)
	x, y := h.hitPoint(0)
	h.motion(x, y)
	require.True(t, h.m.panelOpen)

	// Away from both trigger and panel.
	h.motion(0, 0)
	assert.True(t, h.m.panelOpen, "close is deferred")

	h.clock.Advance(config.Default().HoverCloseDelay())
	closes := pendingOf[hoverMsg](h)
	require.NotEmpty(t, closes)
	assert.False(t, closes[len(closes)-1].open)

	h.update(closes[len(closes)-1])
	assert.False(t, h.m.panelOpen)
}

func TestHover_MovingIntoPanelKeepsItOpen(t *testing.T) {
	h := newHarness(t, nil)
	h.loadReply(replyWithCitation)
	x, y := h.hitPoint(0)
	h.motion(x, y)
	require.True(t, h.m.panelOpen)

	b := h.m.panelView.Bounds
	h.motion(b.X+2, b.Y+2)
	assert.Equal(t, pointerPanel, h.m.pointer)

	h.clock.Advance(10 * time.Second)
	assert.True(t, h.m.hover.IsOpen())
	assert.True(t, h.m.panelOpen)
}

func TestHover_EscDismisses(t *testing.T) {
	h := newHarness(t, nil)
	h.loadReply(replyWithCitation)
	x, y := h.hitPoint(0)
	h.motion(x, y)
	require.True(t, h.m.panelOpen)

	h.update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, h.m.panelOpen)
	assert.False(t, h.m.hover.IsOpen())
}

func TestHover_ClickCopyButton(t *testing.T) {
	h := newHarness(t, nil)
	h.loadReply(replyWithCitation)
	x, y := h.hitPoint(0)
	h.motion(x, y)
	require.True(t, h.m.panelOpen)

	btn := h.m.panelView.CopyButton
	require.Equal(t, 1, btn.Height)
	cmd := h.update(tea.MouseMsg{X: btn.X, Y: btn.Y, Type: tea.MouseLeft})
	h.run(cmd)

	require.Len(t, h.clipped, 1)
	assert.True(t, strings.HasPrefix(h.clipped[0], article184+"\n"))
	assert.Contains(t, h.clipped[0], "law.moj.gov.tw")
	assert.True(t, h.m.copied)
	assert.Contains(t, plainView(h.m), components.CopiedLabel)
}

func TestHover_ClickOutsideDismisses(t *testing.T) {
	h := newHarness(t, nil)
	h.loadReply(replyWithCitation)
	x, y := h.hitPoint(0)
	h.update(tea.MouseMsg{X: x, Y: y, Type: tea.MouseLeft})
	require.True(t, h.m.panelOpen, "clicking a citation opens it")

	h.update(tea.MouseMsg{X: h.m.width - 1, Y: h.m.bodyY + h.m.viewport.Height - 1, Type: tea.MouseLeft})
	assert.False(t, h.m.panelOpen)
}

func TestHover_ScrollDismisses(t *testing.T) {
	h := newHarness(t, nil)
	h.loadReply(replyWithCitation)
	x, y := h.hitPoint(0)
	h.motion(x, y)
	require.True(t, h.m.panelOpen)

	h.update(tea.MouseMsg{X: x, Y: y, Type: tea.MouseWheelUp})
	assert.False(t, h.m.panelOpen)
}

func TestHover_NoHitsOutsideChatView(t *testing.T) {
	h := newHarness(t, nil)
	h.loadReply(replyWithCitation)
	x, y := h.hitPoint(0)

	h.update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, -1, h.m.hitAt(x, y))
}

// =============================================================================
// SENDING
// =============================================================================

func TestSend_TypedQuestion(t *testing.T) {
	api := &backendtest.Fake{
		ChatFunc: func(_ context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
			return &backend.ChatResponse{Reply: replyWithCitation, SessionID: "s-new"}, nil
		},
		ListSessionsFunc: func(context.Context, string) ([]model.Session, error) {
			return []model.Session{{ID: "s-new", Title: "闖紅燈"}}, nil
		},
	}
	h := newHarness(t, api)
	h.typeText("闖紅燈罰多少？")
	assert.Equal(t, "闖紅燈罰多少？", h.state.Input())

	cmd := h.update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, h.m.input.Value())
	assert.True(t, h.state.Loading())
	assert.Contains(t, plainView(h.m), "思考中")

	msgs := h.run(cmd)
	var sent []dispatch.SentMsg
	for _, msg := range msgs {
		if s, ok := msg.(dispatch.SentMsg); ok {
			sent = append(sent, s)
		}
	}
	require.Len(t, sent, 1)
	assert.True(t, sent[0].Outcome.Adopted)

	reqs := api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "闖紅燈罰多少？", reqs[0].Message)
	assert.Nil(t, reqs[0].SessionID)
	assert.Equal(t, string(model.StyleHumor), reqs[0].Style)

	snap := h.state.Snapshot()
	assert.Equal(t, "s-new", snap.ActiveID)
	require.Len(t, snap.Messages, 2)
	assert.False(t, snap.Loading)
	assert.NotEmpty(t, h.m.hits)
	assert.Contains(t, plainView(h.m), "闖紅燈")
}

func TestSend_ReplyShownBeforeSessionListRefresh(t *testing.T) {
	api := &backendtest.Fake{
		ChatFunc: func(context.Context, backend.ChatRequest) (*backend.ChatResponse, error) {
			return &backend.ChatResponse{Reply: "回覆", SessionID: "s-new"}, nil
		},
		ListSessionsFunc: func(context.Context, string) ([]model.Session, error) {
			return []model.Session{{ID: "s-new", Title: "借錢"}}, nil
		},
	}
	h := newHarness(t, api)
	h.typeText("借錢不還")

	var sent []dispatch.SentMsg
	for _, msg := range drain(h.update(tea.KeyMsg{Type: tea.KeyEnter})) {
		if s, ok := msg.(dispatch.SentMsg); ok {
			sent = append(sent, s)
		}
	}
	require.Len(t, sent, 1)
	assert.Equal(t, 0, api.Lists())
	assert.False(t, h.state.Loading())

	refresh := h.update(sent[0])
	assert.Contains(t, plainView(h.m), "回覆")
	assert.Equal(t, 0, api.Lists())

	h.run(refresh)
	assert.Equal(t, 1, api.Lists())
	require.Len(t, h.state.Sessions(), 1)
	assert.Equal(t, "s-new", h.state.Sessions()[0].ID)
}

func TestSend_EmptyInputIgnored(t *testing.T) {
	api := &backendtest.Fake{}
	h := newHarness(t, api)
	h.typeText("   ")
	assert.Nil(t, drain(h.update(tea.KeyMsg{Type: tea.KeyEnter})))
	assert.Empty(t, api.Requests())
	assert.Empty(t, h.state.Messages())
}

func TestSend_FailureShowsNotice(t *testing.T) {
	api := &backendtest.Fake{
		ChatFunc: func(context.Context, backend.ChatRequest) (*backend.ChatResponse, error) {
			return nil, assert.AnError
		},
	}
	h := newHarness(t, api)
	h.typeText("問題")
	cmd := h.update(tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range drain(cmd) {
		if _, ok := msg.(dispatch.SentMsg); ok {
			h.update(msg)
		}
	}
	msgs := h.state.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].Failed)
	assert.Equal(t, dispatch.FailureMessage, msgs[1].Content)
	assert.True(t, h.m.status.NoticeError)
}

func TestQuickTopic(t *testing.T) {
	api := &backendtest.Fake{}
	h := newHarness(t, api)
	cmd := h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}, Alt: true})
	h.run(cmd)

	reqs := api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "交通事故發生了什麼事？", reqs[0].Message)
}

func TestQuickTopicIndex(t *testing.T) {
	i, ok := quickTopicIndex("alt+1")
	assert.True(t, ok)
	assert.Equal(t, 0, i)
	_, ok = quickTopicIndex("alt+x")
	assert.False(t, ok)
	_, ok = quickTopicIndex("1")
	assert.False(t, ok)
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestSessions_ListLoadAndDelete(t *testing.T) {
	api := &backendtest.Fake{
		ListSessionsFunc: func(context.Context, string) ([]model.Session, error) {
			return []model.Session{{ID: "a", Title: "租屋押金"}, {ID: "b", Title: "車禍理賠"}}, nil
		},
		GetSessionFunc: func(_ context.Context, id string) ([]model.Message, error) {
			return []model.Message{model.NewUserMessage("問題 " + id), model.NewAssistantMessage("回答", nil)}, nil
		},
	}
	h := newHarness(t, api)
	h.run(h.m.Init())
	require.Equal(t, 2, h.m.sidebar.Len())
	assert.Contains(t, plainView(h.m), "租屋押金")

	// Click the second row.
	h.run(h.update(tea.MouseMsg{X: 2, Y: h.m.bodyY + components.HeaderRows + 1, Type: tea.MouseLeft}))
	id, ok := h.state.ActiveID()
	require.True(t, ok)
	assert.Equal(t, "b", id)
	assert.Contains(t, plainView(h.m), "問題 b")

	// Delete it through the dialog.
	h.update(tea.KeyMsg{Type: tea.KeyCtrlD})
	require.NotNil(t, h.m.confirm)
	assert.Contains(t, plainView(h.m), "車禍理賠")

	h.run(h.update(keyRunes("y")))
	assert.Nil(t, h.m.confirm)
	assert.Equal(t, []string{"b"}, api.Deletes())
	assert.Equal(t, 1, h.m.sidebar.Len())
	_, ok = h.state.ActiveID()
	assert.False(t, ok, "deleting the active session resets the conversation")
}

func TestSessions_DeleteCancelled(t *testing.T) {
	api := &backendtest.Fake{
		ListSessionsFunc: func(context.Context, string) ([]model.Session, error) {
			return []model.Session{{ID: "a", Title: "租屋押金"}}, nil
		},
	}
	h := newHarness(t, api)
	h.run(h.m.Init())

	h.update(tea.KeyMsg{Type: tea.KeyCtrlD})
	require.NotNil(t, h.m.confirm)
	h.update(keyRunes("n"))
	assert.Nil(t, h.m.confirm)
	assert.Empty(t, api.Deletes())
}

func TestSessions_KeyboardOpen(t *testing.T) {
	api := &backendtest.Fake{
		ListSessionsFunc: func(context.Context, string) ([]model.Session, error) {
			return []model.Session{{ID: "a"}, {ID: "b"}}, nil
		},
	}
	h := newHarness(t, api)
	h.run(h.m.Init())

	h.update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, focusSidebar, h.m.focus)
	h.run(h.update(tea.KeyMsg{Type: tea.KeyEnter}))

	id, _ := h.state.ActiveID()
	assert.Equal(t, "b", id)
	assert.Equal(t, focusInput, h.m.focus)
	assert.Empty(t, api.Requests(), "enter on the sidebar opens, it does not send")
}

func TestNewChatResets(t *testing.T) {
	h := newHarness(t, nil)
	h.loadReply("內容")
	h.update(tea.KeyMsg{Type: tea.KeyCtrlN})
	_, ok := h.state.ActiveID()
	assert.False(t, ok)
	assert.Empty(t, h.state.Messages())
	assert.Contains(t, plainView(h.m), EmptyHint)
}

// =============================================================================
// PREFERENCES, VIEWS, SPEECH, CONFIG
// =============================================================================

func TestStyleCyclesAndPersists(t *testing.T) {
	h := newHarness(t, nil)
	h.run(h.update(tea.KeyMsg{Type: tea.KeyCtrlS}))

	assert.Equal(t, model.StyleHumor.Next(), h.state.Style())
	assert.Equal(t, string(model.StyleHumor.Next()), h.prefs.sets[storage.KeyStyle])
	assert.Contains(t, plainView(h.m), model.StyleHumor.Next().Label())
}

func TestTabCyclesViews(t *testing.T) {
	h := newHarness(t, nil)
	h.update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, model.ViewTeam, h.state.View())
	plain := plainView(h.m)
	assert.Contains(t, plain, "團隊成員")
	assert.Contains(t, plain, "胡允豪")

	h.update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, model.ViewInfo, h.state.View())
	assert.Contains(t, plainView(h.m), "核心技術架構")

	h.update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, model.ViewChat, h.state.View())
}

func TestSpeech_FillsInputAndSendsFinalValue(t *testing.T) {
	api := &backendtest.Fake{}
	h := newHarness(t, api)
	h.typeText("我想問")

	h.update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.True(t, h.m.listening)

	h.rec.emit(speech.Event{Results: []speech.Result{{Transcript: "酒駕", Final: true}}})
	for _, msg := range pendingOf[speechMsg](h) {
		h.update(msg)
	}
	assert.Equal(t, "我想問酒駕", h.m.input.Value())
	assert.Contains(t, plainView(h.m), "聆聽中")

	h.run(h.update(tea.KeyMsg{Type: tea.KeyEnter}))
	reqs := api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "我想問酒駕", reqs[0].Message)

	// The stop notification arrives after the send and must not refill the input.
	for _, msg := range pendingOf[speechMsg](h) {
		h.update(msg)
	}
	assert.Empty(t, h.m.input.Value())
	assert.False(t, h.m.listening)
}

func TestSpeech_Unavailable(t *testing.T) {
	h := newHarness(t, nil)
	h.m.caps.SpeechInput = false
	h.update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.False(t, h.m.listening)
	assert.True(t, h.m.status.NoticeError)
}

func TestConfigReload(t *testing.T) {
	h := newHarness(t, nil)
	require.Positive(t, h.m.sidebarW)

	cfg := config.Default()
	cfg.UI.Mouse = false
	cfg.UI.SidebarWidth = 0
	cfg.UI.Hyperlinks = false
	cfg.Chat.QuickTopics = []string{"勞資爭議"}

	cmd := h.update(configReloadedMsg{cfg: cfg})
	assert.NotNil(t, cmd)
	assert.Zero(t, h.m.sidebarW)
	assert.False(t, h.m.mouse)
	assert.Equal(t, 120, h.m.viewport.Width)
	assert.Contains(t, plainView(h.m), "勞資爭議")

	h.update(configReloadedMsg{err: assert.AnError})
	assert.True(t, h.m.status.NoticeError)
}

func TestNarrowTerminalHidesSidebar(t *testing.T) {
	h := newHarness(t, nil)
	h.update(tea.WindowSizeMsg{Width: 50, Height: 20})
	assert.Zero(t, h.m.sidebarW)
	assert.Equal(t, 50, h.m.viewport.Width)
	for _, line := range strings.Split(h.m.View(), "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 50)
	}
}

func TestQuit(t *testing.T) {
	h := newHarness(t, nil)
	cmd := h.update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, h.m.View())
}

// =============================================================================
// CALLBACK QUEUE
// =============================================================================

func TestNotifier_DeliversInOrder(t *testing.T) {
	n := newNotifier()
	got := make(chan tea.Msg, 3)
	done := make(chan struct{})
	go func() {
		n.run(func(msg tea.Msg) { got <- msg })
		close(done)
	}()

	n.post(noticeExpiredMsg{seq: 1})
	n.post(noticeExpiredMsg{seq: 2})
	n.post(noticeExpiredMsg{seq: 3})
	for want := 1; want <= 3; want++ {
		select {
		case msg := <-got:
			assert.Equal(t, noticeExpiredMsg{seq: want}, msg)
		case <-time.After(2 * time.Second):
			t.Fatal("message not delivered")
		}
	}

	n.close()
	<-done
	n.post(noticeExpiredMsg{seq: 4})
	assert.Empty(t, n.pending())
}
