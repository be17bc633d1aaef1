// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/lawassist-tui/internal/backend"
	"github.com/jeranaias/lawassist-tui/internal/backend/backendtest"
	"github.com/jeranaias/lawassist-tui/internal/model"
	"github.com/jeranaias/lawassist-tui/internal/server"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	)
}

type fakeSpeech struct {
	mu        sync.Mutex
	listening bool
	final     string
	stops     int
}

func (f *fakeSpeech) Listening() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listening
}

func (f *fakeSpeech) Stop() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listening = false
	f.stops++
	return f.final
}

type countingRefresher struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRefresher) ListSessions(context.Context) ([]model.Session, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return nil, nil
}

// blockingRefresher holds ListSessions until released.
type blockingRefresher struct {
	entered chan struct{}
	release chan struct{}
}

func (r *blockingRefresher) ListSessions(context.Context) ([]model.Session, error) {
	close(r.entered)
	<-r.release
	return nil, errors.New("list timed out")
}

func reply(text, sessionID string) func(context.Context, backend.ChatRequest) (*backend.ChatResponse, error) {
	return func(context.Context, backend.ChatRequest) (*backend.ChatResponse, error) {
		return &backend.ChatResponse{Reply: text, SessionID: sessionID}, nil
	}
}

// =============================================================================
// REJECTIONS
// =============================================================================

func TestSend_RejectsBlank(t *testing.T) {
	api := &backendtest.Fake{}
	st := model.NewState()
	d := New(api, st, "c1", nil)

	_, err := d.Send(context.Background(), "   \n", Context{})
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, api.Requests())
	assert.Empty(t, st.Messages())
	assert.False(t, d.InFlight())
}

func TestSend_RejectsConcurrent(t *testing.T) {
	st := model.NewState()
	d := New(&backendtest.Fake{ChatFunc: reply("ok", "s")}, st, "c1", nil)

	p, err := d.Begin("first", Context{})
	require.NoError(t, err)

	_, err = d.Begin("second", Context{})
	assert.ErrorIs(t, err, ErrSendInFlight)
	assert.Len(t, st.Messages(), 1)

	p.Complete(context.Background())
	assert.False(t, d.InFlight())
	_, err = d.Begin("third", Context{})
	assert.NoError(t, err)
}

// =============================================================================
// SUCCESS
// =============================================================================

func TestSend_Success(t *testing.T) {
	analysis := &model.AnalysisSummary{Domain: "交通", RiskLevel: "中", Keywords: []string{"紅燈"}}
	api := &backendtest.Fake{
		ChatFunc: func(_ context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
			return &backend.ChatResponse{Reply: "罰鍰1800元起", Analysis: analysis, SessionID: "s-1"}, nil
		},
	}
	st := model.NewState()
	st.SetView(model.ViewTeam)
	st.SetInput("闖紅燈罰多少？")
	refresher := &countingRefresher{}
	d := New(api, st, "c1", nil).WithRefresher(refresher)

	out, err := d.SendInput(context.Background(), Context{Style: model.StyleConcise})
	require.NoError(t, err)
	assert.True(t, out.Adopted)
	assert.Equal(t, "s-1", out.SessionID)

	reqs := api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "闖紅燈罰多少？", reqs[0].Message)
	assert.Equal(t, "concise", reqs[0].Style)
	assert.Equal(t, "c1", reqs[0].ClientID)
	assert.Nil(t, reqs[0].SessionID)

	snap := st.Snapshot()
	want := []model.Message{
		model.NewUserMessage("闖紅燈罰多少？"),
		model.NewAssistantMessage("罰鍰1800元起", analysis),
	}
	if diff := cmp.Diff(want, snap.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "s-1", snap.ActiveID)
	assert.Equal(t, model.ViewChat, snap.View)
	assert.Equal(t, "", snap.Input)
	assert.False(t, snap.Loading)
	assert.Equal(t, 1, refresher.calls)
}

func TestSend_ReusesActiveSession(t *testing.T) {
	api := &backendtest.Fake{ChatFunc: reply("a", "s-1")}
	st := model.NewState()
	st.ReplaceConversation("s-1", nil)
	refresher := &countingRefresher{}
	d := New(api, st, "c1", nil).WithRefresher(refresher)

	out, err := d.Send(context.Background(), "q", Context{})
	require.NoError(t, err)
	assert.False(t, out.Adopted)
	require.NotNil(t, api.Requests()[0].SessionID)
	assert.Equal(t, "s-1", *api.Requests()[0].SessionID)
	assert.Equal(t, 0, refresher.calls, "no new session, no refresh")
}

// A slow session list must not hold the reply or block the next question.
func TestSend_RefreshRunsAfterGateIsReleased(t *testing.T) {
	api := &backendtest.Fake{ChatFunc: reply("a", "s-1")}
	st := model.NewState()
	refresher := &blockingRefresher{entered: make(chan struct{}), release: make(chan struct{})}
	d := New(api, st, "c1", nil).WithRefresher(refresher)

	done := make(chan Outcome, 1)
	go func() {
		out, _ := d.Send(context.Background(), "q", Context{})
		done <- out
	}()

	<-refresher.entered
	assert.False(t, st.Loading())
	assert.False(t, d.InFlight())
	require.Len(t, st.Messages(), 2)
	assert.Equal(t, "a", st.Messages()[1].Content)

	next, err := d.Begin("next", Context{})
	require.NoError(t, err)

	close(refresher.release)
	out := <-done
	assert.True(t, out.Adopted)
	assert.False(t, out.Failed)
	next.Complete(context.Background())
}

func TestPending_CompleteDoesNotRefresh(t *testing.T) {
	api := &backendtest.Fake{ChatFunc: reply("a", "s-1")}
	refresher := &countingRefresher{}
	d := New(api, model.NewState(), "c1", nil).WithRefresher(refresher)

	p, err := d.Begin("q", Context{})
	require.NoError(t, err)
	out := p.Complete(context.Background())
	assert.True(t, out.Adopted)
	assert.Equal(t, 0, refresher.calls)

	d.Refresh(context.Background(), out)
	assert.Equal(t, 1, refresher.calls)
}

func TestSend_DefaultsToStateStyle(t *testing.T) {
	api := &backendtest.Fake{ChatFunc: reply("a", "s")}
	st := model.NewState()
	st.SetStyle(model.StyleProfessional)
	d := New(api, st, "c1", nil)

	_, err := d.Send(context.Background(), "q", Context{})
	require.NoError(t, err)
	assert.Equal(t, "professional", api.Requests()[0].Style)
}

func TestSend_LoadingDuringRequest(t *testing.T) {
	st := model.NewState()
	var sawLoading bool
	api := &backendtest.Fake{
		ChatFunc: func(context.Context, backend.ChatRequest) (*backend.ChatResponse, error) {
			sawLoading = st.Loading()
			return &backend.ChatResponse{Reply: "a"}, nil
		},
	}
	d := New(api, st, "c1", nil)
	_, err := d.Send(context.Background(), "q", Context{})
	require.NoError(t, err)
	assert.True(t, sawLoading)
	assert.False(t, st.Loading())
}

// =============================================================================
// FAILURE
// =============================================================================

func TestSend_FailureAppendsOneNotice(t *testing.T) {
	errDown := errors.New("connection refused")
	api := &backendtest.Fake{
		ChatFunc: func(context.Context, backend.ChatRequest) (*backend.ChatResponse, error) { return nil, errDown },
	}
	st := model.NewState()
	refresher := &countingRefresher{}
	d := New(api, st, "c1", nil).WithRefresher(refresher)

	out, err := d.Send(context.Background(), "q", Context{})
	require.NoError(t, err)
	assert.True(t, out.Failed)
	assert.ErrorIs(t, out.Err, errDown)

	msgs := st.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "q", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, FailureMessage, msgs[1].Content)
	assert.False(t, st.Loading())
	assert.Equal(t, 0, refresher.calls)
	_, ok := st.ActiveID()
	assert.False(t, ok)
}

// A request that outlives the timeout yields exactly one failure notice and leaves the
// question in place.
func TestSend_TimeoutAgainstSlowBackend(t *testing.T) {
	srv := server.New(server.Config{Delay: 2 * time.Second}, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := backend.NewClient(ts.URL).WithRateLimit(nil)
	st := model.NewState()
	d := New(client, st, "c1", nil).WithTimeout(100 * time.Millisecond)

	out, err := d.Send(context.Background(), "闖紅燈罰多少？", Context{})
	require.NoError(t, err)
	assert.True(t, out.Failed)
	assert.ErrorIs(t, out.Err, backend.ErrUnavailable)

	want := []model.Message{
		model.NewUserMessage("闖紅燈罰多少？"),
		{Role: model.RoleAssistant, Content: FailureMessage, Failed: true},
	}
	if diff := cmp.Diff(want, st.Messages()); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, st.Loading())
	client.CloseIdleConnections()
}

func TestSend_EndToEndAgainstMock(t *testing.T) {
	srv := server.New(server.Config{}, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := backend.NewClient(ts.URL).WithRateLimit(nil)
	defer client.CloseIdleConnections()
	st := model.NewState()
	d := New(client, st, "c1", nil)

	out, err := d.Send(context.Background(), "闖紅燈罰多少？", Context{Style: model.StyleHumor})
	require.NoError(t, err)
	assert.False(t, out.Failed)
	assert.True(t, out.Adopted)
	require.NotNil(t, out.Reply.Analysis)
	assert.Equal(t, "交通", out.Reply.Analysis.Domain)
	assert.Contains(t, out.Reply.Content, "law.ai/view?data=")
}

// =============================================================================
// CONVERSATION CHANGES AND SPEECH
// =============================================================================

func TestSend_ReplyAfterStartNewIsDiscarded(t *testing.T) {
	st := model.NewState()
	release := make(chan struct{})
	api := &backendtest.Fake{
		ChatFunc: func(context.Context, backend.ChatRequest) (*backend.ChatResponse, error) {
			<-release
			return &backend.ChatResponse{Reply: "late", SessionID: "s-old"}, nil
		},
	}
	d := New(api, st, "c1", nil)

	p, err := d.Begin("q", Context{})
	require.NoError(t, err)
	done := make(chan Outcome)
	go func() { done <- p.Complete(context.Background()) }()

	st.Reset()
	close(release)
	out := <-done

	assert.True(t, out.Discarded)
	assert.Empty(t, st.Messages())
	_, ok := st.ActiveID()
	assert.False(t, ok)
	assert.False(t, st.Loading())
}

func TestSendInput_StopsSpeechFirst(t *testing.T) {
	api := &backendtest.Fake{ChatFunc: reply("a", "s")}
	st := model.NewState()
	st.SetInput("闖紅")
	sp := &fakeSpeech{listening: true, final: "闖紅燈罰多少"}
	d := New(api, st, "c1", nil).WithSpeech(sp)

	_, err := d.SendInput(context.Background(), Context{})
	require.NoError(t, err)
	assert.Equal(t, 1, sp.stops)
	assert.Equal(t, "闖紅燈罰多少", api.Requests()[0].Message)
}

func TestSend_ExplicitTextStopsSpeechButKeepsText(t *testing.T) {
	api := &backendtest.Fake{ChatFunc: reply("a", "s")}
	st := model.NewState()
	sp := &fakeSpeech{listening: true, final: "spoken"}
	d := New(api, st, "c1", nil).WithSpeech(sp)

	_, err := d.Send(context.Background(), "交通事故發生了什麼事？", Context{})
	require.NoError(t, err)
	assert.Equal(t, 1, sp.stops)
	assert.Equal(t, "交通事故發生了什麼事？", api.Requests()[0].Message)
}

func TestBegin_BlankTextKeepsSpeechRunning(t *testing.T) {
	api := &backendtest.Fake{}
	sp := &fakeSpeech{listening: true, final: "spoken"}
	d := New(api, model.NewState(), "c1", nil).WithSpeech(sp)

	_, err := d.Begin("  \t", Context{})
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, 0, sp.stops)
	assert.True(t, sp.Listening())
	assert.False(t, d.InFlight())
}

func TestPending_CompleteOnce(t *testing.T) {
	api := &backendtest.Fake{ChatFunc: reply("a", "s")}
	d := New(api, model.NewState(), "c1", nil)
	p, err := d.Begin("q", Context{})
	require.NoError(t, err)

	msg := p.Cmd()()
	sent, ok := msg.(SentMsg)
	require.True(t, ok)
	assert.Equal(t, "a", sent.Outcome.Reply.Content)

	assert.Equal(t, Outcome{}, p.Complete(context.Background()))
	assert.Len(t, api.Requests(), 1)
}
