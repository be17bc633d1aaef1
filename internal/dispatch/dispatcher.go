// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch sends the user's questions to the backend and reconciles the
// replies into the conversation.
//
// A send happens in two steps. Begin runs synchronously on the caller's goroutine: it
// validates the text, stops voice capture, appends the user's message optimistically
// and marks the reply as loading. Complete performs the network call and appends
// either the reply or a single failure notice. Send does both, then refreshes the
// session list when the exchange created a session.
//
// Only one send may be in flight at a time.
package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/lawassist-tui/internal/backend"
	"github.com/jeranaias/lawassist-tui/internal/model"
)

// FailureMessage is appended as an assistant turn when the backend cannot be reached
// or answers with an error.
const FailureMessage = "❌ 後端連線失敗，請確認伺服器是否運行中。"

// DefaultTimeout bounds one chat request.
const DefaultTimeout = 90 * time.Second

var (
	// ErrEmptyMessage is returned for blank input. Nothing is sent.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrSendInFlight is returned while a previous send has not completed.
	ErrSendInFlight = errors.New("a message is already being sent")
)

// Speech is the voice-capture surface the dispatcher needs.
type Speech interface {
	Listening() bool
	// Stop ends capture synchronously and returns the finalized input.
	Stop() string
}

// Refresher reloads the session list after an exchange that created a session.
type Refresher interface {
	ListSessions(ctx context.Context) ([]model.Session, error)
}

// Context carries per-send options.
type Context struct {
	Style model.Style
}

// Outcome describes how a send ended.
type Outcome struct {
	// Reply is the appended assistant message, or the failure notice.
	Reply model.Message
	// SessionID is the session the exchange belongs to, if known.
	SessionID string
	// Adopted is true when this send created the active session.
	Adopted bool
	// Failed is true when the backend call failed; Err holds the cause.
	Failed bool
	Err    error
	// Discarded is true when the conversation changed while the request was in flight
	// and the reply was dropped.
	Discarded bool
}

// Dispatcher sends questions and applies replies to a model.State.
type Dispatcher struct {
	api       backend.API
	state     *model.State
	clientID  string
	speech    Speech
	refresher Refresher
	timeout   time.Duration
	logger    *zap.Logger

	inFlight atomic.Bool
}

// New creates a dispatcher. logger may be nil.
func New(api backend.API, state *model.State, clientID string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		api:      api,
		state:    state,
		clientID: clientID,
		timeout:  DefaultTimeout,
		logger:   logger,
	}
}

// WithSpeech sets the voice capture stopped before each send.
func (d *Dispatcher) WithSpeech(s Speech) *Dispatcher {
	d.speech = s
	return d
}

// WithRefresher sets the session-list refresher Send runs once a send has created a
// session.
func (d *Dispatcher) WithRefresher(r Refresher) *Dispatcher {
	d.refresher = r
	return d
}

// WithTimeout sets the per-request timeout.
func (d *Dispatcher) WithTimeout(t time.Duration) *Dispatcher {
	if t > 0 {
		d.timeout = t
	}
	return d
}

// InFlight reports whether a send is outstanding.
func (d *Dispatcher) InFlight() bool {
	return d.inFlight.Load()
}

// =============================================================================
// SEND
// =============================================================================

// Send sends text and blocks until the reply or failure has been applied. The returned
// error is non-nil only when nothing was sent.
func (d *Dispatcher) Send(ctx context.Context, text string, c Context) (Outcome, error) {
	p, err := d.Begin(text, c)
	if err != nil {
		return Outcome{}, err
	}
	out := p.Complete(ctx)
	d.Refresh(ctx, out)
	return out, nil
}

// SendInput sends the current input line. When voice capture is active it is stopped
// first and its finalized value is sent instead.
func (d *Dispatcher) SendInput(ctx context.Context, c Context) (Outcome, error) {
	p, err := d.BeginInput(c)
	if err != nil {
		return Outcome{}, err
	}
	out := p.Complete(ctx)
	d.Refresh(ctx, out)
	return out, nil
}

// Refresh reloads the session list when out adopted a new session. It runs after the
// send has released the loading flag and the in-flight gate; a failed refresh keeps the
// previous list.
func (d *Dispatcher) Refresh(ctx context.Context, out Outcome) {
	if d.refresher == nil || !out.Adopted {
		return
	}
	if _, err := d.refresher.ListSessions(ctx); err != nil {
		d.logger.Debug("session refresh after reply failed", zap.Error(err))
	}
}

// Pending is a send that has been applied locally and awaits its network call.
type Pending struct {
	d         *Dispatcher
	text      string
	style     model.Style
	epoch     uint64
	sessionID string
	done      atomic.Bool
}

// Text returns the question as sent.
func (p *Pending) Text() string {
	return p.text
}

// Begin applies a send locally. Blank text is rejected before anything else happens.
// If voice capture is active it is then stopped; text is sent as given.
func (d *Dispatcher) Begin(text string, c Context) (*Pending, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	return d.begin(func() string {
		d.stopSpeech()
		return text
	}, c)
}

// BeginInput applies a send of the input line locally.
func (d *Dispatcher) BeginInput(c Context) (*Pending, error) {
	return d.begin(func() string {
		if v, ok := d.stopSpeech(); ok {
			return v
		}
		return d.state.Input()
	}, c)
}

func (d *Dispatcher) begin(text func() string, c Context) (*Pending, error) {
	if !d.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSendInFlight
	}
	trimmed := strings.TrimSpace(text())
	if trimmed == "" {
		d.inFlight.Store(false)
		return nil, ErrEmptyMessage
	}
	style := c.Style
	if style == "" {
		style = d.state.Style()
	}

	epoch, sessionID := d.state.BeginSend(trimmed)
	return &Pending{d: d, text: trimmed, style: style, epoch: epoch, sessionID: sessionID}, nil
}

func (d *Dispatcher) stopSpeech() (string, bool) {
	if d.speech == nil || !d.speech.Listening() {
		return "", false
	}
	return d.speech.Stop(), true
}

// Complete performs the backend call and applies the result. It must be called exactly
// once per Pending; later calls return an empty Outcome. The session list is not
// refreshed here; see Refresh.
func (p *Pending) Complete(ctx context.Context) Outcome {
	if !p.done.CompareAndSwap(false, true) {
		return Outcome{}
	}
	d := p.d
	defer d.inFlight.Store(false)
	defer d.state.SetLoading(false)

	req := backend.ChatRequest{
		Message:  p.text,
		Style:    string(p.style),
		ClientID: d.clientID,
	}
	if p.sessionID != "" {
		id := p.sessionID
		req.SessionID = &id
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	resp, err := d.api.Chat(callCtx, req)
	cancel()

	if err != nil {
		d.logger.Warn("chat request failed", zap.Error(err))
		msg := model.Message{Role: model.RoleAssistant, Content: FailureMessage, Failed: true}
		out := Outcome{Reply: msg, SessionID: p.sessionID, Failed: true, Err: err}
		if !d.state.AppendReply(p.epoch, msg, "") {
			out.Discarded = true
		}
		return out
	}

	msg := model.NewAssistantMessage(resp.Reply, resp.Analysis)
	out := Outcome{Reply: msg, SessionID: p.sessionID}
	if out.SessionID == "" {
		out.SessionID = resp.SessionID
	}
	if !d.state.AppendReply(p.epoch, msg, resp.SessionID) {
		d.logger.Info("reply discarded after conversation changed", zap.String("session_id", resp.SessionID))
		out.Discarded = true
		return out
	}
	out.Adopted = p.sessionID == "" && resp.SessionID != ""
	return out
}
