// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ACCUMULATOR TESTS
// =============================================================================

func TestAccumulator_FinalAndInterim(t *testing.T) {
	var a Accumulator
	a.Start("abc")

	got := a.Apply([]Result{{Transcript: "def", Final: true}, {Transcript: "gh"}})
	assert.Equal(t, "abcdefgh", got)
	assert.Equal(t, "abcdef", a.Committed())

	got = a.Apply([]Result{{Transcript: ""}})
	assert.Equal(t, "abcdef", got)
	assert.Equal(t, "abcdef", a.Committed())
	assert.Equal(t, "", a.Pending())
}

func TestAccumulator_InterimIsReplacedNotAppended(t *testing.T) {
	var a Accumulator
	a.Start("")

	a.Apply([]Result{{Transcript: "闖"}})
	a.Apply([]Result{{Transcript: "闖紅"}})
	got := a.Apply([]Result{{Transcript: "闖紅燈"}})
	assert.Equal(t, "闖紅燈", got)
	assert.Equal(t, "", a.Committed())
}

func TestAccumulator_ConcatenatesInOrder(t *testing.T) {
	var a Accumulator
	a.Start("問：")

	got := a.Apply([]Result{
		{Transcript: "闖紅燈", Final: true},
		{Transcript: "罰", Final: false},
		{Transcript: "多少", Final: true},
		{Transcript: "錢", Final: false},
	})
	assert.Equal(t, "問：闖紅燈多少罰錢", got)
	assert.Equal(t, "問：闖紅燈多少", a.Committed())
}

func TestAccumulator_RestartResnapshots(t *testing.T) {
	var a Accumulator
	a.Start("old")
	a.Apply([]Result{{Transcript: " words", Final: true}, {Transcript: " pending"}})
	a.Stop()
	assert.False(t, a.Listening())
	assert.Equal(t, "old words pending", a.Value())

	a.Start("typed")
	assert.True(t, a.Listening())
	assert.Equal(t, "typed", a.Value())
}

func TestAccumulator_HandleError(t *testing.T) {
	var a Accumulator
	a.Start("")

	assert.False(t, a.HandleError(ErrNoSpeech))
	assert.False(t, a.HandleError(nil))
	assert.True(t, a.Listening())

	assert.True(t, a.HandleError(errors.New("audio-capture")))
	assert.False(t, a.Listening())
}

// =============================================================================
// CAPTURE TESTS
// =============================================================================

type fakeRecognizer struct {
	mu       sync.Mutex
	handler  Handler
	starts   int
	stops    int
	startErr error
}

func (f *fakeRecognizer) Start(_ context.Context, h Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.handler = h
	f.starts++
	return nil
}

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeRecognizer) emit(ev Event) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	h(ev)
}

func TestCapture_Unavailable(t *testing.T) {
	c := NewCapture(nil, nil)
	assert.False(t, c.Available())
	assert.ErrorIs(t, c.Start(context.Background(), "x"), ErrUnavailable)
}

func TestCapture_StopThenRead(t *testing.T) {
	rec := &fakeRecognizer{}
	c := NewCapture(rec, nil)

	var updates []string
	c.OnUpdate(func(v string, _ bool) { updates = append(updates, v) })

	require.NoError(t, c.Start(context.Background(), "我想問"))
	rec.emit(Event{Results: []Result{{Transcript: "闖紅燈", Final: true}, {Transcript: "罰多少"}}})

	assert.Equal(t, "我想問闖紅燈罰多少", c.Stop())
	assert.False(t, c.Listening())
	assert.Equal(t, 1, rec.stops)

	// Late events after Stop are ignored.
	rec.emit(Event{Results: []Result{{Transcript: "ignored", Final: true}}})
	assert.Equal(t, "我想問闖紅燈罰多少", c.Value())
	assert.Equal(t, []string{"我想問", "我想問闖紅燈罰多少", "我想問闖紅燈罰多少"}, updates)
}

func TestCapture_NoSpeechKeepsListening(t *testing.T) {
	rec := &fakeRecognizer{}
	c := NewCapture(rec, nil)
	require.NoError(t, c.Start(context.Background(), ""))

	rec.emit(Event{Err: ErrNoSpeech})
	assert.True(t, c.Listening())

	rec.emit(Event{Err: errors.New("network")})
	assert.False(t, c.Listening())
}

func TestCapture_EndStopsListening(t *testing.T) {
	rec := &fakeRecognizer{}
	c := NewCapture(rec, nil)
	require.NoError(t, c.Start(context.Background(), ""))

	rec.emit(Event{Results: []Result{{Transcript: "好", Final: true}}})
	rec.emit(Event{End: true})
	assert.False(t, c.Listening())
	assert.Equal(t, "好", c.Value())
}

func TestCapture_StartFailure(t *testing.T) {
	rec := &fakeRecognizer{startErr: errors.New("no mic")}
	c := NewCapture(rec, nil)
	assert.Error(t, c.Start(context.Background(), "x"))
	assert.False(t, c.Listening())
}

// =============================================================================
// COMMAND RECOGNIZER TESTS
// =============================================================================

func TestNewCommandRecognizer(t *testing.T) {
	r, err := NewCommandRecognizer(`recognize --lang "zh-TW"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"recognize", "--lang", "zh-TW"}, r.argv)

	_, err = NewCommandRecognizer("")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewCommandRecognizer(`unterminated "quote`)
	assert.Error(t, err)
}

func TestCommandAvailable(t *testing.T) {
	assert.False(t, CommandAvailable(""))
	assert.False(t, CommandAvailable("definitely-not-a-real-recognizer-binary"))
}

func TestReadEvents(t *testing.T) {
	input := `{"results":[{"transcript":"闖紅燈","final":false}]}

{"error":"no-speech"}
{"results":[{"transcript":"闖紅燈罰多少","final":true}]}
`
	var events []Event
	ended := readEvents(context.Background(), stringsReader(input), func(ev Event) { events = append(events, ev) })

	assert.True(t, ended)
	require.Len(t, events, 3)
	assert.Equal(t, "闖紅燈", events[0].Results[0].Transcript)
	assert.ErrorIs(t, events[1].Err, ErrNoSpeech)
	assert.True(t, events[2].Results[0].Final)
}

func TestReadEvents_FatalErrorStops(t *testing.T) {
	input := "{\"error\":\"audio-capture\"}\n{\"results\":[]}\n"
	var events []Event
	ended := readEvents(context.Background(), stringsReader(input), func(ev Event) { events = append(events, ev) })

	assert.False(t, ended)
	require.Len(t, events, 1)
	assert.EqualError(t, events[0].Err, "recognizer: audio-capture")
}

func TestCommandRecognizer_RestartFromEndHandler(t *testing.T) {
	if !CommandAvailable("true") {
		t.Skip("true not on PATH")
	}
	r, err := NewCommandRecognizer("true")
	require.NoError(t, err)
	defer r.Stop()

	restarted := make(chan error, 1)
	var once sync.Once
	var handler Handler
	handler = func(ev Event) {
		if ev.End {
			once.Do(func() { restarted <- r.Start(context.Background(), handler) })
		}
	}
	require.NoError(t, r.Start(context.Background(), handler))

	select {
	case err := <-restarted:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no End event from recognizer")
	}
}

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }
