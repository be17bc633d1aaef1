// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/lawassist-tui/internal/backend"
	"github.com/jeranaias/lawassist-tui/internal/server"
)

func newMock(t *testing.T) (*backend.Client, *server.Server) {
	t.Helper()
	srv := server.New(server.Config{}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return backend.NewClient(ts.URL).WithRateLimit(nil), srv
}

// =============================================================================
// ROUND TRIP AGAINST THE MOCK BACKEND
// =============================================================================

func TestClient_ChatCreatesSession(t *testing.T) {
	c, srv := newMock(t)
	ctx := context.Background()

	resp, err := c.Chat(ctx, backend.ChatRequest{Message: "闖紅燈罰多少？", Style: "humor", ClientID: "c1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.Contains(t, resp.Reply, "https://law.ai/view?data=")
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, "交通", resp.Analysis.Domain)
	assert.Equal(t, 1, srv.Store().Len())

	id := resp.SessionID
	resp, err = c.Chat(ctx, backend.ChatRequest{Message: "那酒測呢？", SessionID: &id, ClientID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, id, resp.SessionID)

	msgs, err := c.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Len(t, msgs, 4)
	assert.Equal(t, "闖紅燈罰多少？", msgs[0].Content)

	sessions, err := c.ListSessions(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, id, sessions[0].ID)

	other, err := c.ListSessions(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, c.DeleteSession(ctx, id))
	_, err = c.GetSession(ctx, id)
	assert.True(t, backend.IsNotFound(err))
}

func TestClient_DeleteUnknownSession(t *testing.T) {
	c, _ := newMock(t)
	err := c.DeleteSession(context.Background(), "missing")

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, http.MethodDelete, apiErr.Method)
}

func TestClient_Ping(t *testing.T) {
	c, _ := newMock(t)
	assert.NoError(t, c.Ping(context.Background()))

	// A backend without a root route still answers.
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()
	assert.NoError(t, backend.NewClient(ts.URL).WithRateLimit(nil).Ping(context.Background()))

	down := ts.URL
	ts.Close()
	err := backend.NewClient(down).WithRateLimit(nil).Ping(context.Background())
	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestClient_GetSessionRejectsUnknownRole(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messages":[{"role":"user","content":"q"},{"role":"system","content":"x"}]}`))
	}))
	defer ts.Close()

	c := backend.NewClient(ts.URL).WithRateLimit(nil)
	msgs, err := c.GetSession(context.Background(), "s-1")
	assert.ErrorIs(t, err, backend.ErrInvalidResponse)
	assert.Nil(t, msgs)
}

// =============================================================================
// REQUEST SHAPE
// =============================================================================

func TestClient_ChatRequestBody(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"reply":"ok","session_id":"s-1"}`))
	}))
	defer ts.Close()

	c := backend.NewClient(ts.URL).WithRateLimit(nil)
	resp, err := c.Chat(context.Background(), backend.ChatRequest{Message: "hi", Style: "concise", ClientID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Reply)
	assert.Nil(t, resp.Analysis)

	assert.Equal(t, "hi", got["message"])
	assert.Equal(t, "concise", got["style"])
	assert.Equal(t, "c1", got["client_id"])
	v, present := got["session_id"]
	assert.True(t, present)
	assert.Nil(t, v)
}

// =============================================================================
// FAILURES
// =============================================================================

func TestClient_ServerErrorIsAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := backend.NewClient(ts.URL).WithRateLimit(nil)
	_, err := c.Chat(context.Background(), backend.ChatRequest{Message: "hi"})

	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Body)
}

func TestClient_ChatIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := backend.NewClient(ts.URL).WithRateLimit(nil).WithMaxRetries(3)
	_, err := c.Chat(context.Background(), backend.ChatRequest{Message: "hi"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ReadsAreRetriedOn5xx(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"id":"a","title":"A"}]`))
	}))
	defer ts.Close()

	c := backend.NewClient(ts.URL).WithRateLimit(nil).WithMaxRetries(1)
	sessions, err := c.ListSessions(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ReadsNotRetriedOn4xx(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := backend.NewClient(ts.URL).WithRateLimit(nil).WithMaxRetries(3)
	_, err := c.GetSession(context.Background(), "x")
	assert.True(t, backend.IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c := backend.NewClient(url).WithRateLimit(nil).WithMaxRetries(0)
	_, err := c.Chat(context.Background(), backend.ChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c := backend.NewClient(ts.URL).WithRateLimit(nil).WithTimeout(50 * time.Millisecond)
	_, err := c.Chat(context.Background(), backend.ChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, backend.ErrUnavailable)
}

func TestClient_InvalidJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reply":`))
	}))
	defer ts.Close()

	c := backend.NewClient(ts.URL).WithRateLimit(nil)
	_, err := c.Chat(context.Background(), backend.ChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, backend.ErrInvalidResponse)
}

func TestClient_ResponseTooLarge(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", backend.MaxResponseSize+10)))
	}))
	defer ts.Close()

	c := backend.NewClient(ts.URL).WithRateLimit(nil)
	_, err := c.Chat(context.Background(), backend.ChatRequest{Message: "hi"})
	assert.True(t, errors.Is(err, backend.ErrResponseTooLarge))
}

func TestNewClient_Defaults(t *testing.T) {
	assert.Equal(t, backend.DefaultBaseURL, backend.NewClient("").BaseURL())
	assert.Equal(t, "http://example.test", backend.NewClient("http://example.test/").BaseURL())
}
