// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/lawassist-tui/internal/citation"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// HANDLER TESTS
// =============================================================================

func TestHealth(t *testing.T) {
	rec := do(t, New(Config{}, nil).Handler(), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestChat_Validation(t *testing.T) {
	h := New(Config{}, nil).Handler()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", "{", http.StatusBadRequest},
		{"empty message", `{"message":"   "}`, http.StatusBadRequest},
		{"unknown session", `{"message":"hi","session_id":"nope"}`, http.StatusNotFound},
		{"too long", `{"message":"` + strings.Repeat("法", MaxMessageLength+1) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/chat", tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestChat_TitleFromFirstQuestion(t *testing.T) {
	srv := New(Config{}, nil)
	h := srv.Handler()
	q := strings.Repeat("房東不還押金", 5)
	rec := do(t, h, http.MethodPost, "/chat", `{"message":"`+q+`","client_id":"c"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/sessions?client_id=c", "")
	var list []struct{ ID, Title string }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, titleLength+1, len([]rune(list[0].Title)))
	assert.True(t, strings.HasSuffix(list[0].Title, "…"))
}

func TestListSessions_NewestFirst(t *testing.T) {
	h := New(Config{}, nil).Handler()
	do(t, h, http.MethodPost, "/chat", `{"message":"first","client_id":"c"}`)
	do(t, h, http.MethodPost, "/chat", `{"message":"second","client_id":"c"}`)

	rec := do(t, h, http.MethodGet, "/sessions?client_id=c", "")
	var list []struct{ ID, Title string }
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)
	assert.Equal(t, "first", list[1].Title)

	rec = do(t, h, http.MethodGet, "/sessions", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	srv := New(Config{}, nil)
	h := srv.Handler()
	rec := do(t, h, http.MethodPost, "/chat", `{"message":"q","client_id":"c"}`)
	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/sessions/"+resp.SessionID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/sessions/"+resp.SessionID, "").Code)
	assert.Equal(t, 0, srv.Store().Len())
}

func TestDelayMiddleware(t *testing.T) {
	h := New(Config{Delay: 30 * time.Millisecond}, nil).Handler()
	start := time.Now()
	do(t, h, http.MethodGet, "/", "")
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

// =============================================================================
// RESPONDER TESTS
// =============================================================================

func TestCannedResponder_CitesStatutes(t *testing.T) {
	a := CannedResponder("闖紅燈罰多少？", "humor")
	require.NotNil(t, a.Analysis)
	assert.Equal(t, "交通", a.Analysis.Domain)
	assert.Contains(t, a.Analysis.Keywords, "紅燈")

	spans := citation.ExtractCitations(a.Reply)
	require.NotEmpty(t, spans)
	assert.Equal(t, "道路交通管理處罰條例第53條", spans[0].LinkText)
	assert.Contains(t, spans[0].Text, "闖紅燈")
	assert.Contains(t, spans[0].URL, "pcode=K0040012&flno=53")
}

func TestCannedResponder_Styles(t *testing.T) {
	concise := CannedResponder("網路誹謗", "concise")
	assert.NotContains(t, concise.Reply, "諮詢律師")
	professional := CannedResponder("網路誹謗", "professional")
	assert.Contains(t, professional.Reply, "**刑事**")
}

func TestCannedResponder_Fallback(t *testing.T) {
	a := CannedResponder("天氣如何", "")
	assert.Equal(t, "一般", a.Analysis.Domain)
	assert.Empty(t, a.Analysis.Keywords)
}
