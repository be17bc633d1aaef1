// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/lawassist-tui/internal/backend"
	"github.com/jeranaias/lawassist-tui/internal/model"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is where the mock listens by default, matching the client's default
	// base URL.
	DefaultAddr = "127.0.0.1:8000"

	// MaxRequestBodySize is the maximum accepted request body.
	MaxRequestBodySize = 64 * 1024

	// MaxMessageLength is the maximum question length in runes.
	MaxMessageLength = 4000

	// titleLength is the number of runes of the first question used as a title.
	titleLength = 20
)

// Config holds mock server settings.
type Config struct {
	Addr string

	// Delay holds every request before handling it.
	Delay time.Duration

	// Responder generates replies. Defaults to CannedResponder.
	Responder Responder
}

// ============================================================================
// STORE
// ============================================================================

type storedSession struct {
	id       string
	clientID string
	title    string
	created  time.Time
	seq      int
	messages []model.Message
}

// Store is the in-memory session store behind the mock.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*storedSession
	seq      int
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*storedSession), now: time.Now}
}

// Len returns the number of stored sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) create(clientID, firstQuestion string) *storedSession {
	st.seq++
	s := &storedSession{
		id:       uuid.NewString(),
		clientID: clientID,
		title:    makeTitle(firstQuestion),
		created:  st.now(),
		seq:      st.seq,
	}
	st.sessions[s.id] = s
	return s
}

func makeTitle(q string) string {
	r := []rune(strings.Join(strings.Fields(q), " "))
	if len(r) > titleLength {
		return string(r[:titleLength]) + "…"
	}
	return string(r)
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the mock backend HTTP server.
type Server struct {
	cfg    Config
	store  *Store
	router chi.Router
	logger *zap.Logger

	mu     sync.Mutex
	server *http.Server
}

// New creates a mock server. logger may be nil.
func New(cfg Config, logger *zap.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Responder == nil {
		cfg.Responder = CannedResponder
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, store: NewStore(), logger: logger}
	s.setupRoutes()
	return s
}

// Handler returns the routed handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(BodyLimitMiddleware(MaxRequestBodySize))
	r.Use(DelayMiddleware(s.cfg.Delay))

	r.Get("/", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Get("/{id}", s.handleGetSession)
		r.Delete("/{id}", s.handleDeleteSession)
	})
	s.router = r
}

// Start listens on the configured address and blocks until Shutdown.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("mock backend starting", zap.String("addr", s.cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("mock backend shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req backend.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question := strings.TrimSpace(req.Message)
	if question == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if len([]rune(question)) > MaxMessageLength {
		writeError(w, http.StatusRequestEntityTooLarge, "message too long")
		return
	}

	answer := s.cfg.Responder(question, req.Style)

	s.store.mu.Lock()
	var sess *storedSession
	if req.SessionID != nil && *req.SessionID != "" {
		sess = s.store.sessions[*req.SessionID]
		if sess == nil {
			s.store.mu.Unlock()
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
	} else {
		sess = s.store.create(req.ClientID, question)
	}
	sess.messages = append(sess.messages,
		model.NewUserMessage(question),
		model.NewAssistantMessage(answer.Reply, answer.Analysis))
	id := sess.id
	s.store.mu.Unlock()

	writeJSON(w, http.StatusOK, backend.ChatResponse{
		Reply:     answer.Reply,
		Analysis:  answer.Analysis,
		SessionID: id,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "client_id is required")
		return
	}

	s.store.mu.Lock()
	var matched []*storedSession
	for _, sess := range s.store.sessions {
		if sess.clientID == clientID {
			matched = append(matched, sess)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })
	out := make([]model.Session, 0, len(matched))
	for _, sess := range matched {
		out = append(out, model.Session{ID: sess.id, Title: sess.title})
	}
	s.store.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.store.mu.Lock()
	sess := s.store.sessions[id]
	var body map[string]any
	if sess != nil {
		body = map[string]any{
			"id":       sess.id,
			"title":    sess.title,
			"messages": append([]model.Message{}, sess.messages...),
		}
	}
	s.store.mu.Unlock()

	if body == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.store.mu.Lock()
	_, ok := s.store.sessions[id]
	delete(s.store.sessions, id)
	s.store.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================================================
// HELPERS
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
