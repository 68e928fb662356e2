package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/tube-agent/agentboot"
	"github.com/SaiNageswarS/tube-agent/memory"
	"github.com/SaiNageswarS/tube-agent/schema"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const streamBufferSize = 64

// SessionHandler serves the chat sessions and their message streams.
type SessionHandler struct {
	agent *agentboot.Agent
	store memory.SessionStore
}

func NewSessionHandler(agent *agentboot.Agent, store memory.SessionStore) *SessionHandler {
	return &SessionHandler{agent: agent, store: store}
}

func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions", h.handleListSessions)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Post("/sessions/{sessionID}/messages", h.handlePostMessage)
}

func (h *SessionHandler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.CreateSession(r.Context())
	if err != nil {
		logger.Error("Failed to create session", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions(r.Context())
	if err != nil {
		logger.Error("Failed to list sessions", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []memory.SessionSummary{}
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (h *SessionHandler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// handlePostMessage runs one turn and streams its progress. Validation failures are plain
// JSON errors; once the stream is open, failures arrive as an error event.
func (h *SessionHandler) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Content) == "" {
		respondError(w, http.StatusBadRequest, "content is required")
		return
	}

	session, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEProgressReporter(w)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// a stalled client must not hold up the turn; the stream catches up after it is saved
	stream := agentboot.NewBufferedProgressReporter(sse, streamBufferSize)
	reporter := agentboot.MultiProgressReporter{
		&agentboot.LogProgressReporter{SessionID: session.ID},
		stream,
	}

	_, err = h.agent.Execute(r.Context(), reporter, &schema.GenerateAnswerRequest{
		SessionId: session.ID,
		Question:  payload.Content,
	})
	if err != nil {
		logger.Error("Turn failed", zap.String("session", session.ID), zap.Error(err))
	}

	stream.Close()
	if n := stream.Dropped(); n > 0 {
		logger.Info("Dropped progress events for slow client", zap.String("session", session.ID), zap.Int64("dropped", n))
	}
}

func (h *SessionHandler) lookupSession(w http.ResponseWriter, r *http.Request) (*memory.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	session, err := h.store.GetSession(r.Context(), id)
	if errors.Is(err, memory.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	if err != nil {
		logger.Error("Failed to load session", zap.String("session", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load session")
		return nil, false
	}
	return session, true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
