package memory

import (
	"context"
	"errors"

	"github.com/SaiNageswarS/tube-agent/llm"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidMessage  = errors.New("invalid message")
)

// SessionStore persists sessions. Implementations return copies; callers never share
// message slices with the store.
type SessionStore interface {
	CreateSession(ctx context.Context) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	// GetOrCreateSession creates the session under id when it does not exist yet.
	// An empty id always creates a new session.
	GetOrCreateSession(ctx context.Context, id string) (*Session, error)
	Append(ctx context.Context, id string, msgs ...llm.Message) error
	// Truncate drops every message at index n and beyond.
	Truncate(ctx context.Context, id string, n int) error
	// ListSessions orders sessions by most recent update first.
	ListSessions(ctx context.Context) ([]SessionSummary, error)
}
