package memory

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SaiNageswarS/tube-agent/llm"
	"github.com/google/uuid"
)

const (
	DefaultTitle    = "New chat"
	titleMaxRunes   = 30
	titleEllipsis   = "..."
	sessionIDPrefix = "chat_"
)

// Session is one chat thread with its full message history.
type Session struct {
	ID        string        `json:"id" bson:"_id"`
	Title     string        `json:"title" bson:"title"`
	Messages  []llm.Message `json:"messages" bson:"messages"`
	CreatedAt time.Time     `json:"created_at" bson:"createdAt"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updatedAt"`
}

func (s Session) Id() string {
	return s.ID
}

func (s Session) CollectionName() string {
	return "sessions"
}

// SessionSummary is the sidebar view of a session.
type SessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:           s.ID,
		Title:        s.Title,
		UpdatedAt:    s.UpdatedAt,
		MessageCount: len(s.Messages),
	}
}

func newSession(id string, now time.Time) *Session {
	if id == "" {
		id = NewSessionID(now)
	}
	return &Session{
		ID:        id,
		Title:     DefaultTitle,
		Messages:  []llm.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewSessionID derives an opaque id from the creation time: chat_<unix-millis>_<8 hex>.
func NewSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%d_%s", sessionIDPrefix, now.UnixMilli(), suffix)
}

// TitleFromMessage truncates the first user message to 30 runes.
func TitleFromMessage(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(content) <= titleMaxRunes {
		return content
	}
	return string([]rune(content)[:titleMaxRunes]) + titleEllipsis
}

// appendMessages validates msgs and appends them to s, setting the title on the first user message.
func (s *Session) appendMessages(now time.Time, msgs ...llm.Message) error {
	for _, m := range msgs {
		if err := validateMessage(m); err != nil {
			return err
		}
	}
	for _, m := range msgs {
		if m.Role == llm.RoleUser && s.Title == DefaultTitle && !s.hasUserMessage() {
			s.Title = TitleFromMessage(m.Content)
		}
		s.Messages = append(s.Messages, cloneMessage(m))
	}
	s.UpdatedAt = now
	return nil
}

func (s *Session) hasUserMessage() bool {
	for _, m := range s.Messages {
		if m.Role == llm.RoleUser {
			return true
		}
	}
	return false
}

func (s *Session) truncate(n int, now time.Time) {
	if n < 0 {
		n = 0
	}
	if n >= len(s.Messages) {
		return
	}
	s.Messages = s.Messages[:n]
	if !s.hasUserMessage() {
		s.Title = DefaultTitle
	}
	s.UpdatedAt = now
}

func (s *Session) clone() *Session {
	cp := *s
	cp.Messages = make([]llm.Message, len(s.Messages))
	for i, m := range s.Messages {
		cp.Messages[i] = cloneMessage(m)
	}
	return &cp
}

func validateMessage(m llm.Message) error {
	switch m.Role {
	case llm.RoleUser, llm.RoleAssistant, llm.RoleTool:
		return nil
	case "":
		return fmt.Errorf("%w: empty role", ErrInvalidMessage)
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidMessage, m.Role)
	}
}

func cloneMessage(m llm.Message) llm.Message {
	if len(m.ToolCalls) > 0 {
		calls := make([]llm.ToolCall, len(m.ToolCalls))
		copy(calls, m.ToolCalls)
		m.ToolCalls = calls
	}
	return m
}
