package memory

import (
	"context"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/tube-agent/llm"
	"go.uber.org/zap"
)

// ConversationManager loads sessions from a store and bounds the history sent to the model.
type ConversationManager struct {
	store    SessionStore
	maxTurns int
}

// NewConversationManager keeps the last maxTurns user turns in model requests; 0 keeps everything.
func NewConversationManager(store SessionStore, maxTurns int) *ConversationManager {
	return &ConversationManager{
		store:    store,
		maxTurns: maxTurns,
	}
}

func (cm *ConversationManager) Store() SessionStore {
	return cm.store
}

// LoadSession returns the session, creating it lazily.
func (cm *ConversationManager) LoadSession(ctx context.Context, sessionID string) (*Session, error) {
	session, err := cm.store.GetOrCreateSession(ctx, sessionID)
	if err != nil {
		logger.Error("Failed to load session", zap.String("session", sessionID), zap.Error(err))
		return nil, err
	}
	return session, nil
}

// ModelHistory returns the part of msgs the model should see.
func (cm *ConversationManager) ModelHistory(msgs []llm.Message) []llm.Message {
	return cm.trimForModel(msgs)
}

// trimForModel keeps the last maxTurns "user" messages and everything that follows them
// (assistant text, tool-call echoes, tool results). Tool results never count as user turns.
func (cm *ConversationManager) trimForModel(msgs []llm.Message) []llm.Message {
	if cm.maxTurns <= 0 || len(msgs) == 0 {
		return msgs
	}

	usersSeen := 0
	start := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == llm.RoleUser {
			usersSeen++
			if usersSeen == cm.maxTurns {
				start = i
				break
			}
		}
	}

	return msgs[start:]
}
