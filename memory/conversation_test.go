package memory

import (
	"context"
	"testing"

	"github.com/SaiNageswarS/tube-agent/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationManager_LoadSession(t *testing.T) {
	cm := NewConversationManager(NewMemoryStore(), 10)

	first, err := cm.LoadSession(context.Background(), "chat_1_abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "chat_1_abcd1234", first.ID)
	assert.Empty(t, first.Messages)

	require.NoError(t, cm.Store().Append(context.Background(), first.ID, llm.UserMessage("hi")))

	again, err := cm.LoadSession(context.Background(), "chat_1_abcd1234")
	require.NoError(t, err)
	assert.Len(t, again.Messages, 1)
}

func TestConversationManager_trimForModel(t *testing.T) {
	echo := llm.ToolCallMessage("", []llm.ToolCall{{ID: "c1"}})
	toolResult := llm.Message{Role: llm.RoleTool, Content: "Tool result", ToolCallID: "c1"}

	tests := []struct {
		name     string
		maxTurns int
		input    []llm.Message
		expected []llm.Message
	}{
		{
			name:     "empty messages",
			maxTurns: 5,
			input:    []llm.Message{},
			expected: []llm.Message{},
		},
		{
			name:     "maxTurns is 0 keeps everything",
			maxTurns: 0,
			input:    []llm.Message{{Role: "user", Content: "Hello"}},
			expected: []llm.Message{{Role: "user", Content: "Hello"}},
		},
		{
			name:     "fewer turns than max",
			maxTurns: 5,
			input: []llm.Message{
				{Role: "user", Content: "Hello"},
				{Role: "assistant", Content: "Hi!"},
			},
			expected: []llm.Message{
				{Role: "user", Content: "Hello"},
				{Role: "assistant", Content: "Hi!"},
			},
		},
		{
			name:     "more turns than max",
			maxTurns: 2,
			input: []llm.Message{
				{Role: "user", Content: "Hello"},
				{Role: "assistant", Content: "Hi!"},
				{Role: "user", Content: "How are you?"},
				{Role: "assistant", Content: "I'm good!"},
				{Role: "user", Content: "What's trending?"},
				{Role: "assistant", Content: "Cats."},
			},
			expected: []llm.Message{
				{Role: "user", Content: "How are you?"},
				{Role: "assistant", Content: "I'm good!"},
				{Role: "user", Content: "What's trending?"},
				{Role: "assistant", Content: "Cats."},
			},
		},
		{
			name:     "tool results do not count as user turns",
			maxTurns: 1,
			input: []llm.Message{
				{Role: "user", Content: "Hello"},
				{Role: "assistant", Content: "Hi!"},
				{Role: "user", Content: "Summarize abc"},
				echo,
				toolResult,
				{Role: "assistant", Content: "Summary"},
			},
			expected: []llm.Message{
				{Role: "user", Content: "Summarize abc"},
				echo,
				toolResult,
				{Role: "assistant", Content: "Summary"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm := NewConversationManager(nil, tt.maxTurns)
			assert.Equal(t, tt.expected, cm.ModelHistory(tt.input))
		})
	}
}
