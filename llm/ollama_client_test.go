package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaClientChat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.1", req.Model)
		require.NotNil(t, req.Stream)
		assert.False(t, *req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, 0.0, req.Options["temperature"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3.1","message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"get_channel_info","arguments":{"channel_id":"UC1"}}}]},"done":true}` + "\n"))
	}))
	defer server.Close()

	client, err := NewOllamaClient(server.URL, "llama3.1")
	require.NoError(t, err)

	var calls []ToolCall
	err = client.GenerateInferenceWithTools(context.Background(), []Message{UserMessage("who is UC1")},
		func(string) error { return nil },
		func(tc []ToolCall) error {
			calls = tc
			return nil
		},
		WithSystemPrompt("sys"))

	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "get_channel_info", calls[0].Function.Name)
	assert.Equal(t, "UC1", calls[0].Function.Arguments["channel_id"])
}

func TestOllamaClientInvalidURL(t *testing.T) {
	_, err := NewOllamaClient("://bad", "m")
	assert.Error(t, err)
}

func TestOllamaClientSendsToolName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 3)
		assert.Equal(t, "", req.Messages[1].ToolName)
		assert.Equal(t, RoleTool, req.Messages[2].Role)
		assert.Equal(t, "get_channel_info", req.Messages[2].ToolName)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"llama3.1","message":{"role":"assistant","content":"done"},"done":true}` + "\n"))
	}))
	defer server.Close()

	client, err := NewOllamaClient(server.URL, "llama3.1")
	require.NoError(t, err)

	call := ToolCall{ID: "1", Function: api.ToolCallFunction{Name: "get_channel_info", Arguments: api.ToolCallFunctionArguments{"channel_id": "UC1"}}}
	history := []Message{
		UserMessage("who is UC1"),
		ToolCallMessage("", []ToolCall{call}),
		ToolResultMessage(call, `{"title":"Gophers"}`, false),
	}

	var answer string
	err = client.GenerateInferenceWithTools(context.Background(), history,
		func(s string) error {
			answer += s
			return nil
		},
		func([]ToolCall) error { return nil })

	require.NoError(t, err)
	assert.Equal(t, "done", answer)
}
