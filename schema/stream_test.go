package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkKind(t *testing.T) {
	tests := []struct {
		chunk *AgentStreamChunk
		kind  string
	}{
		{nil, ""},
		{&AgentStreamChunk{}, ""},
		{&AgentStreamChunk{ProgressUpdateChunk: &ProgressUpdateChunk{}}, "progress"},
		{&AgentStreamChunk{ToolResultChunk: &ToolResultChunk{}}, "tool_result"},
		{&AgentStreamChunk{Answer: &AnswerChunk{}}, "answer"},
		{&AgentStreamChunk{Complete: &StreamComplete{}}, "complete"},
		{&AgentStreamChunk{Error: &StreamError{}}, "error"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.chunk.Kind())
	}
}

func TestNilChunkGetters(t *testing.T) {
	var c *AgentStreamChunk
	assert.Nil(t, c.GetProgressUpdateChunk())
	assert.Nil(t, c.GetToolResultChunk())
	assert.Nil(t, c.GetAnswer())
	assert.Nil(t, c.GetComplete())
	assert.Nil(t, c.GetError())
}

func TestChunkJSONOmitsEmptyVariants(t *testing.T) {
	c := &AgentStreamChunk{ProgressUpdateChunk: &ProgressUpdateChunk{Stage: Stage_tools_requested, Message: "2 tools requested"}}

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Len(t, m, 1)
	assert.Equal(t, "tools_requested", m["progress"].(map[string]any)["stage"])
}
