package agentboot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SaiNageswarS/tube-agent/llm"
	"github.com/SaiNageswarS/tube-agent/memory"
	"github.com/ollama/ollama/api"
)

var ErrEmptyHistory = errors.New("history is empty")

// ToolGateway executes a named tool on the remote tool server.
type ToolGateway interface {
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
}

// AgentConfig holds configuration for the agent
type AgentConfig struct {
	Model        llm.LLMClient
	SystemPrompt string
	Tools        []MCPTool
	Gateway      ToolGateway
	MaxTokens    int
	MaxTurns     int

	// Conversation management
	ConversationManager *memory.ConversationManager
}

// Agent represents the main agent system
type Agent struct {
	config AgentConfig
	tools  toolset

	// one mutex per session id
	sessionLocks sync.Map
}

// MCPTool wraps an api.Tool declaration with optional argument normalization.
type MCPTool struct {
	api.Tool
	// Normalize validates the model's arguments and returns what is sent to the server.
	Normalize func(args api.ToolCallFunctionArguments) (map[string]any, error) `json:"-"`
}

// ToolResult is the outcome of one tool invocation as fed back to the model.
type ToolResult struct {
	Name     string
	Payload  string
	Success  bool
	Duration time.Duration
}

// TurnResult is everything one Respond call produced.
type TurnResult struct {
	Answer string
	// Messages are the new history entries in order: tool-call echoes, tool results and
	// the final assistant message.
	Messages  []llm.Message
	ToolsUsed []string
	Rounds    int
	Truncated bool
}

func (a *Agent) lockSession(id string) func() {
	v, _ := a.sessionLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
