package llm

import (
	"context"

	"github.com/ollama/ollama/api"
)

type Capability uint8

const (
	NativeToolCalling Capability = 1 << iota
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type LLMClient interface {
	GenerateInference(
		ctx context.Context,
		messages []Message,
		callback func(chunk string) error,
		opts ...LLMOption,
	) error

	// GenerateInferenceWithTools supports native tool calling. A single response may invoke
	// contentCallback, toolCallback or both (content first).
	GenerateInferenceWithTools(
		ctx context.Context,
		messages []Message,
		contentCallback func(chunk string) error,
		toolCallback func(toolCalls []ToolCall) error,
		opts ...LLMOption,
	) error

	Capabilities() Capability

	GetModel() string
}

type LLMSettings struct {
	model       string     // model name
	temperature float64    // randomness (0.0 to 1.0)
	maxTokens   int        // maximum tokens to generate
	system      string     // system prompt
	tools       []api.Tool // tools to use for tool calling
}

type LLMOption func(*LLMSettings)

// Common options for all LLM providers
func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

func WithTools(tools []api.Tool) LLMOption {
	return func(s *LLMSettings) { s.tools = tools }
}

// defaultSettings are deterministic: the chat agent always samples greedily unless told otherwise.
func defaultSettings(model string, opts []LLMOption) LLMSettings {
	settings := LLMSettings{
		model:       model,
		temperature: 0,
		maxTokens:   4096,
	}
	for _, opt := range opts {
		opt(&settings)
	}
	return settings
}

// ToolCall is a tool invocation requested by the model. ID is empty for providers
// that don't issue call ids (Gemini, Ollama).
type ToolCall struct {
	ID       string               `json:"id,omitempty" bson:"id,omitempty"`
	Function api.ToolCallFunction `json:"function" bson:"function"`
}

type Message struct {
	Role       string     `json:"role" bson:"role"`             // "user", "assistant", "tool"
	Content    string     `json:"content" bson:"content"`       // the message content
	ToolCalls  []ToolCall `json:"tool_calls,omitempty" bson:"toolCalls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty" bson:"toolCallId,omitempty"`
	ToolName   string     `json:"tool_name,omitempty" bson:"toolName,omitempty"`
	IsError    bool       `json:"is_error,omitempty" bson:"isError,omitempty"`
}

// IsToolCallEcho reports whether m is the assistant turn that requested tools.
func (m Message) IsToolCallEcho() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func ToolCallMessage(content string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

func ToolResultMessage(call ToolCall, content string, isError bool) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		ToolName:   call.Function.Name,
		IsError:    isError,
	}
}
