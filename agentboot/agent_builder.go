package agentboot

import (
	"github.com/SaiNageswarS/tube-agent/llm"
	"github.com/SaiNageswarS/tube-agent/memory"
)

type AgentBuilder struct {
	config AgentConfig
}

func NewAgentBuilder() *AgentBuilder {
	return &AgentBuilder{
		config: AgentConfig{
			MaxTurns:  5,
			MaxTokens: 4096,
		},
	}
}

func (b *AgentBuilder) WithModel(client llm.LLMClient) *AgentBuilder {
	b.config.Model = client
	return b
}

func (b *AgentBuilder) WithSystemPrompt(prompt string) *AgentBuilder {
	b.config.SystemPrompt = prompt
	return b
}

func (b *AgentBuilder) WithToolGateway(gateway ToolGateway) *AgentBuilder {
	b.config.Gateway = gateway
	return b
}

func (b *AgentBuilder) AddTool(tool MCPTool) *AgentBuilder {
	b.config.Tools = append(b.config.Tools, tool)
	return b
}

func (b *AgentBuilder) WithTools(tools []MCPTool) *AgentBuilder {
	b.config.Tools = append(b.config.Tools, tools...)
	return b
}

func (b *AgentBuilder) WithMaxTokens(max int) *AgentBuilder {
	b.config.MaxTokens = max
	return b
}

func (b *AgentBuilder) WithMaxTurns(maxTurns int) *AgentBuilder {
	b.config.MaxTurns = maxTurns
	return b
}

// WithSessionStore persists turns in store and sends the full history to the model.
func (b *AgentBuilder) WithSessionStore(store memory.SessionStore) *AgentBuilder {
	b.config.ConversationManager = memory.NewConversationManager(store, 0)
	return b
}

func (b *AgentBuilder) WithConversationManager(cm *memory.ConversationManager) *AgentBuilder {
	b.config.ConversationManager = cm
	return b
}

func (b *AgentBuilder) Build() *Agent {
	if b.config.MaxTurns < 0 {
		b.config.MaxTurns = 0
	}

	return &Agent{config: b.config, tools: newToolset(b.config.Tools)}
}
