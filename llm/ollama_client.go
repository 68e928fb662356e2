package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

type OllamaClient struct {
	client *api.Client
	model  string
}

// NewOllamaClient connects to baseURL, or to OLLAMA_HOST when baseURL is empty.
func NewOllamaClient(baseURL, model string) (*OllamaClient, error) {
	if baseURL == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("error creating ollama client: %w", err)
		}
		return &OllamaClient{client: client, model: model}, nil
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	return &OllamaClient{client: api.NewClient(u, http.DefaultClient), model: model}, nil
}

func (c *OllamaClient) Capabilities() Capability {
	return NativeToolCalling
}

func (c *OllamaClient) GetModel() string {
	return c.model
}

func (c *OllamaClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := defaultSettings(c.model, opts)
	settings.tools = nil
	return c.chat(ctx, settings, messages, callback, nil)
}

func (c *OllamaClient) GenerateInferenceWithTools(
	ctx context.Context,
	messages []Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []ToolCall) error,
	opts ...LLMOption,
) error {
	settings := defaultSettings(c.model, opts)
	return c.chat(ctx, settings, messages, contentCallback, toolCallback)
}

func (c *OllamaClient) chat(
	ctx context.Context,
	settings LLMSettings,
	messages []Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []ToolCall) error,
) error {
	stream := false
	req := &api.ChatRequest{
		Model:    settings.model,
		Messages: toOllamaMessages(settings.system, messages),
		Stream:   &stream,
		Tools:    settings.tools,
		Options: map[string]any{
			"temperature": settings.temperature,
			"num_predict": settings.maxTokens,
		},
	}

	var content strings.Builder
	var calls []api.ToolCall
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		calls = append(calls, resp.Message.ToolCalls...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}

	if content.Len() > 0 && contentCallback != nil {
		if err := contentCallback(content.String()); err != nil {
			return err
		}
	}

	if len(calls) > 0 && toolCallback != nil {
		toolCalls := make([]ToolCall, len(calls))
		for i, call := range calls {
			toolCalls[i] = ToolCall{Function: call.Function}
		}
		return toolCallback(toolCalls)
	}

	return nil
}

func toOllamaMessages(system string, messages []Message) []api.Message {
	out := make([]api.Message, 0, len(messages)+1)
	if system != "" {
		out = append(out, api.Message{Role: RoleSystem, Content: system})
	}
	for _, m := range messages {
		msg := api.Message{Role: m.Role, Content: m.Content}
		if m.Role == RoleTool {
			msg.ToolName = m.ToolName
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{Function: tc.Function})
		}
		out = append(out, msg)
	}
	return out
}
