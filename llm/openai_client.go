package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient talks to OpenAI or any OpenAI-compatible endpoint through the official SDK.
type OpenAIClient struct {
	client openai.Client
	model  string
}

func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *OpenAIClient) Capabilities() Capability {
	return NativeToolCalling
}

func (c *OpenAIClient) GetModel() string {
	return c.model
}

func (c *OpenAIClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := defaultSettings(c.model, opts)
	settings.tools = nil
	return c.complete(ctx, settings, messages, callback, nil)
}

func (c *OpenAIClient) GenerateInferenceWithTools(
	ctx context.Context,
	messages []Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []ToolCall) error,
	opts ...LLMOption,
) error {
	settings := defaultSettings(c.model, opts)
	return c.complete(ctx, settings, messages, contentCallback, toolCallback)
}

func (c *OpenAIClient) complete(
	ctx context.Context,
	settings LLMSettings,
	messages []Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []ToolCall) error,
) error {
	params := openai.ChatCompletionNewParams{
		Model:       settings.model,
		Messages:    toOpenAIMessages(settings.system, messages),
		Temperature: openai.Float(settings.temperature),
	}
	if settings.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(settings.maxTokens))
	}
	if len(settings.tools) > 0 {
		tools, err := toOpenAITools(settings.tools)
		if err != nil {
			return err
		}
		params.Tools = tools
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return fmt.Errorf("no choices in response")
	}

	msg := resp.Choices[0].Message
	if msg.Content != "" && contentCallback != nil {
		if err := contentCallback(msg.Content); err != nil {
			return err
		}
	}

	if len(msg.ToolCalls) > 0 && toolCallback != nil {
		toolCalls := make([]ToolCall, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			var args map[string]any
			if tc.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					return fmt.Errorf("error parsing tool call arguments: %w", err)
				}
			}
			toolCalls = append(toolCalls, ToolCall{
				ID:       tc.ID,
				Function: api.ToolCallFunction{Name: tc.Function.Name, Arguments: args},
			})
		}
		return toolCallback(toolCalls)
	}

	return nil
}

func toOpenAIMessages(system string, messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}

	for _, m := range messages {
		switch {
		case m.IsToolCallEcho():
			calls := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				args, _ := json.Marshal(tc.Function.Arguments)
				calls = append(calls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Function.Name,
							Arguments: string(args),
						},
					},
				})
			}
			assistant := &openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
			if m.Content != "" {
				assistant.Content.OfString = openai.String(m.Content)
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		case m.Role == RoleTool:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					ToolCallID: m.ToolCallID,
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(m.Content),
					},
				},
			})
		case m.Role == RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case m.Role == RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func toOpenAITools(tools []api.Tool) ([]openai.ChatCompletionToolUnionParam, error) {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		raw, err := json.Marshal(tool.Function.Parameters)
		if err != nil {
			return nil, fmt.Errorf("error marshaling parameters of %s: %w", tool.Function.Name, err)
		}
		var params openai.FunctionParameters
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("error converting parameters of %s: %w", tool.Function.Name, err)
		}
		if params["required"] == nil {
			params["required"] = []string{}
		}

		out = append(out, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        tool.Function.Name,
			Description: openai.String(tool.Function.Description),
			Parameters:  params,
		}))
	}
	return out, nil
}
