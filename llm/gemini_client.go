package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const geminiDefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GeminiClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = "gemini-2.5-pro"
	}
	return &GeminiClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    geminiDefaultBaseURL,
		model:      model,
	}
}

func (c *GeminiClient) Capabilities() Capability {
	return NativeToolCalling
}

func (c *GeminiClient) GetModel() string {
	return c.model
}

func (c *GeminiClient) GenerateInference(ctx context.Context, messages []Message, callback func(chunk string) error, opts ...LLMOption) error {
	settings := defaultSettings(c.model, opts)
	settings.tools = nil
	return c.generate(ctx, settings, messages, callback, nil)
}

func (c *GeminiClient) GenerateInferenceWithTools(
	ctx context.Context,
	messages []Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []ToolCall) error,
	opts ...LLMOption,
) error {
	settings := defaultSettings(c.model, opts)
	return c.generate(ctx, settings, messages, contentCallback, toolCallback)
}

func (c *GeminiClient) generate(
	ctx context.Context,
	settings LLMSettings,
	messages []Message,
	contentCallback func(chunk string) error,
	toolCallback func(toolCalls []ToolCall) error,
) error {
	request := buildGeminiRequest(settings, messages)

	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.baseURL, "/"), settings.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("error unmarshaling response: %w", err)
	}

	if len(response.Candidates) == 0 {
		if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
			return fmt.Errorf("prompt blocked: %s", response.PromptFeedback.BlockReason)
		}
		return fmt.Errorf("no candidates in response")
	}

	var text strings.Builder
	var toolCalls []ToolCall
	for _, part := range response.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			toolCalls = append(toolCalls, ToolCall{
				Function: api.ToolCallFunction{
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				},
			})
			continue
		}
		text.WriteString(part.Text)
	}

	if text.Len() > 0 && contentCallback != nil {
		if err := contentCallback(text.String()); err != nil {
			return err
		}
	}

	if len(toolCalls) > 0 && toolCallback != nil {
		return toolCallback(toolCalls)
	}

	return nil
}

// buildGeminiRequest maps local roles onto Gemini contents: assistant becomes "model",
// user and tool pass through unchanged.
func buildGeminiRequest(settings LLMSettings, messages []Message) geminiRequest {
	contents := make([]geminiContent, 0, len(messages))
	for _, m := range messages {
		switch {
		case m.Role == RoleSystem:
			continue
		case m.IsToolCallEcho():
			parts := make([]geminiPart, 0, len(m.ToolCalls)+1)
			if m.Content != "" {
				parts = append(parts, geminiPart{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, geminiPart{FunctionCall: &geminiFunctionCall{
					Name: tc.Function.Name,
					Args: tc.Function.Arguments,
				}})
			}
			contents = append(contents, geminiContent{Role: "model", Parts: parts})
		case m.Role == RoleTool:
			contents = append(contents, geminiContent{
				Role: RoleTool,
				Parts: []geminiPart{{FunctionResponse: &geminiFunctionResponse{
					Name:     m.ToolName,
					Response: map[string]any{"result": m.Content},
				}}},
			})
		case m.Role == RoleAssistant:
			contents = append(contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			contents = append(contents, geminiContent{Role: m.Role, Parts: []geminiPart{{Text: m.Content}}})
		}
	}

	temperature := settings.temperature
	request := geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     &temperature,
			MaxOutputTokens: settings.maxTokens,
		},
	}

	if settings.system != "" {
		request.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: settings.system}}}
	}

	if len(settings.tools) > 0 {
		decls := make([]geminiFunctionDeclaration, len(settings.tools))
		for i, tool := range settings.tools {
			decls[i] = toGeminiDeclaration(tool)
		}
		request.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}

	return request
}

func toGeminiDeclaration(tool api.Tool) geminiFunctionDeclaration {
	params := &geminiSchema{
		Type:       "object",
		Properties: make(map[string]*geminiSchema, len(tool.Function.Parameters.Properties)),
		Required:   tool.Function.Parameters.Required,
	}

	names := make([]string, 0, len(tool.Function.Parameters.Properties))
	for name := range tool.Function.Parameters.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := tool.Function.Parameters.Properties[name]
		schema := &geminiSchema{Type: "string", Description: prop.Description, Enum: prop.Enum}
		if len(prop.Type) > 0 {
			schema.Type = prop.Type[0]
		}
		if schema.Type == "array" {
			schema.Items = &geminiSchema{Type: "string"}
			if items, ok := prop.Items.(map[string]any); ok {
				if t, ok := items["type"].(string); ok {
					schema.Items.Type = t
				}
			}
		}
		params.Properties[name] = schema
	}

	return geminiFunctionDeclaration{
		Name:        tool.Function.Name,
		Description: tool.Function.Description,
		Parameters:  params,
	}
}

// Gemini API types
type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Tools             []geminiTool           `json:"tools,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type geminiFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiFunctionDeclaration struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Parameters  *geminiSchema `json:"parameters,omitempty"`
}

type geminiSchema struct {
	Type        string                   `json:"type"`
	Description string                   `json:"description,omitempty"`
	Enum        []any                    `json:"enum,omitempty"`
	Items       *geminiSchema            `json:"items,omitempty"`
	Properties  map[string]*geminiSchema `json:"properties,omitempty"`
	Required    []string                 `json:"required,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}
