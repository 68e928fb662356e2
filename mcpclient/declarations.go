package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
)

// ToolDeclarations converts the server catalog into model tool declarations.
func (g *Gateway) ToolDeclarations(ctx context.Context) ([]api.Tool, error) {
	tools, err := g.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]api.Tool, 0, len(tools))
	for _, t := range tools {
		decl, err := ToAPITool(t)
		if err != nil {
			return nil, err
		}
		out = append(out, decl)
	}
	return out, nil
}

// ToAPITool maps an MCP tool's JSON schema onto an ollama function declaration.
func ToAPITool(t mcp.Tool) (api.Tool, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return api.Tool{}, fmt.Errorf("error encoding tool %s: %w", t.Name, err)
	}

	var wire struct {
		InputSchema struct {
			Type       string                     `json:"type"`
			Required   []string                   `json:"required"`
			Properties map[string]api.ToolProperty `json:"properties"`
		} `json:"inputSchema"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return api.Tool{}, fmt.Errorf("error decoding schema of tool %s: %w", t.Name, err)
	}

	tool := api.Tool{
		Type: "function",
		Function: api.ToolFunction{
			Name:        t.Name,
			Description: t.Description,
		},
	}
	tool.Function.Parameters.Type = "object"
	tool.Function.Parameters.Required = wire.InputSchema.Required
	tool.Function.Parameters.Properties = wire.InputSchema.Properties
	if tool.Function.Parameters.Properties == nil {
		tool.Function.Parameters.Properties = map[string]api.ToolProperty{}
	}
	return tool, nil
}
