package agentboot

import (
	"fmt"
	"slices"

	"github.com/ollama/ollama/api"
)

// MCPToolBuilder declares a tool's JSON schema for the model.
type MCPToolBuilder struct {
	tool MCPTool
}

func NewMCPToolBuilder(name, description string) *MCPToolBuilder {
	b := &MCPToolBuilder{
		tool: MCPTool{
			Tool: api.Tool{
				Type: "function",
				Function: api.ToolFunction{
					Name:        name,
					Description: description,
				},
			},
		},
	}

	b.tool.Function.Parameters.Type = "object"
	b.tool.Function.Parameters.Properties = make(map[string]api.ToolProperty, 8)
	// Required slice stays nil until first add
	return b
}

func (b *MCPToolBuilder) StringParam(name, desc string, required bool) *MCPToolBuilder {
	prop := api.ToolProperty{
		Type:        api.PropertyType{"string"},
		Description: desc,
	}

	b.setProp(name, prop, required)
	return b
}

func (b *MCPToolBuilder) StringSliceParam(name, desc string, required bool) *MCPToolBuilder {
	prop := api.ToolProperty{
		Type:        api.PropertyType{"array"},
		Items:       map[string]any{"type": "string"},
		Description: desc,
	}

	b.setProp(name, prop, required)
	return b
}

// IntParam declares an integer parameter; the accepted range is stated in the description.
func (b *MCPToolBuilder) IntParam(name, desc string, min, max int, required bool) *MCPToolBuilder {
	prop := api.ToolProperty{
		Type:        api.PropertyType{"integer"},
		Description: fmt.Sprintf("%s (%d-%d)", desc, min, max),
	}

	b.setProp(name, prop, required)
	return b
}

func (b *MCPToolBuilder) WithNormalizer(fn func(args api.ToolCallFunctionArguments) (map[string]any, error)) *MCPToolBuilder {
	b.tool.Normalize = fn
	return b
}

func (b *MCPToolBuilder) Build() MCPTool {
	return b.tool
}

func (b *MCPToolBuilder) setProp(name string, p api.ToolProperty, required bool) {
	props := b.tool.Function.Parameters.Properties
	props[name] = p
	if required {
		req := b.tool.Function.Parameters.Required
		if !slices.Contains(req, name) {
			b.tool.Function.Parameters.Required = append(req, name)
		}
	}
}
