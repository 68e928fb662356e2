package agentboot

import "github.com/ollama/ollama/api"

// toolset indexes the agent's tools by function name. The first tool registered under a
// name wins; later duplicates are still declared to the model but never invoked.
type toolset struct {
	byName map[string]*MCPTool
	decls  []api.Tool
}

func newToolset(tools []MCPTool) toolset {
	ts := toolset{
		byName: make(map[string]*MCPTool, len(tools)),
		decls:  make([]api.Tool, 0, len(tools)),
	}
	for i := range tools {
		t := &tools[i]
		if _, dup := ts.byName[t.Function.Name]; !dup {
			ts.byName[t.Function.Name] = t
		}
		ts.decls = append(ts.decls, t.Tool)
	}
	return ts
}

func (ts toolset) lookup(name string) (*MCPTool, bool) {
	t, ok := ts.byName[name]
	return t, ok
}

// declarations are the tool schemas sent to the model, in registration order.
func (ts toolset) declarations() []api.Tool {
	return ts.decls
}
