package agentboot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/tube-agent/llm"
	"github.com/SaiNageswarS/tube-agent/schema"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// runTools executes calls sequentially in model order and returns one tool message per call.
func (a *Agent) runTools(ctx context.Context, reporter ProgressReporter, calls []llm.ToolCall, turn *TurnResult) []llm.Message {
	send(reporter, NewProgressUpdate(schema.Stage_tools_requested, fmt.Sprintf("%d tools requested", len(calls))))

	out := make([]llm.Message, 0, len(calls))
	for i := range calls {
		res := a.RunTool(ctx, reporter, &calls[i])
		out = append(out, llm.ToolResultMessage(calls[i], res.Payload, !res.Success))
		turn.ToolsUsed = appendUnique(turn.ToolsUsed, res.Name)
	}
	return out
}

// RunTool invokes one tool call. Failures never escape: they become a result whose
// payload reads "Tool error (<name>): <message>".
func (a *Agent) RunTool(ctx context.Context, reporter ProgressReporter, call *llm.ToolCall) ToolResult {
	name := call.Function.Name
	send(reporter, NewToolProgressUpdate(schema.Stage_tool_execution_starting, name, "running tool "+name))

	logger.Info("Running tool", zap.String("tool", name), zap.String("args", formatToolArgs(call.Function.Arguments)))

	start := time.Now()
	payload, err := a.invokeTool(ctx, call)
	var text string
	if err == nil {
		text, err = renderToolPayload(payload)
	}

	result := ToolResult{Name: name, Duration: time.Since(start)}
	if err != nil {
		logger.Error("Tool execution failed", zap.String("tool", name), zap.Error(err))
		result.Payload = fmt.Sprintf("Tool error (%s): %s", name, err.Error())
		send(reporter, NewToolProgressUpdate(schema.Stage_tool_execution_failed, name,
			fmt.Sprintf("tool %s failed: %s", name, err.Error())))
	} else {
		result.Payload = text
		result.Success = true
		send(reporter, NewToolProgressUpdate(schema.Stage_tool_execution_completed, name, "tool "+name+" completed"))
	}

	send(reporter, NewToolExecutionResult(result))
	return result
}

func (a *Agent) invokeTool(ctx context.Context, call *llm.ToolCall) (any, error) {
	name := call.Function.Name
	tool, ok := a.tools.lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}

	args := map[string]any(call.Function.Arguments)
	if tool.Normalize != nil {
		normalized, err := tool.Normalize(call.Function.Arguments)
		if err != nil {
			return nil, err
		}
		args = normalized
	}
	if args == nil {
		args = map[string]any{}
	}

	if a.config.Gateway == nil {
		return nil, errors.New("no tool gateway configured")
	}
	return a.config.Gateway.CallTool(ctx, name, args)
}

// formatToolArgs renders arguments as sorted key=value pairs for log lines.
func formatToolArgs(params api.ToolCallFunctionArguments) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		var valueStr string
		switch v := params[k].(type) {
		case string:
			valueStr = v
		case []string:
			valueStr = strings.Join(v, ",")
		case []interface{}:
			strs := make([]string, len(v))
			for i, item := range v {
				strs[i] = fmt.Sprintf("%v", item)
			}
			valueStr = strings.Join(strs, ",")
		default:
			valueStr = fmt.Sprintf("%v", v)
		}
		parts = append(parts, k+"="+valueStr)
	}
	return strings.Join(parts, " ")
}

func appendUnique(list []string, name string) []string {
	for _, n := range list {
		if n == name {
			return list
		}
	}
	return append(list, name)
}
