// Package schema holds the wire types streamed to clients while an agent turn runs.
package schema

type Stage string

const (
	Stage_tools_requested          Stage = "tools_requested"
	Stage_tool_execution_starting  Stage = "tool_execution_starting"
	Stage_tool_execution_completed Stage = "tool_execution_completed"
	Stage_tool_execution_failed    Stage = "tool_execution_failed"
	Stage_generating_answer        Stage = "generating_answer"
	Stage_round_limit_reached      Stage = "round_limit_reached"
)

// AgentStreamChunk carries exactly one of its fields.
type AgentStreamChunk struct {
	ProgressUpdateChunk *ProgressUpdateChunk `json:"progress,omitempty"`
	ToolResultChunk     *ToolResultChunk     `json:"tool_result,omitempty"`
	Answer              *AnswerChunk         `json:"answer,omitempty"`
	Complete            *StreamComplete      `json:"complete,omitempty"`
	Error               *StreamError         `json:"error,omitempty"`
}

// Kind names the populated field; it doubles as the SSE event name.
func (c *AgentStreamChunk) Kind() string {
	switch {
	case c == nil:
		return ""
	case c.ProgressUpdateChunk != nil:
		return "progress"
	case c.ToolResultChunk != nil:
		return "tool_result"
	case c.Answer != nil:
		return "answer"
	case c.Complete != nil:
		return "complete"
	case c.Error != nil:
		return "error"
	}
	return ""
}

func (c *AgentStreamChunk) GetProgressUpdateChunk() *ProgressUpdateChunk {
	if c == nil {
		return nil
	}
	return c.ProgressUpdateChunk
}

func (c *AgentStreamChunk) GetToolResultChunk() *ToolResultChunk {
	if c == nil {
		return nil
	}
	return c.ToolResultChunk
}

func (c *AgentStreamChunk) GetAnswer() *AnswerChunk {
	if c == nil {
		return nil
	}
	return c.Answer
}

func (c *AgentStreamChunk) GetComplete() *StreamComplete {
	if c == nil {
		return nil
	}
	return c.Complete
}

func (c *AgentStreamChunk) GetError() *StreamError {
	if c == nil {
		return nil
	}
	return c.Error
}

type ProgressUpdateChunk struct {
	Stage     Stage  `json:"stage"`
	Message   string `json:"message"`
	ToolName  string `json:"tool_name,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type ToolResultChunk struct {
	ToolName   string `json:"tool_name"`
	Content    string `json:"content"`
	Success    bool   `json:"success"`
	DurationMs int64  `json:"duration_ms"`
}

type AnswerChunk struct {
	Content string `json:"content"`
}

type StreamComplete struct {
	SessionId      string            `json:"session_id"`
	Answer         string            `json:"answer"`
	ToolsUsed      []string          `json:"tools_used"`
	Rounds         int               `json:"rounds"`
	Truncated      bool              `json:"truncated"`
	ProcessingTime int64             `json:"processing_time_ms"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type StreamError struct {
	ErrorMessage string `json:"error_message"`
	ErrorCode    string `json:"error_code"`
}

type GenerateAnswerRequest struct {
	SessionId string `json:"session_id"`
	Question  string `json:"question"`
}
