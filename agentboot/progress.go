package agentboot

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/tube-agent/schema"
	"go.uber.org/zap"
)

// ProgressReporter is an interface for reporting agent execution progress
type ProgressReporter interface {
	// Send sends a progress update
	Send(event *schema.AgentStreamChunk) error
}

// NoOpProgressReporter implements ProgressReporter with no-op operations
type NoOpProgressReporter struct{}

// Send does nothing
func (r *NoOpProgressReporter) Send(event *schema.AgentStreamChunk) error {
	return nil
}

// LogProgressReporter writes every event to the application log.
type LogProgressReporter struct {
	SessionID string
}

func (r *LogProgressReporter) Send(event *schema.AgentStreamChunk) error {
	fields := []zap.Field{zap.String("session", r.SessionID), zap.String("kind", event.Kind())}
	switch {
	case event.GetProgressUpdateChunk() != nil:
		p := event.GetProgressUpdateChunk()
		fields = append(fields, zap.String("stage", string(p.Stage)), zap.String("message", p.Message))
	case event.GetToolResultChunk() != nil:
		tr := event.GetToolResultChunk()
		fields = append(fields, zap.String("tool", tr.ToolName), zap.Bool("success", tr.Success), zap.Int64("duration_ms", tr.DurationMs))
	case event.GetComplete() != nil:
		fields = append(fields, zap.Int("rounds", event.GetComplete().Rounds), zap.Strings("tools", event.GetComplete().ToolsUsed))
	case event.GetError() != nil:
		fields = append(fields, zap.String("code", event.GetError().ErrorCode), zap.String("error", event.GetError().ErrorMessage))
	}
	logger.Info("Agent progress", fields...)
	return nil
}

// MultiProgressReporter fans every event out to each reporter in order.
type MultiProgressReporter []ProgressReporter

func (m MultiProgressReporter) Send(event *schema.AgentStreamChunk) error {
	var errs []error
	for _, r := range m {
		if err := r.Send(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BufferedProgressReporter decouples the agent from a slow consumer. Send never blocks:
// progress events are queued in order and dropped when the queue is full. Complete and
// error events are never dropped; they are delivered after the queue drains on Close.
type BufferedProgressReporter struct {
	next    ProgressReporter
	events  chan *schema.AgentStreamChunk
	dropped atomic.Int64
	done    chan struct{}
	once    sync.Once

	mu       sync.Mutex
	terminal []*schema.AgentStreamChunk
}

func NewBufferedProgressReporter(next ProgressReporter, size int) *BufferedProgressReporter {
	if size <= 0 {
		size = 64
	}
	r := &BufferedProgressReporter{
		next:   next,
		events: make(chan *schema.AgentStreamChunk, size),
		done:   make(chan struct{}),
	}
	go r.drain()
	return r
}

func (r *BufferedProgressReporter) Send(event *schema.AgentStreamChunk) error {
	if event.GetComplete() != nil || event.GetError() != nil {
		r.mu.Lock()
		r.terminal = append(r.terminal, event)
		r.mu.Unlock()
		return nil
	}

	select {
	case r.events <- event:
	default:
		r.dropped.Add(1)
	}
	return nil
}

// Close flushes queued events, then the terminal ones, and stops the reporter.
// Send must not be called afterwards.
func (r *BufferedProgressReporter) Close() {
	r.once.Do(func() { close(r.events) })
	<-r.done
}

func (r *BufferedProgressReporter) Dropped() int64 {
	return r.dropped.Load()
}

func (r *BufferedProgressReporter) drain() {
	defer close(r.done)
	for event := range r.events {
		r.deliver(event)
	}

	r.mu.Lock()
	terminal := r.terminal
	r.terminal = nil
	r.mu.Unlock()
	for _, event := range terminal {
		r.deliver(event)
	}
}

func (r *BufferedProgressReporter) deliver(event *schema.AgentStreamChunk) {
	if err := r.next.Send(event); err != nil {
		logger.Error("Failed to deliver progress event", zap.String("kind", event.Kind()), zap.Error(err))
	}
}

// Helper functions for creating progress events
func NewProgressUpdate(stage schema.Stage, message string) *schema.AgentStreamChunk {
	return NewToolProgressUpdate(stage, "", message)
}

func NewToolProgressUpdate(stage schema.Stage, toolName, message string) *schema.AgentStreamChunk {
	return &schema.AgentStreamChunk{
		ProgressUpdateChunk: &schema.ProgressUpdateChunk{
			Stage:     stage,
			Message:   message,
			ToolName:  toolName,
			Timestamp: time.Now().UnixMilli(),
		},
	}
}

// NewToolExecutionResult creates a ToolResultChunk chunk
func NewToolExecutionResult(result ToolResult) *schema.AgentStreamChunk {
	return &schema.AgentStreamChunk{
		ToolResultChunk: &schema.ToolResultChunk{
			ToolName:   result.Name,
			Content:    result.Payload,
			Success:    result.Success,
			DurationMs: result.Duration.Milliseconds(),
		},
	}
}

// NewAnswerChunk creates an AnswerChunk
func NewAnswerChunk(content string) *schema.AgentStreamChunk {
	return &schema.AgentStreamChunk{
		Answer: &schema.AnswerChunk{Content: content},
	}
}

// NewStreamComplete creates a StreamComplete chunk
func NewStreamComplete(finalResponse *schema.StreamComplete) *schema.AgentStreamChunk {
	return &schema.AgentStreamChunk{
		Complete: finalResponse,
	}
}

// NewStreamError creates a StreamError chunk
func NewStreamError(message, code string) *schema.AgentStreamChunk {
	return &schema.AgentStreamChunk{
		Error: &schema.StreamError{
			ErrorMessage: message,
			ErrorCode:    code,
		},
	}
}

// send delivers event and swallows reporter failures; progress is best effort.
func send(reporter ProgressReporter, event *schema.AgentStreamChunk) {
	if err := reporter.Send(event); err != nil {
		logger.Error("Failed to send progress event", zap.String("kind", event.Kind()), zap.Error(err))
	}
}
