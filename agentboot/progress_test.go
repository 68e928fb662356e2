package agentboot

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SaiNageswarS/tube-agent/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpProgressReporter(t *testing.T) {
	reporter := &NoOpProgressReporter{}

	for i := 0; i < 10; i++ {
		assert.NoError(t, reporter.Send(&schema.AgentStreamChunk{}))
	}
}

func TestLogProgressReporter(t *testing.T) {
	reporter := &LogProgressReporter{SessionID: "chat_1_abcdef12"}

	assert.NoError(t, reporter.Send(NewProgressUpdate(schema.Stage_tools_requested, "2 tools requested")))
	assert.NoError(t, reporter.Send(NewToolExecutionResult(ToolResult{Name: "get_channel_info", Success: true})))
	assert.NoError(t, reporter.Send(NewStreamComplete(&schema.StreamComplete{Rounds: 1})))
	assert.NoError(t, reporter.Send(NewStreamError("boom", "inference_failed")))
}

func TestNewProgressUpdate(t *testing.T) {
	chunk := NewToolProgressUpdate(schema.Stage_tool_execution_starting, "get_channel_info", "running tool get_channel_info")

	progressChunk := chunk.GetProgressUpdateChunk()
	require.NotNil(t, progressChunk)
	assert.Equal(t, schema.Stage_tool_execution_starting, progressChunk.Stage)
	assert.Equal(t, "running tool get_channel_info", progressChunk.Message)
	assert.Equal(t, "get_channel_info", progressChunk.ToolName)

	now := time.Now().UnixMilli()
	assert.True(t, progressChunk.Timestamp <= now)
	assert.True(t, progressChunk.Timestamp > now-60000)

	assert.Empty(t, NewProgressUpdate(schema.Stage_generating_answer, "x").GetProgressUpdateChunk().ToolName)
}

func TestNewToolExecutionResult(t *testing.T) {
	chunk := NewToolExecutionResult(ToolResult{
		Name:     "get_youtube_transcript",
		Payload:  "Tool error (get_youtube_transcript): timeout",
		Success:  false,
		Duration: 1500 * time.Millisecond,
	})

	tr := chunk.GetToolResultChunk()
	require.NotNil(t, tr)
	assert.Equal(t, "get_youtube_transcript", tr.ToolName)
	assert.False(t, tr.Success)
	assert.Equal(t, int64(1500), tr.DurationMs)
	assert.Equal(t, "tool_result", chunk.Kind())
}

func TestNewAnswerCompleteAndError(t *testing.T) {
	assert.Equal(t, "hello", NewAnswerChunk("hello").GetAnswer().Content)

	complete := NewStreamComplete(&schema.StreamComplete{Answer: "done", ToolsUsed: []string{"a"}})
	assert.Equal(t, "done", complete.GetComplete().Answer)
	assert.Equal(t, "complete", complete.Kind())

	errChunk := NewStreamError("boom", "inference_failed")
	assert.Equal(t, "boom", errChunk.GetError().ErrorMessage)
	assert.Equal(t, "inference_failed", errChunk.GetError().ErrorCode)
}

type failingReporter struct{}

func (failingReporter) Send(*schema.AgentStreamChunk) error { return errors.New("client gone") }

func TestSendSwallowsReporterErrors(t *testing.T) {
	assert.NotPanics(t, func() {
		send(failingReporter{}, NewProgressUpdate(schema.Stage_tools_requested, "1 tools requested"))
	})
}

// blockingReporter records events and blocks until released.
type blockingReporter struct {
	mu      sync.Mutex
	events  []*schema.AgentStreamChunk
	release chan struct{}
}

func (r *blockingReporter) Send(e *schema.AgentStreamChunk) error {
	<-r.release
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func TestBufferedProgressReporterPreservesOrder(t *testing.T) {
	inner := &blockingReporter{release: make(chan struct{})}
	close(inner.release)

	reporter := NewBufferedProgressReporter(inner, 16)
	for i := 0; i < 10; i++ {
		require.NoError(t, reporter.Send(NewAnswerChunk(string(rune('a' + i)))))
	}
	reporter.Close()

	require.Len(t, inner.events, 10)
	for i, e := range inner.events {
		assert.Equal(t, string(rune('a'+i)), e.GetAnswer().Content)
	}
	assert.Equal(t, int64(0), reporter.Dropped())
}

func TestBufferedProgressReporterNeverBlocks(t *testing.T) {
	inner := &blockingReporter{release: make(chan struct{})}
	reporter := NewBufferedProgressReporter(inner, 2)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			reporter.Send(NewAnswerChunk("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on a stalled consumer")
	}

	close(inner.release)
	reporter.Close()

	assert.Greater(t, reporter.Dropped(), int64(0))
	assert.Equal(t, int64(20), reporter.Dropped()+int64(len(inner.events)))
}

func TestBufferedProgressReporterKeepsTerminalEvents(t *testing.T) {
	inner := &blockingReporter{release: make(chan struct{})}
	reporter := NewBufferedProgressReporter(inner, 1)

	for i := 0; i < 5; i++ {
		reporter.Send(NewProgressUpdate(schema.Stage_generating_answer, "round"))
	}
	reporter.Send(NewStreamComplete(&schema.StreamComplete{Answer: "done"}))

	close(inner.release)
	reporter.Close()

	assert.Greater(t, reporter.Dropped(), int64(0))
	require.NotEmpty(t, inner.events)
	last := inner.events[len(inner.events)-1]
	require.NotNil(t, last.GetComplete())
	assert.Equal(t, "done", last.GetComplete().Answer)
}

type recordingReporter struct {
	kinds []string
}

func (r *recordingReporter) Send(e *schema.AgentStreamChunk) error {
	r.kinds = append(r.kinds, e.Kind())
	return nil
}

func TestMultiProgressReporter(t *testing.T) {
	first, second := &recordingReporter{}, &recordingReporter{}
	reporter := MultiProgressReporter{first, failingReporter{}, second}

	err := reporter.Send(NewAnswerChunk("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client gone")
	assert.Equal(t, []string{"answer"}, first.kinds)
	assert.Equal(t, []string{"answer"}, second.kinds)
}
