package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SaiNageswarS/tube-agent/agentboot"
	"github.com/SaiNageswarS/tube-agent/llm"
	"github.com/SaiNageswarS/tube-agent/memory"
	"github.com/SaiNageswarS/tube-agent/schema"
	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM requests get_channel_info once, then answers.
type scriptedLLM struct {
	fail  error
	calls int
}

func (m *scriptedLLM) GenerateInference(ctx context.Context, messages []llm.Message, cb func(string) error, opts ...llm.LLMOption) error {
	return m.GenerateInferenceWithTools(ctx, messages, cb, nil, opts...)
}

func (m *scriptedLLM) GenerateInferenceWithTools(ctx context.Context, messages []llm.Message, cb func(string) error, toolCb func([]llm.ToolCall) error, opts ...llm.LLMOption) error {
	m.calls++
	if m.fail != nil {
		return m.fail
	}
	last := messages[len(messages)-1]
	if last.Role == llm.RoleUser && toolCb != nil {
		return toolCb([]llm.ToolCall{{
			ID:       "call_1",
			Function: api.ToolCallFunction{Name: "get_channel_info", Arguments: api.ToolCallFunctionArguments{"channel_id": "UC1"}},
		}})
	}
	return cb("The channel is about Go.")
}

func (m *scriptedLLM) Capabilities() llm.Capability { return llm.NativeToolCalling }
func (m *scriptedLLM) GetModel() string             { return "scripted" }

type staticGateway struct{}

func (staticGateway) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	return map[string]any{"title": "Go channel"}, nil
}

func setupRouter(t *testing.T, model llm.LLMClient) (http.Handler, memory.SessionStore) {
	t.Helper()
	store := memory.NewMemoryStore()
	agent := agentboot.NewAgentBuilder().
		WithModel(model).
		WithToolGateway(staticGateway{}).
		AddTool(agentboot.NewMCPToolBuilder("get_channel_info", "channel").StringParam("channel_id", "id", true).Build()).
		WithSessionStore(store).
		Build()
	return NewRouter(agent, store), store
}

type sseEvent struct {
	name string
	data string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.name != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		}
	}
	require.NoError(t, scanner.Err())
	return events
}

func postJSON(r http.Handler, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHealthz(t *testing.T) {
	r, _ := setupRouter(t, &scriptedLLM{})
	resp := get(r, "/healthz")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestCreateAndGetSession(t *testing.T) {
	r, _ := setupRouter(t, &scriptedLLM{})

	resp := postJSON(r, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.Code)

	var created memory.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.True(t, strings.HasPrefix(created.ID, "chat_"))
	assert.Equal(t, memory.DefaultTitle, created.Title)
	assert.Empty(t, created.Messages)

	resp = get(r, "/api/sessions/"+created.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	var fetched memory.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
}

func TestGetMissingSession(t *testing.T) {
	r, _ := setupRouter(t, &scriptedLLM{})
	resp := get(r, "/api/sessions/chat_missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"error":"session not found"}`, resp.Body.String())
}

func TestListSessions(t *testing.T) {
	r, _ := setupRouter(t, &scriptedLLM{})

	resp := get(r, "/api/sessions")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())

	postJSON(r, "/api/sessions", nil)
	postJSON(r, "/api/sessions", nil)

	resp = get(r, "/api/sessions")
	var list []memory.SessionSummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestPostMessageStreamsTurn(t *testing.T) {
	r, store := setupRouter(t, &scriptedLLM{})
	session, err := store.CreateSession(context.Background())
	require.NoError(t, err)

	resp := postJSON(r, "/api/sessions/"+session.ID+"/messages", map[string]string{"content": "What is channel UC1 about?"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/event-stream", resp.Header().Get("Content-Type"))

	events := parseSSE(t, resp.Body.String())
	require.NotEmpty(t, events)

	kinds := map[string]int{}
	for _, e := range events {
		kinds[e.name]++
	}
	assert.Greater(t, kinds["progress"], 0)
	assert.Equal(t, 1, kinds["tool_result"])
	assert.Equal(t, 1, kinds["answer"])
	assert.Zero(t, kinds["error"])

	last := events[len(events)-1]
	require.Equal(t, "complete", last.name)
	var chunk schema.AgentStreamChunk
	require.NoError(t, json.Unmarshal([]byte(last.data), &chunk))
	require.NotNil(t, chunk.Complete)
	assert.Equal(t, "The channel is about Go.", chunk.Complete.Answer)
	assert.Equal(t, []string{"get_channel_info"}, chunk.Complete.ToolsUsed)

	stored, err := store.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "What is channel UC1 about?", stored.Title)
	assert.Len(t, stored.Messages, 4)
}

func TestPostMessageFailureLeavesHistoryUnchanged(t *testing.T) {
	r, store := setupRouter(t, &scriptedLLM{fail: errors.New("model unavailable")})
	session, err := store.CreateSession(context.Background())
	require.NoError(t, err)

	resp := postJSON(r, "/api/sessions/"+session.ID+"/messages", map[string]string{"content": "hello"})
	require.Equal(t, http.StatusOK, resp.Code)

	events := parseSSE(t, resp.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "error", last.name)
	assert.Contains(t, last.data, "model unavailable")

	stored, err := store.GetSession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Messages)
	assert.Equal(t, memory.DefaultTitle, stored.Title)
}

func TestPostMessageValidation(t *testing.T) {
	model := &scriptedLLM{}
	r, store := setupRouter(t, model)
	session, err := store.CreateSession(context.Background())
	require.NoError(t, err)

	resp := postJSON(r, "/api/sessions/"+session.ID+"/messages", map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.ID+"/messages", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp = postJSON(r, "/api/sessions/chat_missing/messages", map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	assert.Zero(t, model.calls)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := setupRouter(t, &scriptedLLM{})
	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)

	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}

// stalledWriter is a streaming ResponseWriter whose writes block until released.
type stalledWriter struct {
	header  http.Header
	release chan struct{}

	mu   sync.Mutex
	body bytes.Buffer
}

func newStalledWriter() *stalledWriter {
	return &stalledWriter{header: http.Header{}, release: make(chan struct{})}
}

func (w *stalledWriter) Header() http.Header { return w.header }
func (w *stalledWriter) WriteHeader(int)     {}
func (w *stalledWriter) Flush()              {}

func (w *stalledWriter) Write(p []byte) (int, error) {
	<-w.release
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.body.Write(p)
}

func (w *stalledWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.body.String()
}

func TestPostMessageStalledClientDoesNotBlockTurn(t *testing.T) {
	r, store := setupRouter(t, &scriptedLLM{})
	session, err := store.CreateSession(context.Background())
	require.NoError(t, err)

	w := newStalledWriter()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+session.ID+"/messages",
		strings.NewReader(`{"content":"What is channel UC1 about?"}`))

	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		stored, err := store.GetSession(context.Background(), session.ID)
		return err == nil && len(stored.Messages) == 4
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case <-done:
		t.Fatal("handler finished before the client read anything")
	default:
	}

	close(w.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not finish after the client caught up")
	}

	events := parseSSE(t, w.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "complete", last.name)
	assert.Contains(t, last.data, "The channel is about Go.")
}
