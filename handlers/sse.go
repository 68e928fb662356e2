package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/SaiNageswarS/tube-agent/schema"
)

var errStreamingUnsupported = errors.New("streaming unsupported")

// SSEProgressReporter writes agent stream chunks as server-sent events named by chunk kind.
type SSEProgressReporter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func NewSSEProgressReporter(w http.ResponseWriter) (*SSEProgressReporter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	setupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &SSEProgressReporter{w: w, flusher: flusher}, nil
}

func (s *SSEProgressReporter) Send(event *schema.AgentStreamChunk) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error encoding %s event: %w", event.Kind(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event.Kind(), data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}
