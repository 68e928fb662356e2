package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"regexp"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
)

func resultPayload(res *mcp.CallToolResult) any {
	if structured := structuredContent(res); structured != nil {
		return structured
	}

	if texts := textParts(res); len(texts) > 0 {
		return strings.Join(texts, "\n")
	}

	if len(res.Content) == 0 {
		return ""
	}
	return rawContent(res.Content)
}

func errorText(res *mcp.CallToolResult) string {
	if texts := textParts(res); len(texts) > 0 {
		return strings.Join(texts, "\n")
	}
	return "tool reported an error"
}

func textParts(res *mcp.CallToolResult) []string {
	var texts []string
	for _, c := range res.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			texts = append(texts, tc.Text)
		}
	}
	return texts
}

// structuredContent reads structuredContent off the wire form so it works whether or
// not the SDK version models the field.
func structuredContent(res *mcp.CallToolResult) any {
	raw, err := json.Marshal(res)
	if err != nil {
		return nil
	}
	var wire struct {
		StructuredContent any `json:"structuredContent"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil
	}
	return wire.StructuredContent
}

func rawContent(content []mcp.Content) any {
	raw, err := json.Marshal(content)
	if err != nil {
		return content
	}
	var out []any
	if err := json.Unmarshal(raw, &out); err != nil {
		return content
	}
	return out
}

var retryableStatus = regexp.MustCompile(`status(?: code)?:? (429|502|503|504)\b`)

// isTransient reports failures worth another attempt: dropped or refused connections,
// per-attempt timeouts and gateway-style HTTP statuses.
func isTransient(err error, attemptCtx context.Context) bool {
	if err == nil {
		return false
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection refused", "connection reset", "broken pipe", "eof"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return retryableStatus.MatchString(msg)
}
