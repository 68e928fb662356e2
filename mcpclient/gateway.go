// Package mcpclient invokes tools on a remote MCP server. Every call opens its own
// client session, so a dropped connection never outlives the call that hit it.
package mcpclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	bootserver "github.com/SaiNageswarS/go-api-boot/server"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = 250 * time.Millisecond
)

type Config struct {
	URL            string
	AuthToken      string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	ClientName     string
	ClientVersion  string
}

// ToolError is a failure reported by the tool itself (an isError result).
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}

type Gateway struct {
	cfg Config
}

func NewGateway(cfg Config) (*Gateway, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("mcp server url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = DefaultInitialBackoff
	}
	if cfg.ClientName == "" {
		cfg.ClientName = "tube-agent"
	}
	if cfg.ClientVersion == "" {
		cfg.ClientVersion = "1.0.0"
	}
	return &Gateway{cfg: cfg}, nil
}

// CallTool invokes name with args and returns the result payload: structured content when
// the server sends it, otherwise the text content, otherwise the raw content list.
func (g *Gateway) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	var payload any
	err := g.retry(ctx, "tools/call "+name, func(ctx context.Context, c *client.Client) error {
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args

		res, err := c.CallTool(ctx, req)
		if err != nil {
			return err
		}
		if res.IsError {
			return &ToolError{Tool: name, Message: errorText(res)}
		}
		payload = resultPayload(res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// ListTools returns the server's tool catalog.
func (g *Gateway) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	var tools []mcp.Tool
	err := g.retry(ctx, "tools/list", func(ctx context.Context, c *client.Client) error {
		res, err := c.ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			return err
		}
		tools = res.Tools
		return nil
	})
	return tools, err
}

// retry runs fn inside a fresh session, retrying transient transport failures with
// exponential backoff. Tool errors, non-transient errors and caller cancellation end the
// loop immediately.
func (g *Gateway) retry(ctx context.Context, op string, fn func(ctx context.Context, c *client.Client) error) error {
	return g.attempt(ctx, op, func(attemptCtx context.Context) error {
		return g.withSession(attemptCtx, fn)
	})
}

func (g *Gateway) attempt(ctx context.Context, op string, call func(ctx context.Context) error) error {
	var lastErr, final error
	tries := 0

	err := bootserver.RetryWithExponentialBackoff(ctx, g.cfg.MaxAttempts, g.cfg.InitialBackoff, func() error {
		tries++
		attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()

		err := call(attemptCtx)
		if err == nil {
			return nil
		}

		var toolErr *ToolError
		switch {
		case errors.As(err, &toolErr):
			final = err
			return nil
		case ctx.Err() != nil:
			final = fmt.Errorf("%s: %w", op, ctx.Err())
			return nil
		case !isTransient(err, attemptCtx):
			final = fmt.Errorf("%s: %w", op, err)
			return nil
		}

		lastErr = err
		if tries < g.cfg.MaxAttempts {
			logger.Error("MCP call failed, retrying",
				zap.String("op", op),
				zap.Int("attempt", tries),
				zap.Error(err))
		}
		return err
	})

	switch {
	case final != nil:
		return final
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("%s: %w", op, ctx.Err())
	case lastErr != nil:
		return fmt.Errorf("%s: %w", op, lastErr)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (g *Gateway) withSession(ctx context.Context, fn func(ctx context.Context, c *client.Client) error) error {
	c, err := g.newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("error starting mcp transport: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    g.cfg.ClientName,
		Version: g.cfg.ClientVersion,
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("error initializing mcp session: %w", err)
	}

	return fn(ctx, c)
}

// newClient picks SSE for URLs ending in /sse and streamable HTTP otherwise.
func (g *Gateway) newClient() (*client.Client, error) {
	headers := map[string]string{}
	if g.cfg.AuthToken != "" {
		headers["Authorization"] = "Bearer " + g.cfg.AuthToken
	}

	if strings.HasSuffix(strings.TrimRight(g.cfg.URL, "/"), "/sse") {
		return client.NewSSEMCPClient(g.cfg.URL, transport.WithHeaders(headers))
	}
	return client.NewStreamableHttpClient(g.cfg.URL, transport.WithHTTPHeaders(headers))
}
