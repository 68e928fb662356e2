// Command toolprobe lists the tools of an MCP server or calls one of them directly.
//
//	toolprobe -url http://localhost:8000/mcp
//	toolprobe -call get_youtube_transcript -args '{"video_id":"https://youtu.be/dQw4w9WgXcQ"}'
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/tube-agent/mcpclient"
	"github.com/SaiNageswarS/tube-agent/youtube"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file, using process environment")
	}

	url := flag.String("url", os.Getenv("MCP-SERVER-URL"), "MCP server URL (streamable HTTP, or ending in /sse)")
	token := flag.String("token", os.Getenv("MCP-AUTH-TOKEN"), "bearer token for the server")
	call := flag.String("call", "", "tool to call; lists the tools when empty")
	rawArgs := flag.String("args", "{}", "tool arguments as a JSON object")
	timeout := flag.Duration("timeout", 60*time.Second, "overall timeout")
	flag.Parse()

	gateway, err := mcpclient.NewGateway(mcpclient.Config{URL: *url, AuthToken: *token, ClientName: "toolprobe"})
	if err != nil {
		logger.Fatal("Failed to create gateway", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *call == "" {
		if err := listTools(ctx, gateway); err != nil {
			logger.Fatal("Failed to list tools", zap.Error(err))
		}
		return
	}

	if err := callTool(ctx, gateway, *call, *rawArgs); err != nil {
		logger.Fatal("Tool call failed", zap.String("tool", *call), zap.Error(err))
	}
}

func listTools(ctx context.Context, gateway *mcpclient.Gateway) error {
	decls, err := gateway.ToolDeclarations(ctx)
	if err != nil {
		return err
	}
	for _, d := range decls {
		fmt.Printf("%s\n    %s\n", d.Function.Name, d.Function.Description)
		for name, prop := range d.Function.Parameters.Properties {
			fmt.Printf("    - %s %v: %s\n", name, prop.Type, prop.Description)
		}
	}
	return nil
}

func callTool(ctx context.Context, gateway *mcpclient.Gateway, name, rawArgs string) error {
	var raw map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &raw); err != nil {
		return fmt.Errorf("error parsing -args: %w", err)
	}

	args, err := youtube.ParseArguments(name, raw)
	if err != nil {
		return err
	}

	payload, err := gateway.CallTool(ctx, name, args.Map())
	if err != nil {
		return err
	}

	if s, ok := payload.(string); ok {
		fmt.Println(s)
		return nil
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
