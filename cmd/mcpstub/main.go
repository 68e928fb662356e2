// Command mcpstub serves the YouTube tools from fixture data over streamable HTTP.
package main

import (
	"flag"
	"os"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/tube-agent/mcpstub"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

func main() {
	godotenv.Load()

	addr := flag.String("addr", envOr("MCP-STUB-ADDR", ":8000"), "listen address; tools are served under /mcp")
	flag.Parse()

	s := mcpstub.NewServer(mcpstub.DefaultFixtures())

	logger.Info("Serving YouTube stub tools", zap.String("addr", *addr))
	if err := server.NewStreamableHTTPServer(s).Start(*addr); err != nil {
		logger.Fatal("Failed to serve MCP", zap.Error(err))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
