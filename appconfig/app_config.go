package appconfig

import (
	"errors"
	"fmt"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"

	DefaultMaxToolRounds = 5
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	MCPServerURL string `env:"MCP-SERVER-URL" ini:"mcp_server_url"`
	MCPAuthToken string `env:"MCP-AUTH-TOKEN" ini:"mcp_auth_token"`

	LLMProvider string `env:"LLM-PROVIDER" ini:"llm_provider"`
	LLMModel    string `env:"LLM-MODEL" ini:"llm_model"`
	LLMApiKey   string `env:"LLM-API-KEY" ini:"llm_api_key"`
	LLMBaseURL  string `env:"LLM-BASE-URL" ini:"llm_base_url"`

	MaxToolRounds      int  `ini:"max_tool_rounds"`
	MaxTokens          int  `ini:"max_tokens"`
	ToolTimeoutSeconds int  `ini:"tool_timeout_seconds"`
	ToolMaxAttempts    int  `ini:"tool_max_attempts"`
	DiscoverTools      bool `ini:"discover_tools"`
	MaxHistoryTurns    int  `ini:"max_history_turns"`

	StoreBackend string `env:"STORE-BACKEND" ini:"store_backend"`
	SQLitePath   string `ini:"sqlite_path"`
	MongoTenant  string `ini:"mongo_tenant"`

	HTTPAddr string `env:"HTTP-ADDR" ini:"http_addr"`
	GRPCAddr string `ini:"grpc_addr"`
}

// New returns a config carrying the defaults of settings whose zero value is meaningful.
// Load the ini file into it so an absent key keeps the default and an explicit 0 sticks.
func New() *AppConfig {
	return &AppConfig{MaxToolRounds: DefaultMaxToolRounds}
}

// Validate fills defaults for unset values and rejects inconsistent ones.
func (c *AppConfig) Validate() error {
	if c.MCPServerURL == "" {
		return errors.New("mcp_server_url is required")
	}

	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.ToolTimeoutSeconds == 0 {
		c.ToolTimeoutSeconds = 30
	}
	if c.ToolMaxAttempts == 0 {
		c.ToolMaxAttempts = 3
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.GRPCAddr == "" {
		c.GRPCAddr = ":50051"
	}
	if c.StoreBackend == "" {
		c.StoreBackend = StoreMemory
	}

	if c.MaxToolRounds < 0 || c.MaxTokens < 0 || c.ToolTimeoutSeconds < 0 || c.ToolMaxAttempts < 0 || c.MaxHistoryTurns < 0 {
		return errors.New("numeric settings must not be negative")
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			c.SQLitePath = "tube-agent.db"
		}
	case StoreMongo:
		if c.MongoTenant == "" {
			c.MongoTenant = "tube_agent"
		}
	default:
		return fmt.Errorf("unknown store_backend %q", c.StoreBackend)
	}
	return nil
}

func (c *AppConfig) ToolTimeout() time.Duration {
	return time.Duration(c.ToolTimeoutSeconds) * time.Second
}
