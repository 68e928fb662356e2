package llm

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownProvider = errors.New("unknown llm provider")

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// ProviderConfig selects and configures a model provider.
type ProviderConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

func NewLLMClient(cfg ProviderConfig) (LLMClient, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		client := NewGeminiClient(cfg.APIKey, cfg.Model)
		if cfg.BaseURL != "" {
			client.baseURL = cfg.BaseURL
		}
		return client, nil
	case ProviderGroq:
		model := cfg.Model
		if model == "" {
			model = "llama-3.3-70b-versatile"
		}
		client := NewGroqClient(cfg.APIKey, model)
		if cfg.BaseURL != "" {
			client.url = cfg.BaseURL
		}
		return client, nil
	case ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, model), nil
	case ProviderOllama:
		model := cfg.Model
		if model == "" {
			model = "llama3.1"
		}
		return NewOllamaClient(cfg.BaseURL, model)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
