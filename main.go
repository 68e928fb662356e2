package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/server"
	"github.com/SaiNageswarS/tube-agent/agentboot"
	"github.com/SaiNageswarS/tube-agent/appconfig"
	"github.com/SaiNageswarS/tube-agent/handlers"
	"github.com/SaiNageswarS/tube-agent/llm"
	"github.com/SaiNageswarS/tube-agent/mcpclient"
	"github.com/SaiNageswarS/tube-agent/memory"
	"github.com/SaiNageswarS/tube-agent/prompts"
	"go.uber.org/zap"
)

func main() {
	dotenv.LoadEnv()

	// load config file
	ccfgg := appconfig.New()
	if err := config.LoadConfig("config.ini", ccfgg); err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if err := ccfgg.Validate(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}

	ctx := getCancellableContext()

	store, closeStore, err := provideSessionStore(ccfgg)
	if err != nil {
		logger.Fatal("Failed to open session store", zap.String("backend", ccfgg.StoreBackend), zap.Error(err))
	}
	defer closeStore()

	gateway, err := mcpclient.NewGateway(mcpclient.Config{
		URL:         ccfgg.MCPServerURL,
		AuthToken:   ccfgg.MCPAuthToken,
		Timeout:     ccfgg.ToolTimeout(),
		MaxAttempts: ccfgg.ToolMaxAttempts,
	})
	if err != nil {
		logger.Fatal("Failed to create tool gateway", zap.Error(err))
	}

	tools := provideTools(ctx, ccfgg, gateway)

	systemPrompt, err := prompts.RenderSystemPrompt(toolInfos(tools))
	if err != nil {
		logger.Fatal("Failed to render system prompt", zap.Error(err))
	}

	model, err := llm.NewLLMClient(llm.ProviderConfig{
		Provider: ccfgg.LLMProvider,
		Model:    ccfgg.LLMModel,
		APIKey:   ccfgg.LLMApiKey,
		BaseURL:  ccfgg.LLMBaseURL,
	})
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	agent := agentboot.NewAgentBuilder().
		WithModel(model).
		WithSystemPrompt(systemPrompt).
		WithToolGateway(gateway).
		WithTools(tools).
		WithMaxTokens(ccfgg.MaxTokens).
		WithMaxTurns(ccfgg.MaxToolRounds).
		WithConversationManager(memory.NewConversationManager(store, ccfgg.MaxHistoryTurns)).
		Build()

	router := handlers.NewRouter(agent, store)

	boot, err := server.New().
		GRPCPort(ccfgg.GRPCAddr).
		HTTPPort(ccfgg.HTTPAddr).
		Provide(ccfgg).
		Handle("/api/", router.ServeHTTP).
		Handle("/healthz", router.ServeHTTP).
		Build()

	if err != nil {
		logger.Fatal("Dependency Injection Failed", zap.Error(err))
	}

	logger.Info("Serving chat API",
		zap.String("addr", ccfgg.HTTPAddr),
		zap.String("model", model.GetModel()),
		zap.Int("tools", len(tools)))
	if err := boot.Serve(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}

func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
