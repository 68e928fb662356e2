package main

import (
	"context"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/tube-agent/agentboot"
	"github.com/SaiNageswarS/tube-agent/appconfig"
	"github.com/SaiNageswarS/tube-agent/mcpclient"
	"github.com/SaiNageswarS/tube-agent/memory"
	"github.com/SaiNageswarS/tube-agent/prompts"
	"github.com/SaiNageswarS/tube-agent/youtube"
	"go.uber.org/zap"
)

func provideSessionStore(cfg *appconfig.AppConfig) (memory.SessionStore, func(), error) {
	switch cfg.StoreBackend {
	case appconfig.StoreSQLite:
		store, err := memory.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close sqlite store", zap.Error(err))
			}
		}, nil

	case appconfig.StoreMongo:
		client := odm.ProvideMongoClient()
		return memory.NewMongoStore(odm.CollectionOf[memory.Session](client, cfg.MongoTenant)), func() {}, nil
	}

	return memory.NewMemoryStore(), func() {}, nil
}

// provideTools prefers the server's own catalog and falls back to the built-in one.
func provideTools(ctx context.Context, cfg *appconfig.AppConfig, gateway *mcpclient.Gateway) []agentboot.MCPTool {
	if !cfg.DiscoverTools {
		return youtube.Catalog()
	}

	decls, err := gateway.ToolDeclarations(ctx)
	if err != nil || len(decls) == 0 {
		logger.Error("Tool discovery failed, using built-in catalog", zap.Error(err))
		return youtube.Catalog()
	}

	logger.Info("Discovered tools", zap.Int("count", len(decls)))
	return youtube.Bind(decls)
}

func toolInfos(tools []agentboot.MCPTool) []prompts.ToolInfo {
	out := make([]prompts.ToolInfo, 0, len(tools))
	for _, t := range tools {
		out = append(out, prompts.ToolInfo{Name: t.Function.Name, Description: t.Function.Description})
	}
	return out
}
