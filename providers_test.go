package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/SaiNageswarS/tube-agent/appconfig"
	"github.com/SaiNageswarS/tube-agent/mcpclient"
	"github.com/SaiNageswarS/tube-agent/memory"
	"github.com/SaiNageswarS/tube-agent/youtube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvideSessionStore(t *testing.T) {
	store, closeStore, err := provideSessionStore(&appconfig.AppConfig{StoreBackend: appconfig.StoreMemory})
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &memory.MemoryStore{}, store)

	path := filepath.Join(t.TempDir(), "chats.db")
	store, closeStore, err = provideSessionStore(&appconfig.AppConfig{StoreBackend: appconfig.StoreSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer closeStore()
	assert.IsType(t, &memory.SQLiteStore{}, store)
}

func TestProvideToolsWithoutDiscovery(t *testing.T) {
	gateway, err := mcpclient.NewGateway(mcpclient.Config{URL: "http://127.0.0.1:1/mcp"})
	require.NoError(t, err)

	tools := provideTools(context.Background(), &appconfig.AppConfig{DiscoverTools: false}, gateway)
	assert.Len(t, tools, len(youtube.Catalog()))

	infos := toolInfos(tools)
	require.Len(t, infos, len(tools))
	assert.Equal(t, youtube.ToolTranscript, infos[0].Name)
	assert.NotEmpty(t, infos[0].Description)
}
