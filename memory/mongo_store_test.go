package memory

import (
	"context"
	"os"
	"testing"

	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/tube-agent/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a live MongoDB; skipped unless MONGO_URI is set.
func TestMongoStore(t *testing.T) {
	dotenv.LoadEnv("../.env")
	if os.Getenv("MONGO_URI") == "" {
		t.Skip("MONGO_URI not set")
	}

	client := odm.ProvideMongoClient()

	store := NewMongoStore(odm.CollectionOf[Session](client, "tube_agent_test"))
	ctx := context.Background()

	sess, err := store.CreateSession(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, sess.ID, llm.UserMessage("mongo round trip"), llm.AssistantMessage("ok")))

	got, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "mongo round trip", got.Title)
	assert.Len(t, got.Messages, 2)

	require.NoError(t, store.Truncate(ctx, sess.ID, 0))
	got, err = store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)

	_, err = store.GetSession(ctx, "chat_0_missing0")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	list, err := store.ListSessions(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, list)
}
