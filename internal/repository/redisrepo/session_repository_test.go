package redisrepo

import (
	"context"
	"testing"
	"time"

	"careconnect/pkg/rag/history"
	"careconnect/pkg/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T, ttl time.Duration) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionRepository(rdb, ttl), mr
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRepo(t, time.Hour)

	s := store.NewSession(store.Settings{ModelName: "mistral-large", Category: "Bike", UseRAG: false})
	s.Conversation.AddTurn("What lubricant for the premium bike?", "Ceramic chain lube.")
	s.Supplementary = &store.Supplementary{Name: "rx.pdf", Chunks: []string{"one", "two"}}
	require.NoError(t, repo.Save(ctx, s))

	assert.True(t, mr.Exists("careconnect:session:"+s.ID.String()))
	assert.Equal(t, time.Hour, mr.TTL("careconnect:session:"+s.ID.String()))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.Settings, got.Settings)
	assert.Equal(t, s.Supplementary, got.Supplementary)
	assert.Equal(t, []history.Message{
		{Role: history.RoleUser, Content: "What lubricant for the premium bike?"},
		{Role: history.RoleAssistant, Content: "Ceramic chain lube."},
	}, got.Conversation.History())
}

func TestSessionRepositoryNotFound(t *testing.T) {
	repo, _ := newRepo(t, time.Hour)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSessionRepositoryExpiryAndDelete(t *testing.T) {
	ctx := context.Background()
	repo, mr := newRepo(t, time.Minute)

	a := store.NewSession(store.DefaultSettings())
	b := store.NewSession(store.DefaultSettings())
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	mr.FastForward(2 * time.Minute)
	_, err := repo.Get(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	require.NoError(t, repo.Save(ctx, b))
	require.NoError(t, repo.Delete(ctx, b.ID))
	_, err = repo.Get(ctx, b.ID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}
