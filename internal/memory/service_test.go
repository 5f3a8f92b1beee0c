package memory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trademaster-labs/trademaster/internal/config"
)

func setupService(t *testing.T) (*Service, *InMemoryRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	repo := NewInMemoryRepository()
	svc := NewService(NewShortTermStore(client), repo, config.MemoryConfig{
		MaxTurns:        20,
		ShortTermTTLSec: 3600,
	})
	return svc, repo, mr
}

func TestService_AppendThenRecentRoundTrip(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	turn := Turn{ChannelID: "chan-1", UserID: "u1", Role: RoleUser, Text: "hello"}
	require.NoError(t, svc.AppendTurn(ctx, turn))

	turns, err := svc.RecentContext(ctx, "chan-1", 5)
	require.NoError(t, err)
	require.NotEmpty(t, turns)
	assert.Equal(t, "hello", turns[len(turns)-1].Text)
}

func TestService_StorageFailureIsTyped(t *testing.T) {
	svc, _, mr := setupService(t)
	ctx := context.Background()

	mr.Close()

	_, err := svc.RecentContext(ctx, "chan-1", 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	err = svc.AppendTurn(ctx, Turn{ChannelID: "chan-1", UserID: "u1", Role: RoleUser, Text: "x"})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestService_GetOrCreateProfile(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	p, err := svc.GetOrCreateProfile(ctx, "u1", "alice", now)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, now, p.FirstSeen)
	assert.Equal(t, 0, p.InteractionCount)

	// Second call returns the existing profile, not a fresh one.
	later := now.Add(time.Hour)
	require.NoError(t, svc.TouchProfile(ctx, "u1", later))

	p2, err := svc.GetOrCreateProfile(ctx, "u1", "alice-renamed", later)
	require.NoError(t, err)
	assert.Equal(t, "alice", p2.Username)
	assert.Equal(t, 1, p2.InteractionCount)
	assert.Equal(t, later, p2.LastSeen)
	assert.Equal(t, now, p2.FirstSeen)
}

func TestService_ItemSupersession(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, Item{
		UserID: "u1", Kind: KindPreference, Topic: "risk_tolerance", Content: "low", Importance: 3,
	}))
	require.NoError(t, svc.AddItem(ctx, Item{
		UserID: "u1", Kind: KindPreference, Topic: "risk_tolerance", Content: "high", Importance: 4,
	}))
	require.NoError(t, svc.AddItem(ctx, Item{
		UserID: "u1", Kind: KindFact, Topic: "risk_tolerance", Content: "separate kind", Importance: 2,
	}))

	prefs, err := svc.Items(ctx, "u1", KindPreference)
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Equal(t, "high", prefs[0].Content)

	all, err := svc.Items(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestService_ImportanceClamped(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.AddItem(ctx, Item{UserID: "u1", Kind: KindFact, Topic: "a", Content: "x", Importance: 9}))
	require.NoError(t, svc.AddItem(ctx, Item{UserID: "u1", Kind: KindFact, Topic: "b", Content: "y", Importance: 0}))

	items, err := svc.Items(ctx, "u1", KindFact)
	require.NoError(t, err)
	for _, it := range items {
		assert.GreaterOrEqual(t, it.Importance, 1)
		assert.LessOrEqual(t, it.Importance, 5)
	}
}

func TestService_ClearChannelIdempotent(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.AppendTurn(ctx, Turn{ChannelID: "chan-1", UserID: "u1", Role: RoleUser, Text: "hi"}))
	assert.Equal(t, 1, repo.ContextLogCount())

	require.NoError(t, svc.ClearChannel(ctx, "chan-1", "u1"))
	require.NoError(t, svc.ClearChannel(ctx, "chan-1", "u1"))

	turns, err := svc.RecentContext(ctx, "chan-1", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
	assert.Equal(t, 0, repo.ContextLogCount())
}

func TestService_Summary(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.GetOrCreateProfile(ctx, "u1", "alice", time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.AddItem(ctx, Item{UserID: "u1", Kind: KindFact, Topic: "experience", Content: "trades since 2021", Importance: 3}))
	require.NoError(t, svc.AddItem(ctx, Item{UserID: "u1", Kind: KindPreference, Topic: "favorite_coins", Content: "BTC, ETH", Importance: 3}))

	sum := svc.Summary(ctx, "u1")
	assert.Contains(t, sum, "alice")
	assert.Contains(t, sum, "experience: trades since 2021")
	assert.Contains(t, sum, "favorite_coins: BTC, ETH")

	assert.Empty(t, svc.Summary(ctx, "nobody"))
}
