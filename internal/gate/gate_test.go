package gate

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

func newGate(seed int64, respondFreq, proactiveFreq float64, cooldown time.Duration, store CooldownStore) *Gate {
	return New(config.BotConfig{
		ResponseFrequency: respondFreq,
		ProactiveFreq:     proactiveFreq,
		Cooldown:          cooldown,
		RandomSeed:        seed,
	}, store)
}

func TestGate_DirectlyAddressedAlwaysResponds(t *testing.T) {
	store := NewInMemoryCooldownStore()
	ctx := context.Background()

	// Cooldown window still open for the channel.
	now := time.Now()
	require.NoError(t, store.TouchProactive(ctx, "chan-1", now))

	for _, seed := range []int64{1, 2, 3, 42, 1337} {
		g := newGate(seed, 0, 0, time.Hour, store)
		d := g.ShouldRespond(ctx, "chan-1", "anything at all", true)
		assert.True(t, d.Respond, "seed %d", seed)
		assert.False(t, d.Proactive)
	}
}

func TestGate_DeterministicForFixedSeed(t *testing.T) {
	ctx := context.Background()
	run := func() []bool {
		g := newGate(42, 0.85, 0.05, 0, NewInMemoryCooldownStore())
		var out []bool
		for i := 0; i < 50; i++ {
			out = append(out, g.ShouldRespond(ctx, "chan-1", "what is the price of BTC?", false).Respond)
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestGate_ZeroFrequencyNeverProactive(t *testing.T) {
	ctx := context.Background()
	g := newGate(7, 0, 0, 0, NewInMemoryCooldownStore())

	for i := 0; i < 100; i++ {
		d := g.ShouldRespond(ctx, "chan-1", "is this a question?", false)
		assert.False(t, d.Respond)
	}
}

func TestGate_FullFrequencyAlwaysSamplesTrue(t *testing.T) {
	ctx := context.Background()
	g := newGate(7, 1.0, 1.0, 0, NewInMemoryCooldownStore())

	d := g.ShouldRespond(ctx, "chan-1", "just chatting", false)
	assert.True(t, d.Respond)
	assert.True(t, d.Proactive)
}

func TestGate_CooldownForcesSilence(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryCooldownStore()
	g := newGate(7, 1.0, 1.0, 10*time.Minute, store)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	g.WithClock(func() time.Time { return clock })

	// First proactive response passes and touches the cooldown mark.
	d := g.ShouldRespond(ctx, "chan-1", "price talk", false)
	require.True(t, d.Respond)

	last, ok, err := store.LastProactive(ctx, "chan-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, base, last)

	// Inside the window: forced false even though sampling is certain.
	clock = base.Add(9 * time.Minute)
	assert.False(t, g.ShouldRespond(ctx, "chan-1", "price talk", false).Respond)

	// Window elapsed: allowed again.
	clock = base.Add(10 * time.Minute)
	assert.True(t, g.ShouldRespond(ctx, "chan-1", "price talk", false).Respond)
}

func TestGate_CooldownIsPerChannel(t *testing.T) {
	ctx := context.Background()
	g := newGate(7, 1.0, 1.0, time.Hour, NewInMemoryCooldownStore())

	require.True(t, g.ShouldRespond(ctx, "chan-1", "price talk", false).Respond)
	assert.False(t, g.ShouldRespond(ctx, "chan-1", "price talk", false).Respond)
	assert.True(t, g.ShouldRespond(ctx, "chan-2", "price talk", false).Respond)
}

func TestGate_RedisCooldownStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	store := NewRedisCooldownStore(client, time.Hour)

	_, ok, err := store.LastProactive(ctx, "chan-1")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.TouchProactive(ctx, "chan-1", at))

	got, ok, err := store.LastProactive(ctx, "chan-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(at))
}

func TestIsImplicitQuestion(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"what's the price of BTC?", true},
		{"the market looks rough today", true},
		{"thinking about a trade", true},
		{"should I buy", true},
		{"good morning everyone", false},
		{"busybody neighbors again", false}, // "buy" must not match inside a word
		{"BULLISH on this one", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, isImplicitQuestion(tc.text), tc.text)
	}
}
