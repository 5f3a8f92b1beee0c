package trading

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trademaster-labs/trademaster/internal/llm"
)

func newTestService() *Service {
	svc := NewService(NewInMemoryRepository(), nil)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	return svc
}

func TestLogBuy(t *testing.T) {
	svc := newTestService()

	trade, stats, err := svc.LogTrade(context.Background(), "u1", Trade{
		Type: "buy", Symbol: "btc", Amount: 1, BuyPrice: 45000,
	})
	require.NoError(t, err)
	assert.Equal(t, "BTC", trade.Symbol)
	assert.False(t, trade.Realized)
	assert.Zero(t, trade.ProfitLoss)
	assert.Nil(t, stats, "buys do not advance stats")
}

func TestLogRealizedSell(t *testing.T) {
	svc := newTestService()

	trade, stats, err := svc.LogTrade(context.Background(), "u1", Trade{
		Type: "sell", Symbol: "ETH", Amount: 2, BuyPrice: 2000, SellPrice: 2200,
	})
	require.NoError(t, err)
	assert.True(t, trade.Realized)
	assert.InDelta(t, 400, trade.ProfitLoss, 1e-9)
	assert.InDelta(t, 10, trade.ProfitLossPct, 1e-9)

	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.TotalTrades)
	assert.Equal(t, 1, stats.WinningTrades)
	assert.InDelta(t, 10, stats.AvgProfitPct, 1e-9)
	assert.InDelta(t, 10, stats.LargestWinPct, 1e-9)
}

func TestStatsAccumulate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.LogTrade(ctx, "u1", Trade{Type: "sell", Symbol: "BTC", Amount: 1, BuyPrice: 100, SellPrice: 120})
	require.NoError(t, err)
	_, stats, err := svc.LogTrade(ctx, "u1", Trade{Type: "sell", Symbol: "BTC", Amount: 1, BuyPrice: 100, SellPrice: 90})
	require.NoError(t, err)

	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.TotalTrades)
	assert.Equal(t, 1, stats.WinningTrades)
	assert.InDelta(t, 5, stats.AvgProfitPct, 1e-9) // (20 + -10) / 2
	assert.InDelta(t, 20, stats.LargestWinPct, 1e-9)
	assert.InDelta(t, -10, stats.LargestLossPct, 1e-9)
	assert.InDelta(t, 50, stats.WinRate(), 1e-9)
}

func TestUnrealizedSellSkipsStats(t *testing.T) {
	svc := newTestService()

	trade, stats, err := svc.LogTrade(context.Background(), "u1", Trade{
		Type: "sell", Symbol: "SOL", Amount: 10, SellPrice: 150,
	})
	require.NoError(t, err)
	assert.False(t, trade.Realized, "sell without entry price cannot be realized")
	assert.Nil(t, stats)
}

func TestLogTradeValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []Trade{
		{Type: "hodl", Symbol: "BTC", Amount: 1, BuyPrice: 100},
		{Type: "buy", Symbol: "", Amount: 1, BuyPrice: 100},
		{Type: "buy", Symbol: "BTC", Amount: 0, BuyPrice: 100},
		{Type: "buy", Symbol: "BTC", Amount: 1, BuyPrice: 0},
		{Type: "sell", Symbol: "BTC", Amount: 1, SellPrice: 0},
	}
	for _, tc := range cases {
		_, _, err := svc.LogTrade(ctx, "u1", tc)
		assert.ErrorIs(t, err, ErrInvalidTrade)
	}
}

func TestSummary(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	stats, recent, err := svc.Summary(ctx, "fresh")
	require.NoError(t, err)
	assert.Nil(t, stats)
	assert.Empty(t, recent)

	for i := 0; i < 7; i++ {
		_, _, err := svc.LogTrade(ctx, "u1", Trade{Type: "buy", Symbol: "BTC", Amount: 1, BuyPrice: 100})
		require.NoError(t, err)
	}
	_, recent, err = svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, recent, 5, "summary caps recent trades")
}

func TestCritique(t *testing.T) {
	model := &llm.Mock{
		GenerateFunc: func(ctx context.Context, prompt string, maxTokens int) (string, error) {
			assert.Contains(t, prompt, "ETH")
			return "Nice disciplined exit.", nil
		},
	}
	svc := NewService(NewInMemoryRepository(), model)

	out := svc.Critique(context.Background(), Trade{
		Realized: true, Symbol: "ETH", Amount: 2, BuyPrice: 2000, SellPrice: 2200, ProfitLossPct: 10,
	})
	assert.Equal(t, "Nice disciplined exit.", out)

	// unrealized trades get no critique
	out = svc.Critique(context.Background(), Trade{Symbol: "ETH"})
	assert.Empty(t, out)
}

func TestCritiqueModelFailure(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), &llm.Mock{})
	out := svc.Critique(context.Background(), Trade{Realized: true, Symbol: "BTC", BuyPrice: 1, SellPrice: 2})
	assert.Empty(t, out)
}
