package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trademaster-labs/trademaster/internal/intent"
	"github.com/trademaster-labs/trademaster/internal/llm"
	"github.com/trademaster-labs/trademaster/internal/trading"
	"github.com/trademaster-labs/trademaster/internal/wallet"
)

type fakeTool struct {
	name    string
	process func(ctx context.Context, req Request) (Result, error)
}

func (f fakeTool) Name() string { return f.name }
func (f fakeTool) Process(ctx context.Context, req Request) (Result, error) {
	return f.process(ctx, req)
}

func TestDispatchRoutesByKind(t *testing.T) {
	d := NewDispatcher(time.Second)
	d.Register(fakeTool{name: "price", process: func(ctx context.Context, req Request) (Result, error) {
		return Result{Text: "BTC is at $45,000"}, nil
	}}, intent.MarketPrice)

	res := d.Dispatch(context.Background(), Request{Intent: intent.Intent{Kind: intent.MarketPrice}})
	assert.True(t, res.Success)
	assert.Equal(t, "BTC is at $45,000", res.Text)
}

func TestDispatchDefaultsToChat(t *testing.T) {
	d := NewDispatcher(time.Second)

	for _, kind := range []intent.Kind{intent.GeneralChat, intent.None, intent.MarketNews} {
		res := d.Dispatch(context.Background(), Request{Intent: intent.Intent{Kind: kind}})
		assert.True(t, res.Success, kind.String())
		assert.Empty(t, res.Text, kind.String())
	}
}

func TestDispatchHandlerError(t *testing.T) {
	d := NewDispatcher(time.Second)
	d.Register(fakeTool{name: "broken", process: func(ctx context.Context, req Request) (Result, error) {
		return Result{}, errors.New("upstream down")
	}}, intent.MarketPrice)

	res := d.Dispatch(context.Background(), Request{Intent: intent.Intent{Kind: intent.MarketPrice}})
	assert.False(t, res.Success)
	assert.Equal(t, apologyText, res.Text)
}

func TestDispatchHandlerTimeout(t *testing.T) {
	d := NewDispatcher(50 * time.Millisecond)
	d.Register(fakeTool{name: "slow", process: func(ctx context.Context, req Request) (Result, error) {
		select {
		case <-time.After(5 * time.Second):
			return Result{Text: "too late"}, nil
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}}, intent.MarketPrice)

	start := time.Now()
	res := d.Dispatch(context.Background(), Request{Intent: intent.Intent{Kind: intent.MarketPrice}})
	assert.False(t, res.Success)
	assert.Equal(t, apologyText, res.Text)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDispatchHandlerPanic(t *testing.T) {
	d := NewDispatcher(time.Second)
	d.Register(fakeTool{name: "panicky", process: func(ctx context.Context, req Request) (Result, error) {
		panic("boom")
	}}, intent.TradeLog)

	res := d.Dispatch(context.Background(), Request{Intent: intent.Intent{Kind: intent.TradeLog}})
	assert.False(t, res.Success)
	assert.Equal(t, apologyText, res.Text)
}

func TestWalletToolTrack(t *testing.T) {
	svc := wallet.NewService(wallet.NewInMemoryRepository(), nil)
	tool := NewWalletTool(svc, nil)

	req := Request{
		UserID:    "u1",
		ChannelID: "c1",
		Intent: intent.Intent{
			Kind: intent.WalletTrack,
			Params: intent.Params{
				WalletAddress: "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
				Network:       "eth",
			},
		},
	}
	res, err := tool.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "watching")
	assert.Equal(t, true, res.Data["created"])

	res, err = tool.Process(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, res.Text, "already")
	assert.Equal(t, false, res.Data["created"])
}

func TestTradeToolLogAndSummary(t *testing.T) {
	svc := trading.NewService(trading.NewInMemoryRepository(), nil)
	tool := NewTradeTool(svc, nil)

	res, err := tool.Process(context.Background(), Request{
		UserID: "u1",
		Intent: intent.Intent{
			Kind: intent.TradeLog,
			Params: intent.Params{
				TradeType: "sell", Symbol: "ETH", Amount: 2, BuyPrice: 2000, SellPrice: 2200,
			},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "profit")
	assert.Contains(t, res.Text, "+10.00%")

	res, err = tool.Process(context.Background(), Request{
		UserID: "u1",
		Intent: intent.Intent{Kind: intent.TradeSummary},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "1 realized trades")
	assert.Contains(t, res.Text, "100% win rate")
}

func TestTradeToolSummaryEmpty(t *testing.T) {
	svc := trading.NewService(trading.NewInMemoryRepository(), nil)
	tool := NewTradeTool(svc, nil)

	res, err := tool.Process(context.Background(), Request{
		UserID: "nobody",
		Intent: intent.Intent{Kind: intent.TradeSummary},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "No trades on record")
}

func TestKnowledgeTool(t *testing.T) {
	model := &llm.Mock{
		GenerateFunc: func(ctx context.Context, prompt string, maxTokens int) (string, error) {
			assert.Contains(t, prompt, "what is RSI")
			return "RSI measures momentum on a 0-100 scale.", nil
		},
	}
	tool := NewKnowledgeTool(model, 300)

	res, err := tool.Process(context.Background(), Request{
		Intent: intent.Intent{Kind: intent.KnowledgeQuery, Params: intent.Params{Query: "what is RSI"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "RSI measures momentum on a 0-100 scale.", res.Text)
}

func TestKnowledgeToolModelFailure(t *testing.T) {
	tool := NewKnowledgeTool(&llm.Mock{}, 300)
	_, err := tool.Process(context.Background(), Request{
		Intent: intent.Intent{Kind: intent.KnowledgeQuery, Params: intent.Params{Query: "what is RSI"}},
	})
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "45,000.00", formatUSD(45000))
	assert.Equal(t, "1,234,567.89", formatUSD(1234567.89))
	assert.Equal(t, "150.25", formatUSD(150.25))
	assert.Equal(t, "0.000012", formatUSD(0.000012))
}
