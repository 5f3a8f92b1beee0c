package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trademaster-labs/trademaster/internal/llm"
	"github.com/trademaster-labs/trademaster/internal/memory"
)

func TestClassify_RulesTierSkipsModel(t *testing.T) {
	called := false
	mock := &llm.Mock{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) (llm.Classification, error) {
			called = true
			return llm.Classification{Label: "general_chat"}, nil
		},
	}
	c := NewClassifier(mock, time.Second)

	it := c.Classify(context.Background(), "what's the price of BTC?", nil)
	assert.Equal(t, MarketPrice, it.Kind)
	assert.Equal(t, "BTC", it.Params.Symbol)
	assert.False(t, called, "rules tier must not invoke the model")
}

func TestClassify_TrivialMessageSkipsModel(t *testing.T) {
	mock := &llm.Mock{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) (llm.Classification, error) {
			t.Fatal("model should not be called for small talk")
			return llm.Classification{}, nil
		},
	}
	c := NewClassifier(mock, time.Second)

	it := c.Classify(context.Background(), "gm everyone", nil)
	assert.Equal(t, GeneralChat, it.Kind)
}

func TestClassify_ModelFallback(t *testing.T) {
	mock := &llm.Mock{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) (llm.Classification, error) {
			assert.Contains(t, labels, "market_sentiment")
			return llm.Classification{
				Label:  "market_sentiment",
				Params: map[string]string{"symbol": "doge"},
			}, nil
		},
	}
	c := NewClassifier(mock, time.Second)

	it := c.Classify(context.Background(), "is everyone still feeling good about doge after yesterday", nil)
	assert.Equal(t, MarketSentiment, it.Kind)
	assert.Equal(t, "DOGE", it.Params.Symbol)
}

func TestClassify_ModelFailureDefaultsToGeneralChat(t *testing.T) {
	mock := &llm.Mock{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) (llm.Classification, error) {
			return llm.Classification{}, errors.New("boom")
		},
	}
	c := NewClassifier(mock, time.Second)

	it := c.Classify(context.Background(), "so about that thing from earlier, any thoughts", nil)
	assert.Equal(t, GeneralChat, it.Kind)
}

func TestClassify_UnknownLabelDefaultsToGeneralChat(t *testing.T) {
	mock := &llm.Mock{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) (llm.Classification, error) {
			return llm.Classification{Label: "totally_made_up"}, nil
		},
	}
	c := NewClassifier(mock, time.Second)

	it := c.Classify(context.Background(), "curious what everyone thinks about layer twos lately", nil)
	assert.Equal(t, GeneralChat, it.Kind)
}

func TestClassify_NilModel(t *testing.T) {
	c := NewClassifier(nil, time.Second)
	it := c.Classify(context.Background(), "curious what everyone thinks about layer twos lately", nil)
	assert.Equal(t, GeneralChat, it.Kind)
}

func TestClassify_ContextReachesModel(t *testing.T) {
	var seen string
	mock := &llm.Mock{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) (llm.Classification, error) {
			seen = text
			return llm.Classification{Label: "general_chat"}, nil
		},
	}
	c := NewClassifier(mock, time.Second)

	recent := []memory.Turn{
		{Role: memory.RoleUser, Text: "one"},
		{Role: memory.RoleBot, Text: "two"},
		{Role: memory.RoleUser, Text: "three"},
		{Role: memory.RoleBot, Text: "four"},
	}
	c.Classify(context.Background(), "and then what happened next in the market", recent)

	require.NotEmpty(t, seen)
	assert.Contains(t, seen, "two")
	assert.Contains(t, seen, "four")
	assert.NotContains(t, seen, "one", "only the most recent turns are forwarded")
}

func TestKindFromLabel(t *testing.T) {
	assert.Equal(t, WalletTrack, KindFromLabel("wallet_track"))
	assert.Equal(t, TradeSummary, KindFromLabel("trade_summary"))
	assert.Equal(t, GeneralChat, KindFromLabel("nonsense"))
	assert.Equal(t, GeneralChat, KindFromLabel(""))
}
