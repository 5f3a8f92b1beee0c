package compose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trademaster-labs/trademaster/internal/llm"
	"github.com/trademaster-labs/trademaster/internal/memory"
	"github.com/trademaster-labs/trademaster/internal/tools"
)

func TestComposeFailedResultPassesThroughVerbatim(t *testing.T) {
	model := &llm.Mock{
		GenerateFunc: func(ctx context.Context, prompt string, maxTokens int) (string, error) {
			t.Fatal("model must not be called for failed tool results")
			return "", nil
		},
	}
	c := New(model, nil, "TradeMaster", "", true, 5, 500)

	out := c.Compose(context.Background(), tools.Result{
		Text: "Sorry, I couldn't get that information right now.", Success: false,
	}, "price of BTC?", nil, nil)
	assert.Equal(t, "Sorry, I couldn't get that information right now.", out)
}

func TestComposeWithoutSmoothingReturnsToolText(t *testing.T) {
	c := New(nil, nil, "TradeMaster", "", false, 5, 500)

	out := c.Compose(context.Background(), tools.Result{
		Text: "BTC is at $45,000.00, up 2.10% in the last 24h.", Success: true,
	}, "price of BTC?", nil, nil)
	assert.Equal(t, "BTC is at $45,000.00, up 2.10% in the last 24h.", out)
}

func TestComposeSmoothingRephrases(t *testing.T) {
	model := &llm.Mock{
		GenerateFunc: func(ctx context.Context, prompt string, maxTokens int) (string, error) {
			assert.Contains(t, prompt, "BTC is at $45,000.00")
			assert.Contains(t, prompt, "TradeMaster")
			return "BTC's sitting at $45,000.00 right now, up a couple percent today.", nil
		},
	}
	c := New(model, nil, "TradeMaster", "Friendly and concise.", true, 5, 500)

	out := c.Compose(context.Background(), tools.Result{
		Text: "BTC is at $45,000.00, up 2.10% in the last 24h.", Success: true,
	}, "price of BTC?", nil, nil)
	assert.Equal(t, "BTC's sitting at $45,000.00 right now, up a couple percent today.", out)
}

func TestComposeSmoothingFailureFallsBackToToolText(t *testing.T) {
	c := New(&llm.Mock{}, nil, "TradeMaster", "", true, 5, 500)

	out := c.Compose(context.Background(), tools.Result{
		Text: "ETH is at $2,200.00, up 1.00% in the last 24h.", Success: true,
	}, "eth?", nil, nil)
	assert.Equal(t, "ETH is at $2,200.00, up 1.00% in the last 24h.", out)
}

func TestComposeEmptyTextUsesModel(t *testing.T) {
	model := &llm.Mock{
		GenerateFunc: func(ctx context.Context, prompt string, maxTokens int) (string, error) {
			assert.Contains(t, prompt, "user: rough day on the markets")
			return "Rough out there today. Hang in, folks.", nil
		},
	}
	c := New(model, nil, "TradeMaster", "", false, 5, 500)

	recent := []memory.Turn{{Role: memory.RoleUser, Text: "rough day on the markets"}}
	out := c.Compose(context.Background(), tools.Result{Success: true}, "rough day on the markets", recent, nil)
	assert.Equal(t, "Rough out there today. Hang in, folks.", out)
}

func TestComposeEmptyTextModelFailure(t *testing.T) {
	c := New(&llm.Mock{}, nil, "TradeMaster", "", false, 5, 500)

	out := c.Compose(context.Background(), tools.Result{Success: true}, "hello there", nil, nil)
	assert.Equal(t, fallbackText, out)
}

func TestComposePromptBoundsHistory(t *testing.T) {
	var seen string
	model := &llm.Mock{
		GenerateFunc: func(ctx context.Context, prompt string, maxTokens int) (string, error) {
			seen = prompt
			return "ok", nil
		},
	}
	c := New(model, nil, "TradeMaster", "", false, 2, 500)

	recent := []memory.Turn{
		{Role: memory.RoleUser, Text: "first"},
		{Role: memory.RoleBot, Text: "second"},
		{Role: memory.RoleUser, Text: "third"},
	}
	c.Compose(context.Background(), tools.Result{Success: true}, "anything", recent, nil)
	assert.NotContains(t, seen, "first")
	assert.Contains(t, seen, "second")
	assert.Contains(t, seen, "third")
}
