package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/trademaster-labs/trademaster/internal/intent"
	"github.com/trademaster-labs/trademaster/internal/market"
)

// MarketTool handles market_price, market_sentiment, and market_news.
type MarketTool struct {
	markets *market.Service
}

func NewMarketTool(markets *market.Service) *MarketTool {
	return &MarketTool{markets: markets}
}

func (t *MarketTool) Name() string { return "market" }

func (t *MarketTool) Process(ctx context.Context, req Request) (Result, error) {
	switch req.Intent.Kind {
	case intent.MarketPrice:
		return t.price(ctx, req)
	case intent.MarketSentiment:
		return t.sentiment(ctx, req)
	case intent.MarketNews:
		return t.news(ctx, req)
	default:
		return Result{}, fmt.Errorf("market tool cannot handle %s", req.Intent.Kind)
	}
}

func (t *MarketTool) price(ctx context.Context, req Request) (Result, error) {
	symbol := req.Intent.Params.Symbol
	if symbol == "" {
		symbol = "BTC"
	}
	quote, err := t.markets.Quote(ctx, symbol)
	if err != nil {
		return Result{}, err
	}

	direction := "up"
	if quote.Change24h < 0 {
		direction = "down"
	}
	return Result{
		Text: fmt.Sprintf("%s is at $%s, %s %.2f%% in the last 24h.",
			quote.Symbol, formatUSD(quote.USD), direction, abs(quote.Change24h)),
		Data: map[string]any{"symbol": quote.Symbol, "usd": quote.USD, "change_24h": quote.Change24h},
	}, nil
}

func (t *MarketTool) sentiment(ctx context.Context, req Request) (Result, error) {
	text, err := t.markets.Sentiment(ctx, req.Intent.Params.Symbol)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text}, nil
}

func (t *MarketTool) news(ctx context.Context, req Request) (Result, error) {
	items, err := t.markets.Headlines(ctx, req.Intent.Params.Symbol, 3)
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		return Result{Text: "No fresh headlines on that right now."}, nil
	}

	var b strings.Builder
	b.WriteString("Latest headlines:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s)\n", item.Title, item.Source)
	}
	return Result{Text: strings.TrimRight(b.String(), "\n")}, nil
}

// formatUSD renders a price with thousands separators and sensible decimals
// for sub-dollar assets.
func formatUSD(v float64) string {
	if v < 1 {
		return fmt.Sprintf("%.6f", v)
	}
	s := fmt.Sprintf("%.2f", v)
	dot := strings.Index(s, ".")
	intPart, frac := s[:dot], s[dot:]
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String() + frac
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
