package market

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trademaster-labs/trademaster/internal/llm"
	"github.com/trademaster-labs/trademaster/internal/metrics"
)

// Service aggregates quotes, headlines and a model-assisted sentiment read.
type Service struct {
	price PriceClient
	news  NewsClient
	model llm.Client
}

func NewService(price PriceClient, news NewsClient, model llm.Client) *Service {
	return &Service{price: price, news: news, model: model}
}

func (s *Service) Quote(ctx context.Context, symbol string) (Price, error) {
	return s.price.Price(ctx, symbol)
}

func (s *Service) Headlines(ctx context.Context, symbol string, limit int) ([]NewsItem, error) {
	topic := "cryptocurrency"
	if symbol != "" {
		topic = coinTopic(symbol)
	}
	return s.news.Headlines(ctx, topic, limit)
}

// Sentiment produces a short market read for a symbol. It combines the quote
// with recent headlines and asks the model for a summary; when the model is
// unavailable it degrades to a heuristic based on the 24h change.
func (s *Service) Sentiment(ctx context.Context, symbol string) (string, error) {
	if symbol == "" {
		symbol = "BTC"
	}
	quote, err := s.price.Price(ctx, symbol)
	if err != nil {
		return "", err
	}

	var headlines []NewsItem
	if s.news != nil {
		headlines, err = s.news.Headlines(ctx, coinTopic(symbol), 5)
		if err != nil {
			slog.Warn("market: headlines unavailable for sentiment", "symbol", symbol, "error", err)
			headlines = nil
		}
	}

	if s.model != nil {
		text, err := s.model.Generate(ctx, sentimentPrompt(quote, headlines), 200)
		if err == nil && strings.TrimSpace(text) != "" {
			metrics.LLMCallsTotal.WithLabelValues("sentiment", "ok").Inc()
			return strings.TrimSpace(text), nil
		}
		metrics.LLMCallsTotal.WithLabelValues("sentiment", "error").Inc()
		slog.Warn("market: model sentiment failed, using heuristic", "symbol", symbol, "error", err)
	}
	return heuristicSentiment(quote), nil
}

func sentimentPrompt(quote Price, headlines []NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is trading at $%.2f, %+.2f%% over 24h.\n", quote.Symbol, quote.USD, quote.Change24h)
	if len(headlines) > 0 {
		b.WriteString("Recent headlines:\n")
		for _, h := range headlines {
			fmt.Fprintf(&b, "- %s (%s)\n", h.Title, h.Source)
		}
	}
	b.WriteString("Give a brief, grounded sentiment read for this asset in 2-3 sentences. No financial advice.")
	return b.String()
}

func heuristicSentiment(quote Price) string {
	mood := "neutral"
	switch {
	case quote.Change24h >= 5:
		mood = "strongly bullish"
	case quote.Change24h >= 1:
		mood = "mildly bullish"
	case quote.Change24h <= -5:
		mood = "strongly bearish"
	case quote.Change24h <= -1:
		mood = "mildly bearish"
	}
	return fmt.Sprintf("%s is at $%.2f (%+.2f%% 24h). Short-term momentum looks %s.",
		quote.Symbol, quote.USD, quote.Change24h, mood)
}

func coinTopic(symbol string) string {
	if id, ok := coinIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return symbol
}
