package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trademaster-labs/trademaster/internal/config"
	"github.com/trademaster-labs/trademaster/internal/llm"
)

func TestCoinGeckoPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		w.Write([]byte(`{"bitcoin":{"usd":45123.5,"usd_24h_change":2.1,"usd_market_cap":880000000000}}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(config.MarketConfig{PriceBaseURL: srv.URL, Timeout: time.Second})
	p, err := c.Price(context.Background(), "btc")
	require.NoError(t, err)
	assert.Equal(t, "BTC", p.Symbol)
	assert.Equal(t, 45123.5, p.USD)
	assert.Equal(t, 2.1, p.Change24h)
	assert.False(t, p.FetchedAt.IsZero())
}

func TestCoinGeckoPriceUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(config.MarketConfig{PriceBaseURL: srv.URL, Timeout: time.Second})
	_, err := c.Price(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestCoinGeckoPriceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(config.MarketConfig{PriceBaseURL: srv.URL, Timeout: time.Second})
	_, err := c.Price(context.Background(), "BTC")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewsAPIHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/everything", r.URL.Path)
		assert.Equal(t, "ethereum", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("pageSize"))
		w.Write([]byte(`{"status":"ok","articles":[
			{"title":"ETH upgrade ships","url":"https://example.com/a","publishedAt":"2026-08-28T10:00:00Z","source":{"name":"Wire"}},
			{"title":"Fees drop","url":"https://example.com/b","publishedAt":"2026-08-28T09:00:00Z","source":{"name":"Desk"}}
		]}`))
	}))
	defer srv.Close()

	c := NewNewsAPIClient(config.MarketConfig{NewsBaseURL: srv.URL, Timeout: time.Second})
	items, err := c.Headlines(context.Background(), "ethereum", 3)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "ETH upgrade ships", items[0].Title)
	assert.Equal(t, "Wire", items[0].Source)
}

func TestNewsAPIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","articles":[]}`))
	}))
	defer srv.Close()

	c := NewNewsAPIClient(config.MarketConfig{NewsBaseURL: srv.URL, Timeout: time.Second})
	_, err := c.Headlines(context.Background(), "bitcoin", 5)
	assert.ErrorIs(t, err, ErrUnavailable)
}

type stubPrice struct {
	p   Price
	err error
}

func (s stubPrice) Price(ctx context.Context, symbol string) (Price, error) { return s.p, s.err }

type stubNews struct {
	items []NewsItem
	err   error
}

func (s stubNews) Headlines(ctx context.Context, topic string, limit int) ([]NewsItem, error) {
	return s.items, s.err
}

func TestSentimentUsesModel(t *testing.T) {
	model := &llm.Mock{
		GenerateFunc: func(ctx context.Context, prompt string, maxTokens int) (string, error) {
			assert.Contains(t, prompt, "BTC")
			assert.Contains(t, prompt, "Big money flows in")
			return "Cautiously optimistic given the inflows.", nil
		},
	}
	svc := NewService(
		stubPrice{p: Price{Symbol: "BTC", USD: 45000, Change24h: 2.0}},
		stubNews{items: []NewsItem{{Title: "Big money flows in", Source: "Wire"}}},
		model,
	)

	out, err := svc.Sentiment(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, "Cautiously optimistic given the inflows.", out)
}

func TestSentimentHeuristicFallback(t *testing.T) {
	model := &llm.Mock{
		GenerateFunc: func(ctx context.Context, prompt string, maxTokens int) (string, error) {
			return "", llm.ErrUnavailable
		},
	}
	svc := NewService(
		stubPrice{p: Price{Symbol: "SOL", USD: 150, Change24h: -6.2}},
		stubNews{err: errors.New("down")},
		model,
	)

	out, err := svc.Sentiment(context.Background(), "SOL")
	require.NoError(t, err)
	assert.Contains(t, out, "SOL")
	assert.Contains(t, out, "strongly bearish")
}

func TestSentimentPriceFailurePropagates(t *testing.T) {
	svc := NewService(stubPrice{err: ErrUnavailable}, nil, nil)
	_, err := svc.Sentiment(context.Background(), "BTC")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHeadlinesDefaultTopic(t *testing.T) {
	var gotTopic string
	svc := NewService(nil, newsFunc(func(ctx context.Context, topic string, limit int) ([]NewsItem, error) {
		gotTopic = topic
		return nil, nil
	}), nil)

	_, err := svc.Headlines(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Equal(t, "cryptocurrency", gotTopic)

	_, err = svc.Headlines(context.Background(), "DOGE", 5)
	require.NoError(t, err)
	assert.Equal(t, "dogecoin", gotTopic)
}

type newsFunc func(ctx context.Context, topic string, limit int) ([]NewsItem, error)

func (f newsFunc) Headlines(ctx context.Context, topic string, limit int) ([]NewsItem, error) {
	return f(ctx, topic, limit)
}
