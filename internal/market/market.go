package market

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable indicates the upstream market data provider could not be
	// reached or returned a non-success status.
	ErrUnavailable = errors.New("market data unavailable")

	// ErrUnknownSymbol indicates the symbol does not map to a listed asset.
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Price is a point-in-time quote for one asset.
type Price struct {
	Symbol    string
	USD       float64
	Change24h float64 // percent
	MarketCap float64
	FetchedAt time.Time
}

// NewsItem is a single headline about an asset or the market at large.
type NewsItem struct {
	Title       string
	Source      string
	URL         string
	PublishedAt time.Time
}

// PriceClient fetches quotes from a market data provider.
type PriceClient interface {
	Price(ctx context.Context, symbol string) (Price, error)
}

// NewsClient fetches recent headlines for a topic.
type NewsClient interface {
	Headlines(ctx context.Context, topic string, limit int) ([]NewsItem, error)
}
