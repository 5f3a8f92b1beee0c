package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trademaster-labs/trademaster/internal/config"
)

// coinIDs maps ticker symbols to CoinGecko asset ids. Anything outside this
// map falls through to a lowercase guess.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"DOGE":  "dogecoin",
	"ADA":   "cardano",
	"XRP":   "ripple",
	"LTC":   "litecoin",
	"MATIC": "matic-network",
	"BNB":   "binancecoin",
	"DOT":   "polkadot",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
}

// CoinGeckoClient implements PriceClient against the CoinGecko simple price
// endpoint.
type CoinGeckoClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func NewCoinGeckoClient(cfg config.MarketConfig) *CoinGeckoClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CoinGeckoClient{
		baseURL: strings.TrimRight(cfg.PriceBaseURL, "/"),
		apiKey:  cfg.PriceAPIKey,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (c *CoinGeckoClient) Price(ctx context.Context, symbol string) (Price, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	id, ok := coinIDs[symbol]
	if !ok {
		id = strings.ToLower(symbol)
	}

	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	q.Set("include_market_cap", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return Price{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Price{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Price{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload map[string]struct {
		USD          float64 `json:"usd"`
		USDChange24h float64 `json:"usd_24h_change"`
		USDMarketCap float64 `json:"usd_market_cap"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Price{}, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}

	entry, ok := payload[id]
	if !ok {
		return Price{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return Price{
		Symbol:    symbol,
		USD:       entry.USD,
		Change24h: entry.USDChange24h,
		MarketCap: entry.USDMarketCap,
		FetchedAt: time.Now().UTC(),
	}, nil
}
