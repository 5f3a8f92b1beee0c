package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/trademaster-labs/trademaster/internal/config"
)

// NewsAPIClient implements NewsClient against a NewsAPI-compatible
// /v2/everything endpoint.
type NewsAPIClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func NewNewsAPIClient(cfg config.MarketConfig) *NewsAPIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NewsAPIClient{
		baseURL: strings.TrimRight(cfg.NewsBaseURL, "/"),
		apiKey:  cfg.NewsAPIKey,
		httpc:   &http.Client{Timeout: timeout},
	}
}

func (c *NewsAPIClient) Headlines(ctx context.Context, topic string, limit int) ([]NewsItem, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	if topic == "" {
		topic = "cryptocurrency"
	}

	q := url.Values{}
	q.Set("q", topic)
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/everything?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload struct {
		Status   string `json:"status"`
		Articles []struct {
			Title       string    `json:"title"`
			URL         string    `json:"url"`
			PublishedAt time.Time `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("%w: status %q", ErrUnavailable, payload.Status)
	}

	items := make([]NewsItem, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		items = append(items, NewsItem{
			Title:       a.Title,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}
	return items, nil
}
