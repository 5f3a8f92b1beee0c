package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/trademaster-labs/trademaster/internal/config"
)

// ChainClient reads on-chain state for one network.
type ChainClient interface {
	Balance(ctx context.Context, address string) (Balance, error)
	RecentTransactions(ctx context.Context, address string, limit int) ([]Transaction, error)
}

// EtherscanClient implements ChainClient against an Etherscan-compatible API.
// BscScan exposes the same surface, so one client covers both networks.
type EtherscanClient struct {
	baseURL string
	apiKey  string
	network string
	httpc   *http.Client
}

func NewEtherscanClient(baseURL, apiKey, network string, timeout time.Duration) *EtherscanClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EtherscanClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		network: network,
		httpc:   &http.Client{Timeout: timeout},
	}
}

// NewChainClients builds the per-network client map from config.
func NewChainClients(cfg config.WalletConfig) map[string]ChainClient {
	clients := make(map[string]ChainClient)
	if cfg.EtherscanBaseURL != "" {
		clients["eth"] = NewEtherscanClient(cfg.EtherscanBaseURL, cfg.EtherscanAPIKey, "eth", cfg.Timeout)
	}
	if cfg.BscscanBaseURL != "" {
		clients["bsc"] = NewEtherscanClient(cfg.BscscanBaseURL, cfg.BscscanAPIKey, "bsc", cfg.Timeout)
	}
	return clients
}

func (c *EtherscanClient) Balance(ctx context.Context, address string) (Balance, error) {
	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "balance")
	q.Set("address", address)
	q.Set("tag", "latest")

	var payload struct {
		Status string `json:"status"`
		Result string `json:"result"`
	}
	if err := c.get(ctx, q, &payload); err != nil {
		return Balance{}, err
	}
	if payload.Status != "1" {
		return Balance{}, fmt.Errorf("%w: %s", ErrChainUnavailable, payload.Result)
	}

	wei, ok := new(big.Float).SetString(payload.Result)
	if !ok {
		return Balance{}, fmt.Errorf("%w: bad balance %q", ErrChainUnavailable, payload.Result)
	}
	amount, _ := new(big.Float).Quo(wei, big.NewFloat(1e18)).Float64()
	return Balance{Address: address, Network: c.network, Amount: amount}, nil
}

func (c *EtherscanClient) RecentTransactions(ctx context.Context, address string, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 25 {
		limit = 5
	}
	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("sort", "desc")
	q.Set("page", "1")
	q.Set("offset", strconv.Itoa(limit))

	var payload struct {
		Status string `json:"status"`
		Result []struct {
			Hash      string `json:"hash"`
			From      string `json:"from"`
			To        string `json:"to"`
			Value     string `json:"value"`
			TimeStamp string `json:"timeStamp"`
		} `json:"result"`
	}
	if err := c.get(ctx, q, &payload); err != nil {
		return nil, err
	}
	// "0" with an empty result means no transactions, not a failure
	if payload.Status != "1" && len(payload.Result) > 0 {
		return nil, fmt.Errorf("%w: status %s", ErrChainUnavailable, payload.Status)
	}

	txs := make([]Transaction, 0, len(payload.Result))
	for _, r := range payload.Result {
		tx := Transaction{Hash: r.Hash, From: r.From, To: r.To}
		if wei, ok := new(big.Float).SetString(r.Value); ok {
			tx.Amount, _ = new(big.Float).Quo(wei, big.NewFloat(1e18)).Float64()
		}
		if unix, err := strconv.ParseInt(r.TimeStamp, 10, 64); err == nil {
			tx.Timestamp = time.Unix(unix, 0).UTC()
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (c *EtherscanClient) get(ctx context.Context, q url.Values, out any) error {
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChainUnavailable, err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChainUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrChainUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrChainUnavailable, err)
	}
	return nil
}
