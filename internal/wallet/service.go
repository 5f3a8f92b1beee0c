package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Service wires wallet tracking to the per-network chain clients.
type Service struct {
	repo   Repository
	chains map[string]ChainClient
}

func NewService(repo Repository, chains map[string]ChainClient) *Service {
	if chains == nil {
		chains = make(map[string]ChainClient)
	}
	return &Service{repo: repo, chains: chains}
}

// Track starts watching an address. Re-tracking an already watched address is
// a no-op and reported via created=false.
func (s *Service) Track(ctx context.Context, userID, channelID, address, network string) (*TrackedWallet, bool, error) {
	network = normalizeNetwork(network)
	if !ValidAddress(address, network) {
		return nil, false, fmt.Errorf("%w: %s on %s", ErrInvalidAddress, address, network)
	}
	w := &TrackedWallet{
		Address:   address,
		UserID:    userID,
		ChannelID: channelID,
		Network:   network,
	}
	created, err := s.repo.Add(ctx, w)
	if err != nil {
		return nil, false, err
	}
	return w, created, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]TrackedWallet, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) Untrack(ctx context.Context, userID, address, network string) (bool, error) {
	return s.repo.Remove(ctx, userID, address, normalizeNetwork(network))
}

// Summary is a point-in-time view of a wallet for replies.
type Summary struct {
	Address string
	Network string
	Balance float64
	Recent  []Transaction
}

// Lookup fetches balance and recent activity for an address. It updates the
// tracking record's last_checked bookmark when the address is tracked.
func (s *Service) Lookup(ctx context.Context, address, network string) (*Summary, error) {
	network = normalizeNetwork(network)
	if !ValidAddress(address, network) {
		return nil, fmt.Errorf("%w: %s on %s", ErrInvalidAddress, address, network)
	}
	chain, ok := s.chains[network]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedNetwork, network)
	}

	bal, err := chain.Balance(ctx, address)
	if err != nil {
		return nil, err
	}
	txs, err := chain.RecentTransactions(ctx, address, 5)
	if err != nil {
		slog.Warn("wallet: transaction history unavailable", "address", address, "network", network, "error", err)
		txs = nil
	}

	lastHash := ""
	if len(txs) > 0 {
		lastHash = txs[0].Hash
	}
	if err := s.repo.MarkChecked(ctx, address, network, lastHash, time.Now().UTC()); err != nil {
		slog.Warn("wallet: failed to bookmark check", "address", address, "error", err)
	}

	return &Summary{Address: address, Network: network, Balance: bal.Amount, Recent: txs}, nil
}

func normalizeNetwork(network string) string {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "", "eth", "ethereum":
		return "eth"
	case "bsc", "binance", "bnb":
		return "bsc"
	case "sol", "solana":
		return "sol"
	default:
		return strings.ToLower(strings.TrimSpace(network))
	}
}
