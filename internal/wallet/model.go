package wallet

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidAddress indicates the address does not match the network's
	// address format.
	ErrInvalidAddress = errors.New("invalid wallet address")

	// ErrUnsupportedNetwork indicates a network we have no chain client for.
	ErrUnsupportedNetwork = errors.New("unsupported network")

	// ErrChainUnavailable indicates the block explorer API failed.
	ErrChainUnavailable = errors.New("chain data unavailable")
)

// TrackedWallet is a wallet a user asked the bot to watch. A wallet is
// tracked once per network; the first requester owns the entry.
type TrackedWallet struct {
	ID           uuid.UUID  `json:"id"`
	Address      string     `json:"address"`
	UserID       string     `json:"user_id"`
	ChannelID    string     `json:"channel_id"`
	Network      string     `json:"network"`
	TrackedSince time.Time  `json:"tracked_since"`
	LastChecked  *time.Time `json:"last_checked,omitempty"`
	LastTxHash   string     `json:"last_tx_hash,omitempty"`
}

// Balance is the native-token balance of an address.
type Balance struct {
	Address string
	Network string
	Amount  float64 // native units (ETH, BNB)
}

// Transaction is a simplified on-chain transfer.
type Transaction struct {
	Hash      string
	From      string
	To        string
	Amount    float64 // native units
	Timestamp time.Time
}

var evmAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether address is well formed for the network.
func ValidAddress(address, network string) bool {
	switch network {
	case "eth", "bsc":
		return evmAddressRe.MatchString(address)
	case "sol":
		return len(address) >= 32 && len(address) <= 44
	default:
		return false
	}
}
