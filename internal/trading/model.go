package trading

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidTrade indicates the trade is missing required fields or has
	// nonsensical numbers.
	ErrInvalidTrade = errors.New("invalid trade")
)

const (
	TypeBuy  = "buy"
	TypeSell = "sell"
)

// Trade is one journal entry. Sell entries that carry a buy price get
// realized P/L computed at log time.
type Trade struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	Type          string    `json:"trade_type"`
	Symbol        string    `json:"symbol"`
	Amount        float64   `json:"amount"`
	BuyPrice      float64   `json:"buy_price,omitempty"`
	SellPrice     float64   `json:"sell_price,omitempty"`
	ProfitLoss    float64   `json:"profit_loss"`
	ProfitLossPct float64   `json:"profit_loss_pct"`
	Realized      bool      `json:"realized"`
	Timestamp     time.Time `json:"timestamp"`
}

// Stats is the running performance record for one user, updated on every
// realized trade.
type Stats struct {
	UserID         string    `json:"user_id"`
	TotalTrades    int       `json:"total_trades"`
	WinningTrades  int       `json:"winning_trades"`
	AvgProfitPct   float64   `json:"average_profit_pct"`
	LargestWinPct  float64   `json:"largest_win_pct"`
	LargestLossPct float64   `json:"largest_loss_pct"`
	LastUpdated    time.Time `json:"last_updated"`
}

// WinRate is winning trades over total realized trades, in percent.
func (s Stats) WinRate() float64 {
	if s.TotalTrades == 0 {
		return 0
	}
	return float64(s.WinningTrades) / float64(s.TotalTrades) * 100
}
