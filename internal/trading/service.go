package trading

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trademaster-labs/trademaster/internal/llm"
	"github.com/trademaster-labs/trademaster/internal/metrics"
)

// Service is the trade journal: logs trades, keeps the running stats, and
// produces a short model-assisted critique of realized trades.
type Service struct {
	repo  Repository
	model llm.Client
	now   func() time.Time
}

func NewService(repo Repository, model llm.Client) *Service {
	return &Service{repo: repo, model: model, now: time.Now}
}

// LogTrade validates and journals a trade. Sell entries with a known buy
// price are realized: P/L is computed and the user's stats advance.
func (s *Service) LogTrade(ctx context.Context, userID string, t Trade) (*Trade, *Stats, error) {
	t.UserID = userID
	t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
	t.Type = strings.ToLower(strings.TrimSpace(t.Type))
	t.Timestamp = s.now().UTC()

	if err := validate(&t); err != nil {
		return nil, nil, err
	}

	if t.Type == TypeSell && t.BuyPrice > 0 {
		t.Realized = true
		t.ProfitLoss = (t.SellPrice - t.BuyPrice) * t.Amount
		t.ProfitLossPct = (t.SellPrice - t.BuyPrice) / t.BuyPrice * 100
	}

	if err := s.repo.InsertTrade(ctx, &t); err != nil {
		return nil, nil, err
	}

	var stats *Stats
	if t.Realized {
		var err error
		stats, err = s.advanceStats(ctx, userID, t)
		if err != nil {
			slog.Warn("trading: stats update failed", "user_id", userID, "error", err)
		}
	}
	return &t, stats, nil
}

// Critique asks the model for a one-liner about a realized trade. Empty on
// any model failure; callers treat it as optional color.
func (s *Service) Critique(ctx context.Context, t Trade) string {
	if s.model == nil || !t.Realized {
		return ""
	}
	prompt := fmt.Sprintf(
		"A trader sold %.4g %s at $%.2f after buying at $%.2f (%+.2f%%). "+
			"Give one short, friendly sentence of feedback on this trade. No financial advice.",
		t.Amount, t.Symbol, t.SellPrice, t.BuyPrice, t.ProfitLossPct)
	text, err := s.model.Generate(ctx, prompt, 100)
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues("trade_critique", "error").Inc()
		return ""
	}
	metrics.LLMCallsTotal.WithLabelValues("trade_critique", "ok").Inc()
	return strings.TrimSpace(text)
}

// Summary returns the user's running stats plus their most recent trades.
// Stats is nil for users with no realized trades yet.
func (s *Service) Summary(ctx context.Context, userID string) (*Stats, []Trade, error) {
	stats, err := s.repo.GetStats(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	recent, err := s.repo.RecentTrades(ctx, userID, 5)
	if err != nil {
		return stats, nil, err
	}
	return stats, recent, nil
}

func (s *Service) advanceStats(ctx context.Context, userID string, t Trade) (*Stats, error) {
	stats, err := s.repo.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &Stats{UserID: userID}
	}

	prevTotal := float64(stats.TotalTrades)
	stats.TotalTrades++
	if t.ProfitLoss > 0 {
		stats.WinningTrades++
	}
	stats.AvgProfitPct = (stats.AvgProfitPct*prevTotal + t.ProfitLossPct) / float64(stats.TotalTrades)
	if t.ProfitLossPct > stats.LargestWinPct {
		stats.LargestWinPct = t.ProfitLossPct
	}
	if t.ProfitLossPct < stats.LargestLossPct {
		stats.LargestLossPct = t.ProfitLossPct
	}
	stats.LastUpdated = s.now().UTC()

	if err := s.repo.UpsertStats(ctx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func validate(t *Trade) error {
	if t.Type != TypeBuy && t.Type != TypeSell {
		return fmt.Errorf("%w: type %q", ErrInvalidTrade, t.Type)
	}
	if t.Symbol == "" {
		return fmt.Errorf("%w: missing symbol", ErrInvalidTrade)
	}
	if t.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTrade)
	}
	if t.Type == TypeBuy && t.BuyPrice <= 0 {
		return fmt.Errorf("%w: buy price must be positive", ErrInvalidTrade)
	}
	if t.Type == TypeSell && t.SellPrice <= 0 {
		return fmt.Errorf("%w: sell price must be positive", ErrInvalidTrade)
	}
	if t.BuyPrice < 0 || t.SellPrice < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalidTrade)
	}
	return nil
}
