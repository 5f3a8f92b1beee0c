package trading

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists trades and per-user running stats.
type Repository interface {
	InsertTrade(ctx context.Context, t *Trade) error
	RecentTrades(ctx context.Context, userID string, limit int) ([]Trade, error)
	GetStats(ctx context.Context, userID string) (*Stats, error)
	UpsertStats(ctx context.Context, s *Stats) error
}

// PostgresRepository implements Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) InsertTrade(ctx context.Context, t *Trade) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO trades (id, user_id, trade_type, symbol, amount, buy_price, sell_price,
		                     profit_loss, profit_loss_pct, realized, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.UserID, t.Type, t.Symbol, t.Amount, t.BuyPrice, t.SellPrice,
		t.ProfitLoss, t.ProfitLossPct, t.Realized, t.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting trade: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RecentTrades(ctx context.Context, userID string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, trade_type, symbol, amount, buy_price, sell_price,
		        profit_loss, profit_loss_pct, realized, timestamp
		 FROM trades
		 WHERE user_id = $1
		 ORDER BY timestamp DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing trades: %w", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Symbol, &t.Amount, &t.BuyPrice,
			&t.SellPrice, &t.ProfitLoss, &t.ProfitLossPct, &t.Realized, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetStats(ctx context.Context, userID string) (*Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, total_trades, winning_trades, average_profit_pct,
		        largest_win_pct, largest_loss_pct, last_updated
		 FROM user_stats
		 WHERE user_id = $1`,
		userID,
	).Scan(&s.UserID, &s.TotalTrades, &s.WinningTrades, &s.AvgProfitPct,
		&s.LargestWinPct, &s.LargestLossPct, &s.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	return &s, nil
}

func (r *PostgresRepository) UpsertStats(ctx context.Context, s *Stats) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_stats (user_id, total_trades, winning_trades, average_profit_pct,
		                         largest_win_pct, largest_loss_pct, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE SET
		   total_trades = EXCLUDED.total_trades,
		   winning_trades = EXCLUDED.winning_trades,
		   average_profit_pct = EXCLUDED.average_profit_pct,
		   largest_win_pct = EXCLUDED.largest_win_pct,
		   largest_loss_pct = EXCLUDED.largest_loss_pct,
		   last_updated = EXCLUDED.last_updated`,
		s.UserID, s.TotalTrades, s.WinningTrades, s.AvgProfitPct,
		s.LargestWinPct, s.LargestLossPct, s.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upserting stats: %w", err)
	}
	return nil
}

// InMemoryRepository is the non-durable backend used in tests and local runs.
type InMemoryRepository struct {
	mu     sync.RWMutex
	trades map[string][]Trade
	stats  map[string]Stats
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		trades: make(map[string][]Trade),
		stats:  make(map[string]Stats),
	}
}

func (r *InMemoryRepository) InsertTrade(_ context.Context, t *Trade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.trades[t.UserID] = append(r.trades[t.UserID], *t)
	return nil
}

func (r *InMemoryRepository) RecentTrades(_ context.Context, userID string, limit int) ([]Trade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 10
	}
	all := r.trades[userID]
	out := make([]Trade, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (r *InMemoryRepository) GetStats(_ context.Context, userID string) (*Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stats[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *InMemoryRepository) UpsertStats(_ context.Context, s *Stats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.LastUpdated.IsZero() {
		s.LastUpdated = time.Now().UTC()
	}
	r.stats[s.UserID] = *s
	return nil
}
