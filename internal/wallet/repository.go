package wallet

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists tracked wallets. A (wallet_address, network) pair is
// tracked at most once across all users.
type Repository interface {
	Add(ctx context.Context, w *TrackedWallet) (created bool, err error)
	ListByUser(ctx context.Context, userID string) ([]TrackedWallet, error)
	Remove(ctx context.Context, userID, address, network string) (removed bool, err error)
	MarkChecked(ctx context.Context, address, network, lastTxHash string, at time.Time) error
}

// PostgresRepository implements Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Add(ctx context.Context, w *TrackedWallet) (bool, error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.TrackedSince.IsZero() {
		w.TrackedSince = time.Now().UTC()
	}
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO tracked_wallets (id, wallet_address, user_id, channel_id, network, tracked_since)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (wallet_address, network) DO NOTHING`,
		w.ID, w.Address, w.UserID, w.ChannelID, w.Network, w.TrackedSince,
	)
	if err != nil {
		return false, fmt.Errorf("tracking wallet: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]TrackedWallet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, wallet_address, user_id, channel_id, network, tracked_since, last_checked, last_tx_hash
		 FROM tracked_wallets
		 WHERE user_id = $1
		 ORDER BY tracked_since`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing wallets: %w", err)
	}
	defer rows.Close()

	var out []TrackedWallet
	for rows.Next() {
		var w TrackedWallet
		if err := rows.Scan(&w.ID, &w.Address, &w.UserID, &w.ChannelID, &w.Network,
			&w.TrackedSince, &w.LastChecked, &w.LastTxHash); err != nil {
			return nil, fmt.Errorf("scanning wallet: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, address, network string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM tracked_wallets
		 WHERE user_id = $1 AND wallet_address = $2 AND network = $3`,
		userID, address, network,
	)
	if err != nil {
		return false, fmt.Errorf("removing wallet: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) MarkChecked(ctx context.Context, address, network, lastTxHash string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tracked_wallets
		 SET last_checked = $3, last_tx_hash = $4
		 WHERE wallet_address = $1 AND network = $2`,
		address, network, at, lastTxHash,
	)
	if err != nil {
		return fmt.Errorf("marking wallet checked: %w", err)
	}
	return nil
}

// InMemoryRepository is the non-durable backend used in tests and local runs.
type InMemoryRepository struct {
	mu      sync.RWMutex
	wallets map[string]TrackedWallet // key: address|network
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{wallets: make(map[string]TrackedWallet)}
}

func walletKey(address, network string) string {
	return address + "|" + network
}

func (r *InMemoryRepository) Add(_ context.Context, w *TrackedWallet) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := walletKey(w.Address, w.Network)
	if _, exists := r.wallets[key]; exists {
		return false, nil
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	if w.TrackedSince.IsZero() {
		w.TrackedSince = time.Now().UTC()
	}
	r.wallets[key] = *w
	return true, nil
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID string) ([]TrackedWallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []TrackedWallet
	for _, w := range r.wallets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackedSince.Before(out[j].TrackedSince) })
	return out, nil
}

func (r *InMemoryRepository) Remove(_ context.Context, userID, address, network string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := walletKey(address, network)
	w, exists := r.wallets[key]
	if !exists || w.UserID != userID {
		return false, nil
	}
	delete(r.wallets, key)
	return true, nil
}

func (r *InMemoryRepository) MarkChecked(_ context.Context, address, network, lastTxHash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := walletKey(address, network)
	w, exists := r.wallets[key]
	if !exists {
		return nil
	}
	checked := at
	w.LastChecked = &checked
	w.LastTxHash = lastTxHash
	r.wallets[key] = w
	return nil
}
