package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines long-term persistence for profiles, memory items, and
// the durable context log.
type Repository interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	CreateProfile(ctx context.Context, p *Profile) error
	TouchProfile(ctx context.Context, userID string, now time.Time) error
	UpdatePreferences(ctx context.Context, userID string, prefs map[string]string) error

	UpsertItem(ctx context.Context, item *Item) error
	ListItems(ctx context.Context, userID, kind string) ([]Item, error)

	LogContext(ctx context.Context, channelID, userID, content string, at time.Time) error
	ClearContextLogs(ctx context.Context, channelID, userID string) error
}

// PostgresRepository implements Repository using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new long-term memory repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	var prefs []byte
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, username, first_seen, last_seen, interactions_count, preferences
		 FROM user_profiles
		 WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Username, &p.FirstSeen, &p.LastSeen, &p.InteractionCount, &prefs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	if len(prefs) > 0 {
		_ = json.Unmarshal(prefs, &p.Preferences)
	}
	return &p, nil
}

func (r *PostgresRepository) CreateProfile(ctx context.Context, p *Profile) error {
	prefs, err := json.Marshal(p.Preferences)
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO user_profiles (user_id, username, first_seen, last_seen, interactions_count, preferences)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO NOTHING`,
		p.UserID, p.Username, p.FirstSeen, p.LastSeen, p.InteractionCount, prefs,
	)
	if err != nil {
		return fmt.Errorf("creating profile: %w", err)
	}
	return nil
}

func (r *PostgresRepository) TouchProfile(ctx context.Context, userID string, now time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE user_profiles
		 SET last_seen = $2, interactions_count = interactions_count + 1
		 WHERE user_id = $1`,
		userID, now,
	)
	if err != nil {
		return fmt.Errorf("touching profile: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdatePreferences(ctx context.Context, userID string, prefs map[string]string) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE user_profiles SET preferences = $2 WHERE user_id = $1`,
		userID, data,
	)
	if err != nil {
		return fmt.Errorf("updating preferences: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertItem(ctx context.Context, item *Item) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_memory (user_id, memory_type, topic, content, importance, timestamp)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, memory_type, topic)
		 DO UPDATE SET content = EXCLUDED.content, importance = EXCLUDED.importance, timestamp = EXCLUDED.timestamp`,
		item.UserID, item.Kind, item.Topic, item.Content, item.Importance, item.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("upserting memory item: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListItems(ctx context.Context, userID, kind string) ([]Item, error) {
	query := `SELECT user_id, memory_type, topic, content, importance, timestamp
	          FROM user_memory WHERE user_id = $1`
	args := []any{userID}
	if kind != "" {
		query += ` AND memory_type = $2`
		args = append(args, kind)
	}
	query += ` ORDER BY timestamp DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing memory items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.UserID, &it.Kind, &it.Topic, &it.Content, &it.Importance, &it.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning memory item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PostgresRepository) LogContext(ctx context.Context, channelID, userID, content string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO context_logs (channel_id, user_id, message_content, timestamp)
		 VALUES ($1, $2, $3, $4)`,
		channelID, userID, content, at,
	)
	if err != nil {
		return fmt.Errorf("logging context: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ClearContextLogs(ctx context.Context, channelID, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM context_logs WHERE channel_id = $1 AND user_id = $2`,
		channelID, userID,
	)
	if err != nil {
		return fmt.Errorf("clearing context logs: %w", err)
	}
	return nil
}
