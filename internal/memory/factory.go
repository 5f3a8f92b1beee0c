package memory

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepository selects the long-term backend from config. The inmemory
// backend is for local development and tests; pool may be nil in that case.
func NewRepository(backend string, pool *pgxpool.Pool) (Repository, error) {
	switch backend {
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("postgres backend requires a connection pool")
		}
		return NewPostgresRepository(pool), nil
	case "inmemory":
		return NewInMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown memory backend %q", backend)
	}
}
