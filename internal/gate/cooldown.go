package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CooldownStore tracks the last proactive response time per channel.
type CooldownStore interface {
	LastProactive(ctx context.Context, channelID string) (time.Time, bool, error)
	TouchProactive(ctx context.Context, channelID string, at time.Time) error
}

// RedisCooldownStore persists cooldown marks in Redis so restarts do not reset
// the proactive window.
type RedisCooldownStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCooldownStore creates a cooldown store. ttl bounds how long a mark
// is retained; anything at or beyond the cooldown window works.
func NewRedisCooldownStore(client *redis.Client, ttl time.Duration) *RedisCooldownStore {
	return &RedisCooldownStore{client: client, ttl: ttl}
}

func cooldownKey(channelID string) string {
	return fmt.Sprintf("cooldown:%s", channelID)
}

func (s *RedisCooldownStore) LastProactive(ctx context.Context, channelID string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, cooldownKey(channelID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("getting cooldown for %s: %w", channelID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, nil // treat a malformed mark as absent
	}
	return t, true, nil
}

func (s *RedisCooldownStore) TouchProactive(ctx context.Context, channelID string, at time.Time) error {
	err := s.client.Set(ctx, cooldownKey(channelID), at.UTC().Format(time.RFC3339Nano), s.ttl).Err()
	if err != nil {
		return fmt.Errorf("touching cooldown for %s: %w", channelID, err)
	}
	return nil
}

// InMemoryCooldownStore is a map-backed store for local/dev use and tests.
type InMemoryCooldownStore struct {
	mu    sync.RWMutex
	marks map[string]time.Time
}

func NewInMemoryCooldownStore() *InMemoryCooldownStore {
	return &InMemoryCooldownStore{marks: make(map[string]time.Time)}
}

func (s *InMemoryCooldownStore) LastProactive(_ context.Context, channelID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.marks[channelID]
	return t, ok, nil
}

func (s *InMemoryCooldownStore) TouchProactive(_ context.Context, channelID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[channelID] = at
	return nil
}
