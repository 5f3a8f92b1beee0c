package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ShortTermStore keeps per-channel conversation windows in Redis lists.
type ShortTermStore struct {
	client *redis.Client
}

// NewShortTermStore creates a new short-term store.
func NewShortTermStore(client *redis.Client) *ShortTermStore {
	return &ShortTermStore{client: client}
}

func turnsKey(channelID string) string {
	return fmt.Sprintf("turns:%s", channelID)
}

// RecentTurns returns the last `limit` turns for a channel, oldest first.
func (s *ShortTermStore) RecentTurns(ctx context.Context, channelID string, limit int) ([]Turn, error) {
	key := turnsKey(channelID)

	// LRANGE key -limit -1 returns the last `limit` elements
	vals, err := s.client.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	turns := make([]Turn, 0, len(vals))
	for _, v := range vals {
		var turn Turn
		if err := json.Unmarshal([]byte(v), &turn); err != nil {
			continue // skip malformed entries
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// AppendTurn adds a turn to the channel's list and trims to maxTurns.
func (s *ShortTermStore) AppendTurn(ctx context.Context, turn Turn, maxTurns, ttlSec int) error {
	key := turnsKey(turn.ChannelID)

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshaling turn: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, string(data))
	pipe.LTrim(ctx, key, int64(-maxTurns), -1)
	pipe.Expire(ctx, key, time.Duration(ttlSec)*time.Second)
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("pipeline exec for %s: %w", key, err)
	}
	return nil
}

// ClearChannel deletes the conversation window for a channel.
func (s *ShortTermStore) ClearChannel(ctx context.Context, channelID string) error {
	return s.client.Del(ctx, turnsKey(channelID)).Err()
}
