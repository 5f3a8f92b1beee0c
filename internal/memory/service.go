package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trademaster-labs/trademaster/internal/config"
)

// Service is the context store: short-term per-channel windows plus long-term
// per-user profiles and memory items. Every failure is wrapped in
// ErrStorageUnavailable so the router can degrade instead of aborting.
type Service struct {
	shortTerm *ShortTermStore
	repo      Repository
	maxTurns  int
	ttlSec    int
}

// NewService creates the context store.
func NewService(shortTerm *ShortTermStore, repo Repository, cfg config.MemoryConfig) *Service {
	return &Service{
		shortTerm: shortTerm,
		repo:      repo,
		maxTurns:  cfg.MaxTurns,
		ttlSec:    cfg.ShortTermTTLSec,
	}
}

// RecentContext returns up to limit turns for the channel, most-recent-last.
func (s *Service) RecentContext(ctx context.Context, channelID string, limit int) ([]Turn, error) {
	turns, err := s.shortTerm.RecentTurns(ctx, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return turns, nil
}

// AppendTurn appends one turn to the channel window and mirrors it into the
// durable context log.
func (s *Service) AppendTurn(ctx context.Context, turn Turn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	if err := s.shortTerm.AppendTurn(ctx, turn, s.maxTurns, s.ttlSec); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := s.repo.LogContext(ctx, turn.ChannelID, turn.UserID, turn.Text, turn.Timestamp); err != nil {
		// The short-term window already has the turn; a failed durable log is
		// not worth failing the pipeline over.
		slog.Warn("memory: logging context row", "error", err, "channel_id", turn.ChannelID)
	}
	return nil
}

// GetOrCreateProfile returns the user's profile, creating it with defaults on
// the first observed message.
func (s *Service) GetOrCreateProfile(ctx context.Context, userID, username string, now time.Time) (*Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if p != nil {
		return p, nil
	}

	p = &Profile{
		UserID:           userID,
		Username:         username,
		FirstSeen:        now,
		LastSeen:         now,
		InteractionCount: 0,
	}
	if err := s.repo.CreateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return p, nil
}

// TouchProfile bumps last_seen and the interaction counter.
func (s *Service) TouchProfile(ctx context.Context, userID string, now time.Time) error {
	if err := s.repo.TouchProfile(ctx, userID, now); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// AddItem stores a durable memory item, superseding an earlier item of the
// same (user, kind, topic).
func (s *Service) AddItem(ctx context.Context, item Item) error {
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now().UTC()
	}
	if item.Importance < 1 {
		item.Importance = 1
	}
	if item.Importance > 5 {
		item.Importance = 5
	}
	if err := s.repo.UpsertItem(ctx, &item); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Items returns the user's memory items, filtered by kind when non-empty.
func (s *Service) Items(ctx context.Context, userID, kind string) ([]Item, error) {
	items, err := s.repo.ListItems(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return items, nil
}

// ClearChannel wipes the channel's short-term window and the invoking user's
// context log rows. Safe to call repeatedly.
func (s *Service) ClearChannel(ctx context.Context, channelID, userID string) error {
	if err := s.shortTerm.ClearChannel(ctx, channelID); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := s.repo.ClearContextLogs(ctx, channelID, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Summary formats the user's profile and highest-signal memories for prompt
// injection. Returns "" when nothing is known.
func (s *Service) Summary(ctx context.Context, userID string) string {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil || p == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User: %s (interactions: %d)\n", p.Username, p.InteractionCount)

	writeKind := func(kind, heading string) {
		items, err := s.repo.ListItems(ctx, userID, kind)
		if err != nil || len(items) == 0 {
			return
		}
		b.WriteString(heading + "\n")
		for i, it := range items {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", it.Topic, it.Content)
		}
	}
	writeKind(KindFact, "Known facts:")
	writeKind(KindPreference, "Preferences:")

	return b.String()
}
