package memory

import (
	"context"
	"sync"
	"time"
)

// InMemoryRepository is a simple in-process Repository for local/dev use and
// tests. It mirrors the Postgres schema's uniqueness rules.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	items    map[string][]Item // keyed by user_id
	logs     []contextLog
}

type contextLog struct {
	ChannelID string
	UserID    string
	Content   string
	At        time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		profiles: make(map[string]*Profile),
		items:    make(map[string][]Item),
	}
}

func (r *InMemoryRepository) GetProfile(_ context.Context, userID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *InMemoryRepository) CreateProfile(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profiles[p.UserID]; exists {
		return nil
	}
	cp := *p
	r.profiles[p.UserID] = &cp
	return nil
}

func (r *InMemoryRepository) TouchProfile(_ context.Context, userID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		p.LastSeen = now
		p.InteractionCount++
	}
	return nil
}

func (r *InMemoryRepository) UpdatePreferences(_ context.Context, userID string, prefs map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[userID]; ok {
		p.Preferences = prefs
	}
	return nil
}

func (r *InMemoryRepository) UpsertItem(_ context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items[item.UserID]
	for i := range items {
		if items[i].Kind == item.Kind && items[i].Topic == item.Topic {
			items[i] = *item
			return nil
		}
	}
	r.items[item.UserID] = append(items, *item)
	return nil
}

func (r *InMemoryRepository) ListItems(_ context.Context, userID, kind string) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Item
	for _, it := range r.items[userID] {
		if kind == "" || it.Kind == kind {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) LogContext(_ context.Context, channelID, userID, content string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, contextLog{ChannelID: channelID, UserID: userID, Content: content, At: at})
	return nil
}

func (r *InMemoryRepository) ClearContextLogs(_ context.Context, channelID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.logs[:0]
	for _, l := range r.logs {
		if l.ChannelID != channelID || l.UserID != userID {
			kept = append(kept, l)
		}
	}
	r.logs = kept
	return nil
}

// ContextLogCount reports retained log rows, used by tests.
func (r *InMemoryRepository) ContextLogCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.logs)
}
