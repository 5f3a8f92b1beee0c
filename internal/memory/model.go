package memory

import (
	"errors"
	"time"
)

// ErrStorageUnavailable wraps any storage-layer failure. The router degrades
// to stateless behavior on this error instead of aborting the pipeline.
var ErrStorageUnavailable = errors.New("memory: storage unavailable")

// Turn roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// Memory item kinds.
const (
	KindFact        = "fact"
	KindPreference  = "preference"
	KindInteraction = "interaction"
)

// Turn is a single message in a channel's conversation history.
type Turn struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"` // user or bot
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Item is a durable per-user memory. Items of the same (user, kind, topic)
// supersede each other; the router never deletes them.
type Item struct {
	UserID     string    `json:"user_id"`
	Kind       string    `json:"kind"`
	Topic      string    `json:"topic"`
	Content    string    `json:"content"`
	Importance int       `json:"importance"` // 1..5
	Timestamp  time.Time `json:"timestamp"`
}

// Profile is the per-user record created on first observed message.
type Profile struct {
	UserID           string            `json:"user_id"`
	Username         string            `json:"username"`
	FirstSeen        time.Time         `json:"first_seen"`
	LastSeen         time.Time         `json:"last_seen"`
	InteractionCount int               `json:"interaction_count"`
	Preferences      map[string]string `json:"preferences,omitempty"`
}
