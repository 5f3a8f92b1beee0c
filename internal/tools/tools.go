package tools

import (
	"context"

	"github.com/trademaster-labs/trademaster/internal/intent"
	"github.com/trademaster-labs/trademaster/internal/memory"
)

// Request carries everything a tool handler may need to act on one message.
type Request struct {
	Intent    intent.Intent
	UserID    string
	ChannelID string
	Username  string
	Context   []memory.Turn
	Profile   *memory.Profile
}

// Result is the normalized tool output handed to the composer.
type Result struct {
	Text    string
	Data    map[string]any
	Success bool
}

// Tool is one specialized handler. Process returns an error only for
// failures; a successful call with nothing to say returns an empty Text.
type Tool interface {
	Name() string
	Process(ctx context.Context, req Request) (Result, error)
}
