package tools

import "context"

// ChatTool is the default conversational handler. It produces no tool text;
// the composer builds the reply from context and persona alone.
type ChatTool struct{}

func NewChatTool() *ChatTool { return &ChatTool{} }

func (t *ChatTool) Name() string { return "chat" }

func (t *ChatTool) Process(_ context.Context, _ Request) (Result, error) {
	return Result{}, nil
}
