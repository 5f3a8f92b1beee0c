package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/trademaster-labs/trademaster/internal/llm"
)

// KnowledgeTool answers "what is X" style questions with a short model-backed
// explanation.
type KnowledgeTool struct {
	model     llm.Client
	maxTokens int
}

func NewKnowledgeTool(model llm.Client, maxTokens int) *KnowledgeTool {
	if maxTokens <= 0 {
		maxTokens = 300
	}
	return &KnowledgeTool{model: model, maxTokens: maxTokens}
}

func (t *KnowledgeTool) Name() string { return "knowledge" }

func (t *KnowledgeTool) Process(ctx context.Context, req Request) (Result, error) {
	if t.model == nil {
		return Result{}, fmt.Errorf("knowledge tool: %w", llm.ErrUnavailable)
	}
	query := req.Intent.Params.Query
	if query == "" {
		return Result{}, fmt.Errorf("knowledge tool: empty query")
	}

	prompt := fmt.Sprintf(
		"Answer this trading or crypto question in 2-4 plain sentences for a community chat. "+
			"If it is not about trading or crypto, answer briefly anyway.\nQuestion: %s", query)
	text, err := t.model.Generate(ctx, prompt, t.maxTokens)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: strings.TrimSpace(text)}, nil
}
