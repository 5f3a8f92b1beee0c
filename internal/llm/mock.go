package llm

import "context"

// Mock is a test double for Client. Unset funcs return ErrUnavailable, which
// matches how callers must behave when no model is configured.
type Mock struct {
	GenerateFunc func(ctx context.Context, prompt string, maxTokens int) (string, error)
	ClassifyFunc func(ctx context.Context, text string, labels []string) (*Classification, error)
}

func (m *Mock) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if m.GenerateFunc == nil {
		return "", ErrUnavailable
	}
	return m.GenerateFunc(ctx, prompt, maxTokens)
}

func (m *Mock) Classify(ctx context.Context, text string, labels []string) (*Classification, error) {
	if m.ClassifyFunc == nil {
		return nil, ErrUnavailable
	}
	return m.ClassifyFunc(ctx, text, labels)
}
