package llm

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the model endpoint cannot be reached, times
// out, or answers with a non-success status. Callers degrade rather than fail.
var ErrUnavailable = errors.New("llm: model unavailable")

// Classification is the structured result of a constrained classification call.
type Classification struct {
	Label  string            `json:"intent"`
	Params map[string]string `json:"params,omitempty"`
}

// Client is the narrow capability interface for the external language model.
// Both methods may fail or time out; neither is assumed to be available.
type Client interface {
	// Generate produces free-form text for the given prompt.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	// Classify asks the model to pick exactly one of the given labels for the
	// text and extract label-specific parameters.
	Classify(ctx context.Context, text string, labels []string) (*Classification, error)
}
