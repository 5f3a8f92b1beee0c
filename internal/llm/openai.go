package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/trademaster-labs/trademaster/internal/config"
	"github.com/trademaster-labs/trademaster/internal/metrics"
)

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint
// (Groq, Ollama's compat layer, or OpenAI itself).
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// NewOpenAIClient creates a client for cfg.BaseURL with cfg.Timeout applied to
// every call.
func NewOpenAIClient(cfg config.LLMConfig) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	out, err := c.complete(ctx, []chatMessage{
		{Role: "user", Content: prompt},
	}, maxTokens, 0.7)
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues("generate", "error").Inc()
		return "", err
	}
	metrics.LLMCallsTotal.WithLabelValues("generate", "ok").Inc()
	return out, nil
}

func (c *OpenAIClient) Classify(ctx context.Context, text string, labels []string) (*Classification, error) {
	system := fmt.Sprintf(
		"You classify a chat message into exactly one intent label from this set: %s. "+
			"Reply with a single JSON object: {\"intent\": \"<label>\", \"params\": {...}}. "+
			"Params may include wallet_address, network, symbol, trade_type, amount, buy_price, sell_price when present in the message. "+
			"No prose, JSON only.",
		strings.Join(labels, ", "),
	)

	out, err := c.complete(ctx, []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: text},
	}, 200, 0)
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues("classify", "error").Inc()
		return nil, err
	}

	result, err := parseClassification(out)
	if err != nil {
		metrics.LLMCallsTotal.WithLabelValues("classify", "unparseable").Inc()
		return nil, err
	}
	metrics.LLMCallsTotal.WithLabelValues("classify", "ok").Inc()
	return result, nil
}

// parseClassification extracts the JSON object from a model reply that may be
// wrapped in code fences or surrounding prose.
func parseClassification(out string) (*Classification, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model reply %q", truncate(out, 80))
	}

	var result Classification
	if err := json.Unmarshal([]byte(out[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("parsing classification: %w", err)
	}
	if result.Label == "" {
		return nil, fmt.Errorf("classification missing intent label")
	}
	return &result, nil
}

func (c *OpenAIClient) complete(ctx context.Context, messages []chatMessage, maxTokens int, temperature float64) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("llm: non-OK status", "status", resp.StatusCode)
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrUnavailable)
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
