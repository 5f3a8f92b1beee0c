package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trademaster-labs/trademaster/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(config.LLMConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 2 * time.Second,
	})
}

func chatReply(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return b
}

func TestOpenAIClient_Generate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write(chatReply("BTC is at $45,000."))
	})

	out, err := client.Generate(context.Background(), "price of BTC?", 100)
	require.NoError(t, err)
	assert.Equal(t, "BTC is at $45,000.", out)
}

func TestOpenAIClient_GenerateServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Generate(context.Background(), "hi", 100)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenAIClient_Classify(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply(`{"intent": "market_price", "params": {"symbol": "BTC"}}`))
	})

	result, err := client.Classify(context.Background(), "what's BTC at?", []string{"market_price", "general_chat"})
	require.NoError(t, err)
	assert.Equal(t, "market_price", result.Label)
	assert.Equal(t, "BTC", result.Params["symbol"])
}

func TestOpenAIClient_ClassifyFencedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatReply("```json\n{\"intent\": \"general_chat\"}\n```"))
	})

	result, err := client.Classify(context.Background(), "hello there", []string{"general_chat"})
	require.NoError(t, err)
	assert.Equal(t, "general_chat", result.Label)
}

func TestParseClassification(t *testing.T) {
	t.Run("prose around object", func(t *testing.T) {
		result, err := parseClassification(`Sure! Here you go: {"intent": "wallet_track"} Hope that helps.`)
		require.NoError(t, err)
		assert.Equal(t, "wallet_track", result.Label)
	})

	t.Run("no object", func(t *testing.T) {
		_, err := parseClassification("I cannot classify that.")
		assert.Error(t, err)
	})

	t.Run("missing label", func(t *testing.T) {
		_, err := parseClassification(`{"params": {}}`)
		assert.Error(t, err)
	})
}

func TestMockDefaultsToUnavailable(t *testing.T) {
	m := &Mock{}

	_, err := m.Generate(context.Background(), "x", 10)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = m.Classify(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}
