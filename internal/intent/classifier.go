package intent

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/trademaster-labs/trademaster/internal/llm"
	"github.com/trademaster-labs/trademaster/internal/memory"
	"github.com/trademaster-labs/trademaster/internal/metrics"
)

// Classifier maps a message plus recent context to exactly one Intent.
// Deterministic rules run first; the model fallback only sees messages the
// rules could not place, and any fallback failure degrades to general_chat.
type Classifier struct {
	model   llm.Client
	timeout time.Duration
}

// NewClassifier creates a classifier. model may be nil, in which case the
// fallback tier is skipped entirely.
func NewClassifier(model llm.Client, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Classifier{model: model, timeout: timeout}
}

// Classify resolves the message's intent.
func (c *Classifier) Classify(ctx context.Context, text string, recent []memory.Turn) Intent {
	if it, ok := MatchRules(text); ok {
		metrics.IntentsClassifiedTotal.WithLabelValues(it.Kind.String(), "rules").Inc()
		return it
	}

	if IsTriviallyConversational(text) || c.model == nil {
		metrics.IntentsClassifiedTotal.WithLabelValues(GeneralChat.String(), "fallback").Inc()
		return Intent{Kind: GeneralChat}
	}

	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.model.Classify(cctx, withContext(text, recent), Labels())
	if err != nil {
		slog.Debug("intent: model fallback failed", "error", err)
		metrics.IntentsClassifiedTotal.WithLabelValues(GeneralChat.String(), "fallback").Inc()
		return Intent{Kind: GeneralChat}
	}

	it := Intent{Kind: KindFromLabel(result.Label), Params: paramsFromMap(result.Params)}
	if it.Kind == None {
		it.Kind = GeneralChat
	}
	if it.Kind == KnowledgeQuery && it.Params.Query == "" {
		it.Params.Query = strings.TrimSpace(text)
	}
	metrics.IntentsClassifiedTotal.WithLabelValues(it.Kind.String(), "model").Inc()
	return it
}

// withContext prefixes the message with a couple of recent turns so the model
// can resolve references like "and what about that one?".
func withContext(text string, recent []memory.Turn) string {
	if len(recent) == 0 {
		return text
	}
	start := len(recent) - 3
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	b.WriteString("Recent conversation:\n")
	for _, t := range recent[start:] {
		b.WriteString(t.Role)
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteString("\n")
	}
	b.WriteString("Message to classify: ")
	b.WriteString(text)
	return b.String()
}

func paramsFromMap(m map[string]string) Params {
	if len(m) == 0 {
		return Params{}
	}
	p := Params{
		WalletAddress: m["wallet_address"],
		Network:       m["network"],
		Symbol:        strings.ToUpper(m["symbol"]),
		TradeType:     strings.ToLower(m["trade_type"]),
		Query:         m["query"],
	}
	p.Amount, _ = strconv.ParseFloat(m["amount"], 64)
	p.BuyPrice, _ = strconv.ParseFloat(m["buy_price"], 64)
	p.SellPrice, _ = strconv.ParseFloat(m["sell_price"], 64)
	return p
}
