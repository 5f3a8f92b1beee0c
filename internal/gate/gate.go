package gate

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/trademaster-labs/trademaster/internal/config"
	"github.com/trademaster-labs/trademaster/internal/metrics"
)

// triggerKeywords mark a message as an implicit question even without a "?".
var triggerKeywords = []string{
	"price", "market", "wallet", "trade", "buy", "sell",
	"token", "coin", "chart", "bullish", "bearish",
}

// Decision is the gate's verdict for one message.
type Decision struct {
	Respond   bool
	Proactive bool // true when responding without being directly addressed
}

// Gate decides whether the bot responds to a message that was not directly
// addressed to it. Sampling uses an injectable seeded source so decisions are
// reproducible under test.
type Gate struct {
	respondFreq   float64
	proactiveFreq float64
	cooldown      time.Duration

	store CooldownStore

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// New creates a Gate. A zero seed picks a time-based one.
func New(cfg config.BotConfig, store CooldownStore) *Gate {
	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Gate{
		respondFreq:   cfg.ResponseFrequency,
		proactiveFreq: cfg.ProactiveFreq,
		cooldown:      cfg.Cooldown,
		store:         store,
		rng:           rand.New(rand.NewSource(seed)),
		now:           time.Now,
	}
}

// WithClock overrides the gate's clock, for tests.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// ShouldRespond implements the gate policy. Directly addressed messages always
// pass and never consult or touch the cooldown. Everything else is sampled at
// the implicit-question or proactive frequency, then forced false while the
// channel's cooldown window is open. A passing proactive decision touches the
// cooldown mark.
func (g *Gate) ShouldRespond(ctx context.Context, channelID, text string, directlyAddressed bool) Decision {
	if directlyAddressed {
		metrics.GateDecisionsTotal.WithLabelValues("respond", "addressed").Inc()
		return Decision{Respond: true}
	}

	prob := g.proactiveFreq
	reason := "proactive"
	if isImplicitQuestion(text) {
		prob = g.respondFreq
		reason = "implicit_question"
	}

	g.mu.Lock()
	sampled := g.rng.Float64() < prob
	now := g.now()
	g.mu.Unlock()

	if !sampled {
		metrics.GateDecisionsTotal.WithLabelValues("silent", reason).Inc()
		return Decision{}
	}

	last, ok, err := g.store.LastProactive(ctx, channelID)
	if err != nil {
		// An unreadable cooldown mark fails closed: staying silent is cheaper
		// than spamming a channel.
		slog.Warn("gate: reading cooldown", "error", err, "channel_id", channelID)
		metrics.GateDecisionsTotal.WithLabelValues("silent", "cooldown_error").Inc()
		return Decision{}
	}
	if ok && now.Sub(last) < g.cooldown {
		metrics.GateDecisionsTotal.WithLabelValues("silent", "cooldown").Inc()
		return Decision{}
	}

	if err := g.store.TouchProactive(ctx, channelID, now); err != nil {
		slog.Warn("gate: touching cooldown", "error", err, "channel_id", channelID)
	}
	metrics.GateDecisionsTotal.WithLabelValues("respond", reason).Inc()
	return Decision{Respond: true, Proactive: true}
}

func isImplicitQuestion(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range triggerKeywords {
		if containsWord(lower, kw) {
			return true
		}
	}
	return false
}

// containsWord reports whether kw appears in s on word boundaries, so "buy"
// does not fire on "busybody".
func containsWord(s, kw string) bool {
	for i := 0; i+len(kw) <= len(s); i++ {
		j := i + len(kw)
		if s[i:j] != kw {
			continue
		}
		beforeOK := i == 0 || !isWordByte(s[i-1])
		afterOK := j == len(s) || !isWordByte(s[j])
		if beforeOK && afterOK {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '_'
}
