package compose

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trademaster-labs/trademaster/internal/llm"
	"github.com/trademaster-labs/trademaster/internal/memory"
	"github.com/trademaster-labs/trademaster/internal/metrics"
	"github.com/trademaster-labs/trademaster/internal/tools"
)

// fallbackText is the reply of last resort: no tool text and no model.
const fallbackText = "I'm a bit tongue-tied right now. Ask me again in a moment."

// Composer turns normalized tool output into the final reply. Failed tool
// results pass through verbatim so a model hiccup never compounds a tool
// failure.
type Composer struct {
	model     llm.Client
	mem       *memory.Service
	botName   string
	persona   string
	smoothing bool
	historyN  int
	maxTokens int
}

func New(model llm.Client, mem *memory.Service, botName, persona string, smoothing bool, historyN, maxTokens int) *Composer {
	if historyN <= 0 {
		historyN = 5
	}
	if maxTokens <= 0 {
		maxTokens = 500
	}
	return &Composer{
		model:     model,
		mem:       mem,
		botName:   botName,
		persona:   persona,
		smoothing: smoothing,
		historyN:  historyN,
		maxTokens: maxTokens,
	}
}

// Compose builds the reply text for one message.
func (c *Composer) Compose(ctx context.Context, result tools.Result, userText string, recent []memory.Turn, profile *memory.Profile) string {
	if !result.Success {
		return result.Text
	}

	needsModel := result.Text == "" || c.smoothing
	if !needsModel || c.model == nil {
		if result.Text != "" {
			return result.Text
		}
		return fallbackText
	}

	var known string
	if c.mem != nil && profile != nil {
		known = c.mem.Summary(ctx, profile.UserID)
	}

	reply, err := c.model.Generate(ctx, c.prompt(result, userText, recent, profile, known), c.maxTokens)
	if err != nil || strings.TrimSpace(reply) == "" {
		metrics.LLMCallsTotal.WithLabelValues("compose", "error").Inc()
		slog.Warn("compose: model unavailable, using raw tool text", "error", err)
		if result.Text != "" {
			return result.Text
		}
		return fallbackText
	}
	metrics.LLMCallsTotal.WithLabelValues("compose", "ok").Inc()
	return strings.TrimSpace(reply)
}

func (c *Composer) prompt(result tools.Result, userText string, recent []memory.Turn, profile *memory.Profile, known string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a helpful trading community bot. %s\n", c.botName, c.persona)
	if profile != nil && profile.Username != "" {
		fmt.Fprintf(&b, "You are replying to %s.\n", profile.Username)
	}
	if known != "" {
		fmt.Fprintf(&b, "What you know about them:\n%s\n", known)
	}

	start := len(recent) - c.historyN
	if start < 0 {
		start = 0
	}
	if len(recent[start:]) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, t := range recent[start:] {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Text)
		}
	}

	fmt.Fprintf(&b, "Message: %s\n", userText)
	if result.Text != "" {
		fmt.Fprintf(&b, "Tool output to convey: %s\n", result.Text)
		b.WriteString("Rephrase the tool output naturally for chat. Keep every number exactly as given.\n")
	} else if len(result.Data) > 0 {
		fmt.Fprintf(&b, "Tool data: %v\n", result.Data)
		b.WriteString("Summarize this data conversationally.\n")
	} else {
		b.WriteString("Reply conversationally in one or two sentences.\n")
	}
	return b.String()
}
