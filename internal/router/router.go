package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trademaster-labs/trademaster/internal/bus"
	"github.com/trademaster-labs/trademaster/internal/compose"
	"github.com/trademaster-labs/trademaster/internal/gate"
	"github.com/trademaster-labs/trademaster/internal/intent"
	"github.com/trademaster-labs/trademaster/internal/memory"
	"github.com/trademaster-labs/trademaster/internal/metrics"
	"github.com/trademaster-labs/trademaster/internal/tools"
)

// resetAck is sent in reply to the reset command.
const resetAck = "Fresh start. I've cleared our conversation history here."

// SendFunc delivers the final reply to the transport.
type SendFunc func(ctx context.Context, out bus.OutboundMessage) error

// Router runs the per-message pipeline: gate, context fetch, classification,
// tool dispatch, composition, persistence, outbound send. Message processing
// is serialized per channel so turn order matches arrival order.
type Router struct {
	gate       *gate.Gate
	mem        *memory.Service
	classifier *intent.Classifier
	dispatcher *tools.Dispatcher
	composer   *compose.Composer
	send       SendFunc

	commandPrefix string
	contextWindow int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type Options struct {
	Gate          *gate.Gate
	Memory        *memory.Service
	Classifier    *intent.Classifier
	Dispatcher    *tools.Dispatcher
	Composer      *compose.Composer
	Send          SendFunc
	CommandPrefix string
	ContextWindow int
}

func New(opts Options) *Router {
	window := opts.ContextWindow
	if window <= 0 {
		window = 10
	}
	prefix := opts.CommandPrefix
	if prefix == "" {
		prefix = "/tm"
	}
	return &Router{
		gate:          opts.Gate,
		mem:           opts.Memory,
		classifier:    opts.Classifier,
		dispatcher:    opts.Dispatcher,
		composer:      opts.Composer,
		send:          opts.Send,
		commandPrefix: prefix,
		contextWindow: window,
		locks:         make(map[string]*sync.Mutex),
	}
}

// OnMessage processes one inbound message to completion. Failures along the
// pipeline degrade stage by stage; nothing propagates out of the router.
func (r *Router) OnMessage(ctx context.Context, msg bus.InboundMessage) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	lock := r.channelLock(msg.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	if r.isResetCommand(msg.Text) {
		r.reset(ctx, msg)
		return
	}

	decision := r.gate.ShouldRespond(ctx, msg.ChannelID, msg.Text, msg.DirectlyAddressed)
	if !decision.Respond {
		metrics.MessagesProcessedTotal.WithLabelValues("ignored").Inc()
		return
	}

	profile, err := r.mem.GetOrCreateProfile(ctx, msg.UserID, msg.Username, time.Now().UTC())
	if err != nil {
		slog.Warn("router: profile unavailable", "user_id", msg.UserID, "error", err)
		profile = nil
	}

	recent, err := r.mem.RecentContext(ctx, msg.ChannelID, r.contextWindow)
	if err != nil {
		if errors.Is(err, memory.ErrStorageUnavailable) {
			slog.Warn("router: context unavailable, continuing stateless", "channel_id", msg.ChannelID, "error", err)
		} else {
			slog.Error("router: context fetch failed", "channel_id", msg.ChannelID, "error", err)
		}
		recent = nil
	}

	classified := r.classifier.Classify(ctx, msg.Text, recent)

	result := r.dispatcher.Dispatch(ctx, tools.Request{
		Intent:    classified,
		UserID:    msg.UserID,
		ChannelID: msg.ChannelID,
		Username:  msg.Username,
		Context:   recent,
		Profile:   profile,
	})

	reply := r.composer.Compose(ctx, result, msg.Text, recent, profile)
	if strings.TrimSpace(reply) == "" {
		metrics.MessagesProcessedTotal.WithLabelValues("empty").Inc()
		return
	}

	r.persist(ctx, msg, reply)
	r.deliver(ctx, msg, reply)
	metrics.MessagesProcessedTotal.WithLabelValues("replied").Inc()
}

func (r *Router) reset(ctx context.Context, msg bus.InboundMessage) {
	if err := r.mem.ClearChannel(ctx, msg.ChannelID, msg.UserID); err != nil {
		slog.Error("router: reset failed", "channel_id", msg.ChannelID, "error", err)
		r.deliver(ctx, msg, "I couldn't clear the history just now. Try again in a moment.")
		metrics.MessagesProcessedTotal.WithLabelValues("reset_failed").Inc()
		return
	}
	r.deliver(ctx, msg, resetAck)
	metrics.MessagesProcessedTotal.WithLabelValues("reset").Inc()
}

func (r *Router) persist(ctx context.Context, msg bus.InboundMessage, reply string) {
	now := time.Now().UTC()
	turns := []memory.Turn{
		{ChannelID: msg.ChannelID, UserID: msg.UserID, Role: memory.RoleUser, Text: msg.Text, Timestamp: now},
		{ChannelID: msg.ChannelID, UserID: msg.UserID, Role: memory.RoleBot, Text: reply, Timestamp: now},
	}
	for _, turn := range turns {
		if err := r.mem.AppendTurn(ctx, turn); err != nil {
			slog.Warn("router: turn not persisted", "channel_id", msg.ChannelID, "role", turn.Role, "error", err)
		}
	}
	if err := r.mem.TouchProfile(ctx, msg.UserID, now); err != nil {
		slog.Warn("router: profile touch failed", "user_id", msg.UserID, "error", err)
	}
}

// deliver sends the reply. A transport failure is logged and the message is
// dropped; there is no retry inside the pipeline.
func (r *Router) deliver(ctx context.Context, msg bus.InboundMessage, reply string) {
	if r.send == nil {
		return
	}
	out := bus.OutboundMessage{
		ID:        uuid.NewString(),
		ChannelID: msg.ChannelID,
		Text:      reply,
		InReplyTo: msg.ID,
	}
	if err := r.send(ctx, out); err != nil {
		slog.Error("router: reply not delivered", "channel_id", msg.ChannelID, "error", err)
		metrics.MessagesProcessedTotal.WithLabelValues("send_failed").Inc()
	}
}

func (r *Router) isResetCommand(text string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(text))
	return trimmed == r.commandPrefix+" reset" || trimmed == "/reset"
}

func (r *Router) channelLock(channelID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[channelID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[channelID] = lock
	}
	return lock
}
