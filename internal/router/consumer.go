package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/trademaster-labs/trademaster/internal/bus"
)

const (
	consumerName = "router-inbound"

	// fetchRetryWait throttles the loop when Fetch itself errors, so a
	// broken stream does not turn into a hot retry loop.
	fetchRetryWait = 2 * time.Second
)

// Consumer pulls inbound chat messages off the stream and feeds them through
// the router one at a time, preserving arrival order within the batch.
type Consumer struct {
	router  *Router
	manager *bus.ConsumerManager
}

func NewConsumer(router *Router, manager *bus.ConsumerManager) *Consumer {
	return &Consumer{router: router, manager: manager}
}

// Run blocks until ctx is cancelled. Malformed messages are acked and
// dropped; processing failures never stop the loop.
func (c *Consumer) Run(ctx context.Context) error {
	consumer, err := c.manager.EnsureConsumer(ctx, bus.StreamMessages, consumerName, bus.SubjectInboundMessage)
	if err != nil {
		return fmt.Errorf("ensuring inbound consumer: %w", err)
	}
	slog.Info("router: consuming inbound messages", "stream", bus.StreamMessages)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := consumer.Fetch(16, jetstream.FetchMaxWait(bus.FetchTimeout))
		if err != nil {
			slog.Warn("router: fetch failed", "error", err)
			if err := waitRetry(ctx, fetchRetryWait); err != nil {
				return err
			}
			continue
		}
		for m := range batch.Messages() {
			c.handle(ctx, m)
		}
	}
}

func waitRetry(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (c *Consumer) handle(ctx context.Context, m jetstream.Msg) {
	var msg bus.InboundMessage
	if err := json.Unmarshal(m.Data(), &msg); err != nil {
		slog.Error("router: dropping malformed message", "error", err)
		_ = m.Ack()
		return
	}

	c.router.OnMessage(ctx, msg)
	if err := m.Ack(); err != nil {
		slog.Warn("router: ack failed", "message_id", msg.ID, "error", err)
	}
}
