package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trademaster-labs/trademaster/internal/intent"
	"github.com/trademaster-labs/trademaster/internal/metrics"
)

// apologyText is returned verbatim when a handler fails or times out. The
// composer never rephrases it.
const apologyText = "Sorry, I couldn't get that information right now. Give me a minute and try again."

// Dispatcher routes a classified intent to its registered tool handler. A
// handler failure or timeout degrades to an apologetic result; nothing a
// tool does can take the pipeline down.
type Dispatcher struct {
	handlers map[intent.Kind]Tool
	fallback Tool
	timeout  time.Duration
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{
		handlers: make(map[intent.Kind]Tool),
		fallback: NewChatTool(),
		timeout:  timeout,
	}
}

// Register binds a handler to one or more intent kinds.
func (d *Dispatcher) Register(tool Tool, kinds ...intent.Kind) {
	for _, k := range kinds {
		d.handlers[k] = tool
	}
}

// Dispatch invokes the handler for the request's intent. general_chat, none,
// and unregistered kinds route to the default conversational handler.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Result {
	tool, ok := d.handlers[req.Intent.Kind]
	if !ok || req.Intent.Kind == intent.GeneralChat || req.Intent.Kind == intent.None {
		tool = d.fallback
	}

	tctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	result, err := d.invoke(tctx, tool, req)
	if err != nil {
		slog.Warn("tools: handler failed",
			"tool", tool.Name(),
			"intent", req.Intent.Kind.String(),
			"error", err,
		)
		metrics.ToolInvocationsTotal.WithLabelValues(tool.Name(), "error").Inc()
		return Result{Text: apologyText, Success: false}
	}
	metrics.ToolInvocationsTotal.WithLabelValues(tool.Name(), "ok").Inc()
	result.Success = true
	return result
}

// invoke runs the handler in its own goroutine so a hung tool cannot stall
// the pipeline past the timeout, and a panicking tool surfaces as an error.
func (d *Dispatcher) invoke(ctx context.Context, tool Tool, req Request) (Result, error) {
	type outcome struct {
		result Result
		err    error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("handler panic: %v", r)}
			}
		}()
		res, err := tool.Process(ctx, req)
		ch <- outcome{result: res, err: err}
	}()

	select {
	case out := <-ch:
		return out.result, out.err
	case <-ctx.Done():
		return Result{}, fmt.Errorf("handler timeout: %w", ctx.Err())
	}
}
