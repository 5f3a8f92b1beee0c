package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trademaster-labs/trademaster/internal/intent"
	"github.com/trademaster-labs/trademaster/internal/memory"
	"github.com/trademaster-labs/trademaster/internal/trading"
)

// TradeTool handles trade_log and trade_summary.
type TradeTool struct {
	trades *trading.Service
	mem    *memory.Service
}

func NewTradeTool(trades *trading.Service, mem *memory.Service) *TradeTool {
	return &TradeTool{trades: trades, mem: mem}
}

func (t *TradeTool) Name() string { return "trading" }

func (t *TradeTool) Process(ctx context.Context, req Request) (Result, error) {
	switch req.Intent.Kind {
	case intent.TradeLog:
		return t.log(ctx, req)
	case intent.TradeSummary:
		return t.summary(ctx, req)
	default:
		return Result{}, fmt.Errorf("trade tool cannot handle %s", req.Intent.Kind)
	}
}

func (t *TradeTool) log(ctx context.Context, req Request) (Result, error) {
	p := req.Intent.Params
	trade, stats, err := t.trades.LogTrade(ctx, req.UserID, trading.Trade{
		Type:      p.TradeType,
		Symbol:    p.Symbol,
		Amount:    p.Amount,
		BuyPrice:  p.BuyPrice,
		SellPrice: p.SellPrice,
	})
	if err != nil {
		return Result{}, err
	}

	if t.mem != nil {
		item := memory.Item{
			UserID:     req.UserID,
			Kind:       memory.KindInteraction,
			Topic:      "trade:" + trade.Symbol,
			Content:    fmt.Sprintf("last %s: %.4g %s", trade.Type, trade.Amount, trade.Symbol),
			Importance: 2,
		}
		if err := t.mem.AddItem(ctx, item); err != nil {
			slog.Warn("trade tool: memory item not saved", "user_id", req.UserID, "error", err)
		}
	}

	var b strings.Builder
	if trade.Realized {
		verb := "profit"
		if trade.ProfitLoss < 0 {
			verb = "loss"
		}
		fmt.Fprintf(&b, "Logged: sold %.4g %s at $%.2f for a %s of $%.2f (%+.2f%%).",
			trade.Amount, trade.Symbol, trade.SellPrice, verb, abs(trade.ProfitLoss), trade.ProfitLossPct)
		if stats != nil {
			fmt.Fprintf(&b, " Win rate now %.0f%% over %d trades.", stats.WinRate(), stats.TotalTrades)
		}
		if critique := t.trades.Critique(ctx, *trade); critique != "" {
			b.WriteString(" ")
			b.WriteString(critique)
		}
	} else {
		fmt.Fprintf(&b, "Logged: %s %.4g %s at $%.2f.", trade.Type, trade.Amount, trade.Symbol, entryPrice(trade))
	}

	return Result{
		Text: b.String(),
		Data: map[string]any{"symbol": trade.Symbol, "type": trade.Type, "realized": trade.Realized},
	}, nil
}

func (t *TradeTool) summary(ctx context.Context, req Request) (Result, error) {
	stats, recent, err := t.trades.Summary(ctx, req.UserID)
	if err != nil {
		return Result{}, err
	}
	if stats == nil && len(recent) == 0 {
		return Result{Text: "No trades on record yet. Log one like \"bought 1 BTC at $45,000\"."}, nil
	}

	var b strings.Builder
	if stats != nil {
		fmt.Fprintf(&b, "%d realized trades, %.0f%% win rate, avg %+.2f%% per trade.",
			stats.TotalTrades, stats.WinRate(), stats.AvgProfitPct)
		if stats.LargestWinPct > 0 {
			fmt.Fprintf(&b, " Best: %+.2f%%.", stats.LargestWinPct)
		}
		if stats.LargestLossPct < 0 {
			fmt.Fprintf(&b, " Worst: %+.2f%%.", stats.LargestLossPct)
		}
	} else {
		b.WriteString("No realized trades yet, but your journal has open entries.")
	}
	return Result{Text: b.String()}, nil
}

func entryPrice(t *trading.Trade) float64 {
	if t.Type == trading.TypeSell {
		return t.SellPrice
	}
	return t.BuyPrice
}
