package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trademaster-labs/trademaster/internal/intent"
	"github.com/trademaster-labs/trademaster/internal/memory"
	"github.com/trademaster-labs/trademaster/internal/wallet"
)

// WalletTool handles wallet_track and wallet_query.
type WalletTool struct {
	wallets *wallet.Service
	mem     *memory.Service
}

func NewWalletTool(wallets *wallet.Service, mem *memory.Service) *WalletTool {
	return &WalletTool{wallets: wallets, mem: mem}
}

func (t *WalletTool) Name() string { return "wallet" }

func (t *WalletTool) Process(ctx context.Context, req Request) (Result, error) {
	switch req.Intent.Kind {
	case intent.WalletTrack:
		return t.track(ctx, req)
	case intent.WalletQuery:
		return t.query(ctx, req)
	default:
		return Result{}, fmt.Errorf("wallet tool cannot handle %s", req.Intent.Kind)
	}
}

func (t *WalletTool) track(ctx context.Context, req Request) (Result, error) {
	p := req.Intent.Params
	w, created, err := t.wallets.Track(ctx, req.UserID, req.ChannelID, p.WalletAddress, p.Network)
	if err != nil {
		return Result{}, err
	}
	if !created {
		return Result{
			Text: fmt.Sprintf("That wallet (%s on %s) is already on my watchlist.", shortAddr(p.WalletAddress), w.Network),
			Data: map[string]any{"address": p.WalletAddress, "network": w.Network, "created": false},
		}, nil
	}

	if t.mem != nil {
		item := memory.Item{
			UserID:     req.UserID,
			Kind:       memory.KindFact,
			Topic:      "wallet:" + w.Address,
			Content:    fmt.Sprintf("tracks wallet %s on %s", w.Address, w.Network),
			Importance: 3,
		}
		if err := t.mem.AddItem(ctx, item); err != nil {
			slog.Warn("wallet tool: memory item not saved", "user_id", req.UserID, "error", err)
		}
	}
	return Result{
		Text: fmt.Sprintf("Now watching %s on %s. I'll keep an eye on it.", shortAddr(w.Address), w.Network),
		Data: map[string]any{"address": w.Address, "network": w.Network, "created": true},
	}, nil
}

func (t *WalletTool) query(ctx context.Context, req Request) (Result, error) {
	p := req.Intent.Params
	sum, err := t.wallets.Lookup(ctx, p.WalletAddress, p.Network)
	if err != nil {
		return Result{}, err
	}

	unit := "ETH"
	if sum.Network == "bsc" {
		unit = "BNB"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s on %s holds %.4f %s.", shortAddr(sum.Address), sum.Network, sum.Balance, unit)
	if len(sum.Recent) > 0 {
		fmt.Fprintf(&b, " Last activity: %.4f %s on %s.",
			sum.Recent[0].Amount, unit, sum.Recent[0].Timestamp.Format(time.DateOnly))
	}
	return Result{
		Text: b.String(),
		Data: map[string]any{"address": sum.Address, "network": sum.Network, "balance": sum.Balance},
	}, nil
}

func shortAddr(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
