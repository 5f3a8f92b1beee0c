package trading

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trademaster-labs/trademaster/internal/api"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Stats returns the user's running performance record.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	stats, err := h.svc.repo.GetStats(r.Context(), userID)
	if err != nil {
		slog.Error("getting stats", "user_id", userID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if stats == nil {
		api.HandleError(w, api.NewNotFoundError("no realized trades for user"))
		return
	}
	api.JSON(w, http.StatusOK, stats)
}

// Trades returns the user's most recent journal entries.
func (h *Handler) Trades(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	trades, err := h.svc.repo.RecentTrades(r.Context(), userID, limit)
	if err != nil {
		slog.Error("listing trades", "user_id", userID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if trades == nil {
		trades = []Trade{}
	}
	api.JSON(w, http.StatusOK, trades)
}
