package wallet

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trademaster-labs/trademaster/internal/api"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List returns the wallets a user is tracking.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	wallets, err := h.svc.List(r.Context(), userID)
	if err != nil {
		slog.Error("listing wallets", "user_id", userID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if wallets == nil {
		wallets = []TrackedWallet{}
	}
	api.JSON(w, http.StatusOK, wallets)
}
