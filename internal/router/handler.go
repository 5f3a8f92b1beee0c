package router

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trademaster-labs/trademaster/internal/api"
	"github.com/trademaster-labs/trademaster/internal/bus"
)

// InjectRequest is the operator-facing payload for feeding a message into
// the pipeline without a chat platform adapter.
type InjectRequest struct {
	ChannelID         string `json:"channel_id" validate:"required"`
	UserID            string `json:"user_id" validate:"required"`
	Username          string `json:"username" validate:"required"`
	Text              string `json:"text" validate:"required,max=4000"`
	DirectlyAddressed bool   `json:"directly_addressed"`
}

type Handler struct {
	publisher *bus.Publisher
	validate  *validator.Validate
}

func NewHandler(publisher *bus.Publisher) *Handler {
	return &Handler{
		publisher: publisher,
		validate:  validator.New(),
	}
}

// Inject publishes an inbound message onto the stream for the consumer to
// process. It acknowledges acceptance, not processing.
func (h *Handler) Inject(w http.ResponseWriter, r *http.Request) {
	var req InjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	msg := bus.InboundMessage{
		ID:                uuid.NewString(),
		ChannelID:         req.ChannelID,
		UserID:            req.UserID,
		Username:          req.Username,
		Text:              req.Text,
		DirectlyAddressed: req.DirectlyAddressed,
		ReceivedAt:        time.Now().UTC(),
	}
	if err := h.publisher.PublishInboundMessage(r.Context(), msg); err != nil {
		slog.Error("injecting message", "channel_id", req.ChannelID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSON(w, http.StatusAccepted, map[string]string{"message_id": msg.ID})
}
