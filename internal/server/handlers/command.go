package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"coords-bot/internal/middleware"
	"coords-bot/internal/relay"
	"coords-bot/internal/shared/errors"
	"coords-bot/internal/shared/response"
)

const httpTransport = "http"

type CommandHandler struct {
	dispatcher *relay.Dispatcher
}

func NewCommandHandler(dispatcher *relay.Dispatcher) *CommandHandler {
	return &CommandHandler{dispatcher: dispatcher}
}

func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "command", "request_id", middleware.GetRequestID(ctx))
	if claims := middleware.GetRelayFromContext(r); claims != nil {
		logger = logger.With("relay", claims.Relay)
	}

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req relay.Request
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid JSON in request body", err))
		return
	}

	resp, err := h.dispatcher.Dispatch(ctx, httpTransport, req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, resp)
}
