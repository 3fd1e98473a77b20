package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"coords-bot/internal/shared/database"
	"coords-bot/internal/shared/errors"
	"coords-bot/internal/shared/response"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
}

type HealthHandler struct {
	db *database.DB
}

func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	status, dbStatus, code := "healthy", "connected", http.StatusOK
	if err := h.db.PingContext(r.Context()); err != nil {
		logger.Warn("Database ping failed", "error", err)
		status, dbStatus, code = "degraded", "disconnected", http.StatusServiceUnavailable
	}

	resp := HealthResponse{
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339),
		Database:  dbStatus,
	}

	response.Success(w, code, resp)
}
