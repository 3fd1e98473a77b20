package server

import (
	"log/slog"
	"net/http"

	"coords-bot/internal/middleware"
	"coords-bot/internal/relay"
	serverHandlers "coords-bot/internal/server/handlers"
	"coords-bot/internal/shared/config"
	"coords-bot/internal/shared/database"
	"coords-bot/internal/shared/metrics"
)

type Routes struct {
	db         *database.DB
	dispatcher *relay.Dispatcher
	auth       config.AuthConfig
	logger     *slog.Logger
}

func NewRoutes(db *database.DB, dispatcher *relay.Dispatcher, auth config.AuthConfig, logger *slog.Logger) *Routes {
	return &Routes{
		db:         db,
		dispatcher: dispatcher,
		auth:       auth,
		logger:     logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := r.logger.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db)
	commandHandler := serverHandlers.NewCommandHandler(r.dispatcher)

	// Public endpoints
	mux.Handle("/api/server/health", healthHandler)
	mux.Handle("/metrics", metrics.Handler())

	// Relay endpoints
	mux.Handle("/api/commands", middleware.RelayAuth(r.auth)(commandHandler))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/metrics"},
		"relay_endpoints", []string{"/api/commands"},
		"relay_auth", r.auth.Enabled,
	)

	return mux
}
