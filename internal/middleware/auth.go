package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"coords-bot/internal/auth"
	"coords-bot/internal/shared/config"
	"coords-bot/internal/shared/errors"
	"coords-bot/internal/shared/response"
)

type contextKey string

const RelayContextKey contextKey = "relay"

// RelayAuth requires a bearer token minted for a chat relay. It is a no-op
// when relay auth is disabled.
func RelayAuth(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := slog.With(
				"middleware", "relay_auth",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			logger.Debug("Processing relay authentication")

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				response.Error(w, r, logger, errors.Unauthorized("authentication required"))
				return
			}

			claims, err := auth.ValidateRelayToken(cfg.RelaySecret, strings.TrimSpace(token))
			if err != nil {
				logger.Debug("Relay token rejected", "error", err)
				response.Error(w, r, logger, errors.Unauthorized("invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), RelayContextKey, claims)
			logger.Debug("Relay authentication successful", "relay", claims.Relay)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRelayFromContext returns the authenticated relay, or nil when auth is
// disabled.
func GetRelayFromContext(r *http.Request) *auth.RelayClaims {
	if claims, ok := r.Context().Value(RelayContextKey).(*auth.RelayClaims); ok {
		return claims
	}
	return nil
}
