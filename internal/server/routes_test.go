package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coords-bot/internal/alliance"
	"coords-bot/internal/auth"
	"coords-bot/internal/command"
	"coords-bot/internal/dedupe"
	"coords-bot/internal/planet"
	"coords-bot/internal/player"
	"coords-bot/internal/relay"
	"coords-bot/internal/shared/config"
	"coords-bot/internal/shared/database/dbtest"
	"coords-bot/internal/shared/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestServer(t *testing.T, authCfg config.AuthConfig) *httptest.Server {
	t.Helper()

	db := dbtest.Open(t)
	logger := slog.New(slog.DiscardHandler)
	service := command.NewService(db,
		alliance.NewRepository(db, logger),
		player.NewRepository(db, logger),
		planet.NewRepository(db, logger),
		config.BotConfig{Prefix: "!", Name: "CoordsBot"},
		logger,
	)
	dispatcher := relay.NewDispatcher(service, dedupe.NewMemoryStore(time.Minute), "!", logger)

	srv := httptest.NewServer(NewRoutes(db, dispatcher, authCfg, logger).Setup())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/commands", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestCommandsEndpoint(t *testing.T) {
	srv := newTestServer(t, config.AuthConfig{})

	resp := post(t, srv, `{"content":"!add alice 2 123 5 9400","interaction_id":"i-1"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = post(t, srv, `{"command":"get","args":["ALICE"]}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out relay.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "get", out.Command)
	assert.Equal(t, "success", out.Kind)
	assert.Contains(t, out.Text, "2:123:5 - Moon: 9400")
	require.NotNil(t, out.Embed)
	assert.Equal(t, "**alice**", out.Embed.Title)

	t.Run("duplicate delivery", func(t *testing.T) {
		resp := post(t, srv, `{"content":"!add alice 2 123 5 9400","interaction_id":"i-1"}`, "")
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("argument error", func(t *testing.T) {
		resp := post(t, srv, `{"command":"add","args":["alice"]}`, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errResp response.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		assert.Equal(t, "validation", errResp.Error)
		assert.Contains(t, errResp.Message, "invalid argument count")
	})

	t.Run("bad json", func(t *testing.T) {
		resp := post(t, srv, `{`, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, err := srv.Client().Get(srv.URL + "/api/commands")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestCommandsEndpoint_RelayAuth(t *testing.T) {
	srv := newTestServer(t, config.AuthConfig{Enabled: true, RelaySecret: testSecret})

	resp := post(t, srv, `{"command":"info"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := auth.GenerateRelayToken(testSecret, "discord", time.Hour)
	require.NoError(t, err)
	resp = post(t, srv, `{"command":"info"}`, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, config.AuthConfig{})

	resp, err := srv.Client().Get(srv.URL + "/api/server/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	post(t, srv, `{"command":"info"}`, "")

	metricsResp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}
