package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"coords-bot/internal/auth"
	"coords-bot/internal/command"
	"coords-bot/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", filepath.Join(t.TempDir(), "coords.db"))
}

func TestRunCommand(t *testing.T) {
	useSQLite(t)

	out, err := execute(t, "run", "add", "alice", "2", "123", "5", "9400")
	require.NoError(t, err)
	assert.Equal(t, "Added planet 2:123:5 - Moon: 9400 to alice planets\n", out)

	out, err = execute(t, "run", "get", "alice", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Kind  string `json:"kind"`
		Embed struct {
			Title string `json:"title"`
		} `json:"embed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "success", resp.Kind)
	assert.Equal(t, "**alice**", resp.Embed.Title)

	_, err = execute(t, "run", "add", "alice")
	assert.Error(t, err)

	_, err = execute(t, "run", "info", "--format", "xml")
	assert.Error(t, err)
}

func TestMigrateCommand(t *testing.T) {
	useSQLite(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "Migrations applied (sqlite)\n", out)
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("RELAY_AUTH_ENABLED", "true")
	t.Setenv("RELAY_SECRET", testSecret)

	out, err := execute(t, "token", "--relay", "discord", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := auth.ValidateRelayToken(testSecret, strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "discord", claims.Relay)

	_, err = execute(t, "token")
	assert.Error(t, err, "relay flag is required")
}

func TestWriteResult_YAML(t *testing.T) {
	result := &command.Result{
		Command: "members",
		Kind:    command.KindSuccess,
		Report:  report.AllianceReport{Name: "x", Members: []string{"amy", "zara"}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, formatYAML, result))

	var decoded struct {
		Command string `yaml:"command"`
		Report  struct {
			Members []string `yaml:"members"`
		} `yaml:"report"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "members", decoded.Command)
	assert.Equal(t, []string{"amy", "zara"}, decoded.Report.Members)
}
