package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "!", cfg.Bot.Prefix)
	assert.Equal(t, "CoordsBot", cfg.Bot.Name)
	assert.Equal(t, 15*time.Minute, cfg.Dedupe.TTL)
	assert.Equal(t, "coords.commands", cfg.NATS.Subject)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"short relay secret", map[string]string{"RELAY_AUTH_ENABLED": "true", "RELAY_SECRET": "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_DRIVER", "sqlite")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestConnectionString(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/coords")

	cfg := loadDatabaseConfig()
	assert.Equal(t, "postgresql://u:p@db:5432/coords", cfg.ConnectionString())
}
