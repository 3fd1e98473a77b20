// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"context"
	"testing"

	"coords-bot/internal/shared/database"

	"github.com/stretchr/testify/require"
)

// Open returns a migrated in-memory SQLite database closed at test cleanup.
func Open(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.RunMigrations(context.Background()))
	return db
}
