package database

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRunsMigrations(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{
		"raw_matches", "players", "player_mappings", "tournaments", "matches", "elo_history",
	} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening an already-migrated database is a no-op.
	db, err = Open(path, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}

func TestNewPlayerDefaultsToBaseline(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO players (name) VALUES ('Ada')`)
	require.NoError(t, err)

	var elo int
	require.NoError(t, db.QueryRow(`SELECT current_elo FROM players WHERE name = 'Ada'`).Scan(&elo))
	assert.Equal(t, 450, elo)
}
