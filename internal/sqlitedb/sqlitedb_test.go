// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sqlitedb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesFileAndDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "alergias.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, path)

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestExecAndTableExists(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	ok, err := TableExists(ctx, db, "widgets")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Exec(ctx, db, []string{
		`CREATE TABLE IF NOT EXISTS widgets (id INTEGER PRIMARY KEY)`,
		`CREATE INDEX IF NOT EXISTS idx_widgets ON widgets(id)`,
	}))
	ok, err = TableExists(ctx, db, "widgets")
	require.NoError(t, err)
	assert.True(t, ok)

	err = Exec(ctx, db, []string{`CREATE TABL broken`})
	assert.Error(t, err)
}
