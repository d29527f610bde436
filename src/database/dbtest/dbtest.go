// Package dbtest provides migrated in-memory databases for package tests.
package dbtest

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/username/riconcilia/src/database"
)

// New returns an in-memory SQLite database with the full schema applied.
func New(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// AddInstallation registers an installation and returns its id.
func AddInstallation(t testing.TB, db *sql.DB, posCode, name string) int64 {
	t.Helper()

	res, err := db.Exec(`INSERT INTO impianti (codice_pv_fortech, nome, tipo_gestione, attivo) VALUES (?, ?, 'diretta', 1)`, posCode, name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
