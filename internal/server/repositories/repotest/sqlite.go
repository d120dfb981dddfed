// Package repotest provides a migrated SQLite database for repository and
// service tests.
package repotest

import (
	"context"
	"database/sql"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// NewSQLite opens a fresh database file under t.TempDir and applies every
// SQLite migration. The handle is closed on cleanup.
func NewSQLite(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", dbx.SQLiteDSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sub, err := fs.Sub(migrations.Migrations, migrations.DirSQLite)
	require.NoError(t, err)

	p, err := goose.NewProvider(goose.DialectSQLite3, db, sub)
	require.NoError(t, err)

	_, err = p.Up(context.Background())
	require.NoError(t, err)

	return db
}
