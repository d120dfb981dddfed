package client

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/gophauth/internal/client/migrations"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const (
	keyEmail        = "email"
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

// Session is what the CLI remembers between runs.
type Session struct {
	Email        string
	AccessToken  string
	RefreshToken string
}

// SessionStore keeps the current Session in a local SQLite file.
type SessionStore struct {
	db *sql.DB
}

// OpenSessionStore opens (creating if needed) the session file at path and
// applies its migrations.
func OpenSessionStore(ctx context.Context, path string) (*SessionStore, error) {
	db, err := sql.Open("sqlite", dbx.SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate session file: %w", err)
	}

	return &SessionStore{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	sub, err := fs.Sub(migrations.Migrations, ".")
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, sub)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

// Load returns the saved session; ok is false when none is saved.
func (s *SessionStore) Load(ctx context.Context) (Session, bool, error) {
	values, err := metadata.NewSQLiteRepository(s.db).GetMany(ctx, keyEmail, keyAccessToken, keyRefreshToken)
	if err != nil {
		return Session{}, false, err
	}

	sess := Session{
		Email:        values[keyEmail],
		AccessToken:  values[keyAccessToken],
		RefreshToken: values[keyRefreshToken],
	}
	return sess, sess.RefreshToken != "", nil
}

// Save replaces the saved session atomically.
func (s *SessionStore) Save(ctx context.Context, sess Session) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keyEmail, sess.Email); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyAccessToken, sess.AccessToken); err != nil {
			return err
		}
		return repo.Set(ctx, keyRefreshToken, sess.RefreshToken)
	})
}

// Clear forgets the saved session.
func (s *SessionStore) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).Clear(ctx)
}
