package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// SQLiteRepository implements Repository on SQLite (3.35+ for RETURNING).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, rec *models.RefreshRecord) (*models.RefreshRecord, error) {
	query := `
		INSERT INTO refresh_tokens (account_id, device_id, login_method, token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, device_id, login_method)
		DO UPDATE SET token = excluded.token, expires_at = excluded.expires_at, updated_at = excluded.updated_at
		RETURNING id, created_at
	`
	now := dbx.FormatSQLiteTime(rec.UpdatedAt)
	err := r.db.QueryRowContext(ctx, query,
		rec.AccountID, rec.DeviceID, rec.LoginMethod, rec.Token, dbx.FormatSQLiteTime(rec.ExpiresAt), now, now).
		Scan(&rec.ID, dbx.SQLiteTime{T: &rec.CreatedAt})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Find(ctx context.Context, accountID int64, deviceID, loginMethod string) (*models.RefreshRecord, error) {
	query := `
		SELECT id, token, expires_at, created_at, updated_at
		FROM refresh_tokens
		WHERE account_id = ? AND device_id = ? AND login_method = ?
	`
	rec := &models.RefreshRecord{AccountID: accountID, DeviceID: deviceID, LoginMethod: loginMethod}
	err := r.db.QueryRowContext(ctx, query, accountID, deviceID, loginMethod).
		Scan(&rec.ID, &rec.Token,
			dbx.SQLiteTime{T: &rec.ExpiresAt}, dbx.SQLiteTime{T: &rec.CreatedAt}, dbx.SQLiteTime{T: &rec.UpdatedAt})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, accountID int64, deviceID, loginMethod string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE account_id = ? AND device_id = ? AND login_method = ?
	`
	if _, err := r.db.ExecContext(ctx, query, accountID, deviceID, loginMethod); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByAccount(ctx context.Context, accountID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE account_id = ?`, accountID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
