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

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.RefreshRecord) (*models.RefreshRecord, error) {
	query := `
		INSERT INTO refresh_tokens (account_id, device_id, login_method, token, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (account_id, device_id, login_method)
		DO UPDATE SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.AccountID, rec.DeviceID, rec.LoginMethod, rec.Token, rec.ExpiresAt, rec.UpdatedAt).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Find(ctx context.Context, accountID int64, deviceID, loginMethod string) (*models.RefreshRecord, error) {
	query := `
		SELECT id, token, expires_at, created_at, updated_at
		FROM refresh_tokens
		WHERE account_id = $1 AND device_id = $2 AND login_method = $3
	`
	rec := &models.RefreshRecord{AccountID: accountID, DeviceID: deviceID, LoginMethod: loginMethod}
	err := r.db.QueryRowContext(ctx, query, accountID, deviceID, loginMethod).
		Scan(&rec.ID, &rec.Token, &rec.ExpiresAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, accountID int64, deviceID, loginMethod string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE account_id = $1 AND device_id = $2 AND login_method = $3
	`
	if _, err := r.db.ExecContext(ctx, query, accountID, deviceID, loginMethod); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByAccount(ctx context.Context, accountID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
