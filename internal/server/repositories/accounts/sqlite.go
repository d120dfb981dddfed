package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// SQLiteRepository stores timestamps as UTC text, see dbx.FormatSQLiteTime.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (email, name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		a.Email, a.Name, a.PasswordHash,
		dbx.FormatSQLiteTime(a.CreatedAt), dbx.FormatSQLiteTime(a.UpdatedAt)).Scan(&a.ID)
	if err != nil {
		return nil, mapError(err)
	}

	return a, nil
}

func (r *SQLiteRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, email, name, password_hash, created_at, updated_at FROM accounts
		 WHERE email = ?
		 `

	return r.scanOne(ctx, query, email)
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	query :=
		`SELECT id, email, name, password_hash, created_at, updated_at FROM accounts
		 WHERE id = ?
		 `

	return r.scanOne(ctx, query, id)
}

func (r *SQLiteRepository) scanOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	a := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash,
			dbx.SQLiteTime{T: &a.CreatedAt}, dbx.SQLiteTime{T: &a.UpdatedAt})
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, a *models.Account) (*models.Account, error) {
	query :=
		`UPDATE accounts SET name = ?, password_hash = ?, updated_at = ?
		 WHERE id = ?
		 `

	res, err := r.db.ExecContext(ctx, query, a.Name, a.PasswordHash, dbx.FormatSQLiteTime(a.UpdatedAt), a.ID)
	if err != nil {
		return nil, mapError(err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}

	return a, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireAffected(res)
}
