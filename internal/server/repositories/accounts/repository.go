// Package accounts declares the server-side repository contract for user
// accounts together with its PostgreSQL and SQLite implementations.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository persists accounts. Timestamps are supplied by the caller.
type Repository interface {
	// Create inserts a and fills its ID. A duplicate email yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, a *models.Account) (*models.Account, error)

	// FindByEmail returns the account with exactly this email or common.ErrorNotFound.
	FindByEmail(ctx context.Context, email string) (*models.Account, error)

	// FindByID returns the account or common.ErrorNotFound.
	FindByID(ctx context.Context, id int64) (*models.Account, error)

	// Update writes name, password hash and updated_at of a.
	// common.ErrorNotFound when the account is gone.
	Update(ctx context.Context, a *models.Account) (*models.Account, error)

	// Delete removes the account; its refresh records go with it.
	// common.ErrorNotFound when nothing was deleted.
	Delete(ctx context.Context, id int64) error
}
