// Package refreshtokens declares the server-side repository contract for
// per-device refresh records, with PostgreSQL and SQLite implementations.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository stores at most one refresh record per
// (account id, device id, login method).
type Repository interface {
	// Upsert inserts rec or overwrites token, expiry and updated_at of the
	// existing record for the same key, in one statement. rec.UpdatedAt is
	// used as the write time. ID and CreatedAt are filled from the stored row.
	Upsert(ctx context.Context, rec *models.RefreshRecord) (*models.RefreshRecord, error)

	// Find returns the record for the key or common.ErrorNotFound.
	Find(ctx context.Context, accountID int64, deviceID, loginMethod string) (*models.RefreshRecord, error)

	// Delete removes the record for the key. A missing record is not an error.
	Delete(ctx context.Context, accountID int64, deviceID, loginMethod string) error

	// DeleteByAccount removes every record of the account and reports how many.
	DeleteByAccount(ctx context.Context, accountID int64) (int64, error)
}
