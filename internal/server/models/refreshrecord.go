package models

import "time"

// LoginMethodPassword tags refresh records issued by an email/password login.
const LoginMethodPassword = "password"

// RefreshRecord is the single live refresh credential for one
// (account, device, login method) triple. Re-login overwrites Token and
// ExpiresAt in place; ID and CreatedAt survive.
type RefreshRecord struct {
	ID          int64
	AccountID   int64
	DeviceID    string
	LoginMethod string
	Token       string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Expired reports whether the record is no longer usable at now.
// The expiry instant itself is still valid.
func (r *RefreshRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
