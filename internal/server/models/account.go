// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is a registered user. Email is unique and compared as stored.
type Account struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
