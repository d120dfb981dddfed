// Package metadata stores string key/value pairs in the client's local
// SQLite file.
package metadata

import (
	"context"
)

type Repository interface {
	// Get reports ok=false for an absent key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// GetMany returns the present keys only.
	GetMany(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
