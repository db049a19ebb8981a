package settings

import (
	"context"
	"io"
)

// Repository defines company settings storage operations.
type Repository interface {
	// Get retrieves the current user's settings.
	Get(ctx context.Context) (*CompanySettings, error)

	// Upsert inserts or replaces the current user's settings row.
	Upsert(ctx context.Context, s *CompanySettings) error
}

// FileStore persists uploaded binaries and serves them back by URL.
type FileStore interface {
	// Save stores the content under a key and returns its public URL.
	Save(ctx context.Context, key string, contentType string, r io.Reader) (string, error)

	// Remove deletes a stored object; missing objects are not an error.
	Remove(ctx context.Context, key string) error
}
