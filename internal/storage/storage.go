package storage

import (
	"context"
	"io"
)

// Storage is the blob side of the content store.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	PublicURL(key string) string
}
