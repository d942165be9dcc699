package storage

import (
	"context"
	"errors"
	"io"
)

var ErrInvalidDataURI = errors.New("invalid image data uri")

// Storage is a blob store holding uploaded post images.
type Storage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	// URL returns the address clients use to fetch key: a public URL for
	// public buckets, otherwise a presigned GET URL.
	URL(ctx context.Context, key string) (string, error)
}
