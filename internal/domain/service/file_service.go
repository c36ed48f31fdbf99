package service

import (
	"context"
)

// BlobStore turns uploaded bytes into a public URL. Image contents are never inspected.
type BlobStore interface {
	Store(ctx context.Context, data []byte, path, contentType string) (string, error)
	Delete(ctx context.Context, fileURL string) error
	Close() error
}
