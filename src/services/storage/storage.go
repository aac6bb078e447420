package storage

import (
	"context"
	"io"
)

// ObjectStorage is the object-storage collaborator. Evidence files and
// generated archives live there; the portal only stores their keys.
type ObjectStorage interface {
	PutSignedURL(ctx context.Context, key, contentType string) (string, error)
	GetSignedURL(ctx context.Context, key string) (string, error)
	// DeleteObjects removes every key or reports an error; callers treat any
	// error as "nothing is guaranteed deleted".
	DeleteObjects(ctx context.Context, keys []string) error
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	// PutObject streams body until EOF; the length need not be known up front.
	PutObject(ctx context.Context, key string, body io.Reader, contentType string) error
}
