package storage

import (
	"context"
	"io"
)

// ObjectInfo describes a blob after the store has acknowledged the write.
type ObjectInfo struct {
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// Identity reports the account the store authenticates us as.
type Identity struct {
	Account string `json:"account"`
	ARN     string `json:"arn,omitempty"`
}

// ObjectStore is the contract every blob operation goes through. All calls
// are fallible; a write counts as durable only once Put returns without
// error. Implementations retry transient failures a bounded number of times
// and map anything unrecoverable to a STORAGE_UNAVAILABLE domain error.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Verify(ctx context.Context) (Identity, error)
}
