package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"

	appErrors "github.com/ZeroZenx/COSTAATT-Student-Document-Upload-System-sub001/pkg/errors"
)

// MemoryStore is an in-process ObjectStore used by tests and local
// development. Failure fields let tests simulate an unreachable store.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	FailPuts    bool
	FailGets    bool
	FailDeletes bool
	FailVerify  bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(ctx context.Context, key string, r io.Reader) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	if m.FailPuts {
		return ObjectInfo{}, appErrors.Clone(appErrors.ErrStorageUnavailable, "")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ObjectInfo{}, err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()

	sniff := data
	if len(sniff) > 512 {
		sniff = sniff[:512]
	}
	return ObjectInfo{Key: key, Size: int64(len(data)), MimeType: http.DetectContentType(sniff)}, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.FailGets {
		return nil, appErrors.Clone(appErrors.ErrStorageUnavailable, "")
	}
	m.mu.Lock()
	data, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "stored document not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailDeletes {
		return appErrors.Clone(appErrors.ErrStorageUnavailable, "")
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Verify(ctx context.Context) (Identity, error) {
	if m.FailVerify {
		return Identity{}, appErrors.Clone(appErrors.ErrStorageUnavailable, "")
	}
	return Identity{Account: "in-memory"}, nil
}

// Len reports how many blobs are currently stored.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// Has reports whether a blob exists for the key.
func (m *MemoryStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

var _ ObjectStore = (*MemoryStore)(nil)
