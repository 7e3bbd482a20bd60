package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"slices"
	"sync"
)

// MemStore is the in-memory Store. It is the reference implementation for
// the conditional-write contract and the test double for everything above
// the storage boundary.
type MemStore struct {
	mu   sync.Mutex
	docs map[string]memDoc
}

type memDoc struct {
	data []byte
	etag string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]memDoc)}
}

func (m *MemStore) Get(_ context.Context, id string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, "", ErrNotFound
	}
	return slices.Clone(doc.data), doc.etag, nil
}

func (m *MemStore) Put(_ context.Context, id string, data []byte, expectedEtag string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, exists := m.docs[id]
	switch {
	case expectedEtag == "" && exists:
		return "", ErrExists
	case expectedEtag != "" && !exists:
		return "", ErrNotFound
	case expectedEtag != "" && cur.etag != expectedEtag:
		return "", ErrStale
	}

	etag := newEtag()
	m.docs[id] = memDoc{data: slices.Clone(data), etag: etag}
	return etag, nil
}

func newEtag() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("store: etag entropy unavailable: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}
