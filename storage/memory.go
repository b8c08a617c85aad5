package storage

import (
	"context"
	"sync"

	"github.com/pastebit/pastebit/models"
)

// MemoryStore implements PasteStore with an in-process map. It exists
// for tests and local development; nothing about the consume protocol
// depends on its single-process nature.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory storage backend.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Put writes a paste record.
func (m *MemoryStore) Put(ctx context.Context, paste *models.Paste) error {
	data, err := models.EncodePaste(paste)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[Key(paste.ID)] = data
	return nil
}

// Get retrieves a paste by its id.
func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Paste, error) {
	m.mu.Lock()
	data, ok := m.entries[Key(id)]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return models.DecodePaste(data)
}

// CompareAndSwap replaces the record if its stored version matches.
func (m *MemoryStore) CompareAndSwap(ctx context.Context, id string, expectedVersion int64, paste *models.Paste) (bool, error) {
	data, err := models.EncodePaste(paste)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.entries[Key(id)]
	if !ok {
		return false, nil
	}
	stored, err := models.DecodePaste(current)
	if err != nil {
		return false, err
	}
	if stored.Version != expectedVersion {
		return false, nil
	}
	m.entries[Key(id)] = data
	return true, nil
}

// Delete removes a paste.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, Key(id))
	return nil
}

// Ping is a no-op for the in-memory backend.
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op for the in-memory backend.
func (m *MemoryStore) Close() error { return nil }

// Len reports how many records are stored. Test helper.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// PutRaw stores an arbitrary value under a paste key, bypassing the
// codec. Tests use it to simulate corrupted records.
func (m *MemoryStore) PutRaw(id string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[Key(id)] = data
}
