package storage

import (
	"context"

	"github.com/pastebit/pastebit/models"
)

// KeyPrefix namespaces paste records so they never collide with
// unrelated data in a shared store.
const KeyPrefix = "paste:"

// Key returns the store key for a paste id.
func Key(id string) string {
	return KeyPrefix + id
}

// PasteStore defines the interface for paste storage backends.
//
// Get returns (nil, nil) when the key is absent and
// models.ErrCorruptRecord when the stored value cannot be decoded.
// CompareAndSwap is the one atomic primitive the consume protocol
// relies on: it persists the replacement record only if the stored
// record's version still equals expectedVersion, reporting false when
// another writer got there first (or the record vanished).
type PasteStore interface {
	// Put writes a fully-formed paste record, overwriting any existing
	// value under the same key.
	Put(ctx context.Context, paste *models.Paste) error

	// Get retrieves a paste by its id.
	Get(ctx context.Context, id string) (*models.Paste, error)

	// CompareAndSwap replaces the record for id if its stored version
	// equals expectedVersion. Returns false on version mismatch or
	// missing record, with no write performed.
	CompareAndSwap(ctx context.Context, id string, expectedVersion int64, paste *models.Paste) (bool, error)

	// Delete removes a paste from storage. Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, id string) error

	// Ping checks connectivity to the backend.
	Ping(ctx context.Context) error

	// Close closes the storage connection.
	Close() error
}
