package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/pastebit/pastebit/models"
)

// FilesystemStore implements PasteStore with one JSON file per paste
// under a data directory. A single mutex serializes every operation,
// which makes CompareAndSwap trivially atomic within the process. Only
// suitable for single-instance deployments; multi-instance setups need
// one of the network backends.
type FilesystemStore struct {
	dataDir string
	mu      sync.Mutex
}

// NewFilesystemStore creates a filesystem storage backend rooted at
// dataDir, creating the directory if needed.
func NewFilesystemStore(dataDir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &FilesystemStore{dataDir: dataDir}, nil
}

func (fs *FilesystemStore) path(id string) string {
	return filepath.Join(fs.dataDir, id+".json")
}

// Put writes a paste record.
func (fs *FilesystemStore) Put(ctx context.Context, paste *models.Paste) error {
	data, err := models.EncodePaste(paste)
	if err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return os.WriteFile(fs.path(paste.ID), data, 0o644)
}

// Get retrieves a paste by its id.
func (fs *FilesystemStore) Get(ctx context.Context, id string) (*models.Paste, error) {
	fs.mu.Lock()
	data, err := os.ReadFile(fs.path(id))
	fs.mu.Unlock()
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return models.DecodePaste(data)
}

// CompareAndSwap replaces the record if its stored version matches.
func (fs *FilesystemStore) CompareAndSwap(ctx context.Context, id string, expectedVersion int64, paste *models.Paste) (bool, error) {
	data, err := models.EncodePaste(paste)
	if err != nil {
		return false, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	current, err := os.ReadFile(fs.path(id))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	stored, err := models.DecodePaste(current)
	if err != nil {
		return false, err
	}
	if stored.Version != expectedVersion {
		return false, nil
	}
	if err := os.WriteFile(fs.path(id), data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a paste. A missing file is not an error.
func (fs *FilesystemStore) Delete(ctx context.Context, id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	err := os.Remove(fs.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Ping verifies the data directory is still accessible.
func (fs *FilesystemStore) Ping(ctx context.Context) error {
	_, err := os.Stat(fs.dataDir)
	return err
}

// Close is a no-op for the filesystem backend.
func (fs *FilesystemStore) Close() error { return nil }
