package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pastebit/pastebit/models"
)

func intPtr(n int) *int { return &n }

func testPaste(id string) *models.Paste {
	return &models.Paste{
		ID:           id,
		Content:      "contract test content",
		CreatedAt:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		TTLSeconds:   intPtr(600),
		MaxViews:     intPtr(3),
		CurrentViews: 0,
		Version:      1,
	}
}

// Runs the behavioral contract every backend must satisfy against the
// backends that need no external service.
func TestStoreContract(t *testing.T) {
	backends := map[string]func(t *testing.T) PasteStore{
		"memory": func(t *testing.T) PasteStore {
			return NewMemoryStore()
		},
		"filesystem": func(t *testing.T) PasteStore {
			store, err := NewFilesystemStore(t.TempDir())
			if err != nil {
				t.Fatalf("NewFilesystemStore: %v", err)
			}
			return store
		},
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("get absent returns nil nil", func(t *testing.T) {
				store := newStore(t)
				p, err := store.Get(ctx, "neverStored0000000000")
				if err != nil || p != nil {
					t.Errorf("Get(absent) = (%v, %v), want (nil, nil)", p, err)
				}
			})

			t.Run("put then get round trips", func(t *testing.T) {
				store := newStore(t)
				want := testPaste("roundTrip000000000000")
				if err := store.Put(ctx, want); err != nil {
					t.Fatalf("Put: %v", err)
				}
				got, err := store.Get(ctx, want.ID)
				if err != nil {
					t.Fatalf("Get: %v", err)
				}
				if got == nil || got.Content != want.Content || got.Version != want.Version {
					t.Errorf("Get = %+v, want %+v", got, want)
				}
				if !got.CreatedAt.Equal(want.CreatedAt) {
					t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
				}
			})

			t.Run("cas commits on matching version", func(t *testing.T) {
				store := newStore(t)
				p := testPaste("casCommit000000000000")
				if err := store.Put(ctx, p); err != nil {
					t.Fatalf("Put: %v", err)
				}
				next := p.Clone()
				next.CurrentViews = 1
				next.Version = 2
				ok, err := store.CompareAndSwap(ctx, p.ID, 1, next)
				if err != nil || !ok {
					t.Fatalf("CompareAndSwap = (%v, %v), want (true, nil)", ok, err)
				}
				got, err := store.Get(ctx, p.ID)
				if err != nil {
					t.Fatalf("Get: %v", err)
				}
				if got.CurrentViews != 1 || got.Version != 2 {
					t.Errorf("after CAS: views=%d version=%d, want 1/2", got.CurrentViews, got.Version)
				}
			})

			t.Run("cas rejects stale version", func(t *testing.T) {
				store := newStore(t)
				p := testPaste("casStale0000000000000")
				if err := store.Put(ctx, p); err != nil {
					t.Fatalf("Put: %v", err)
				}
				next := p.Clone()
				next.Version = 2
				ok, err := store.CompareAndSwap(ctx, p.ID, 99, next)
				if err != nil {
					t.Fatalf("CompareAndSwap: %v", err)
				}
				if ok {
					t.Error("CompareAndSwap committed against a stale version")
				}
				got, _ := store.Get(ctx, p.ID)
				if got.Version != 1 {
					t.Errorf("stale CAS mutated the record: version=%d", got.Version)
				}
			})

			t.Run("cas rejects missing record", func(t *testing.T) {
				store := newStore(t)
				next := testPaste("casMissing00000000000")
				ok, err := store.CompareAndSwap(ctx, next.ID, 1, next)
				if err != nil {
					t.Fatalf("CompareAndSwap: %v", err)
				}
				if ok {
					t.Error("CompareAndSwap committed against a missing record")
				}
			})

			t.Run("delete removes and is idempotent", func(t *testing.T) {
				store := newStore(t)
				p := testPaste("deleteMe0000000000000")
				if err := store.Put(ctx, p); err != nil {
					t.Fatalf("Put: %v", err)
				}
				if err := store.Delete(ctx, p.ID); err != nil {
					t.Fatalf("Delete: %v", err)
				}
				got, err := store.Get(ctx, p.ID)
				if err != nil || got != nil {
					t.Errorf("Get after delete = (%v, %v), want (nil, nil)", got, err)
				}
				if err := store.Delete(ctx, p.ID); err != nil {
					t.Errorf("second Delete errored: %v", err)
				}
			})

			t.Run("ping", func(t *testing.T) {
				store := newStore(t)
				if err := store.Ping(ctx); err != nil {
					t.Errorf("Ping: %v", err)
				}
			})
		})
	}
}

func TestMemoryStore_CorruptRecord(t *testing.T) {
	store := NewMemoryStore()
	store.PutRaw("corrupt0000000000000a", []byte("not json at all"))

	_, err := store.Get(context.Background(), "corrupt0000000000000a")
	if !errors.Is(err, models.ErrCorruptRecord) {
		t.Errorf("Get(corrupt) error = %v, want ErrCorruptRecord", err)
	}
}
