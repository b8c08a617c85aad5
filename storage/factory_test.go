package storage

import (
	"testing"

	"github.com/pastebit/pastebit/config"
)

func TestNewStore(t *testing.T) {
	store, err := NewStore(&config.Config{Backend: "memory"})
	if err != nil {
		t.Fatalf("NewStore(memory): %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("NewStore(memory) = %T, want *MemoryStore", store)
	}

	store, err = NewStore(&config.Config{Backend: "filesystem", DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewStore(filesystem): %v", err)
	}
	if _, ok := store.(*FilesystemStore); !ok {
		t.Errorf("NewStore(filesystem) = %T, want *FilesystemStore", store)
	}

	if _, err := NewStore(&config.Config{Backend: "carrier-pigeon"}); err == nil {
		t.Error("NewStore(unknown backend) did not error")
	}
}
