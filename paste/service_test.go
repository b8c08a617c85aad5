package paste

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pastebit/pastebit/models"
	"github.com/pastebit/pastebit/storage"
)

func intPtr(n int) *int { return &n }

func newTestService() (*Service, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return NewService(store), store
}

func TestCreateThenConsumeRoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	id, err := svc.Create(ctx, CreateInput{Content: "hello\nworld é"}, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatal("Create returned empty id")
	}

	result, err := svc.Consume(ctx, id, now)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if result.Content != "hello\nworld é" {
		t.Errorf("Content = %q, want original content unchanged", result.Content)
	}
	if result.RemainingViews != nil {
		t.Errorf("RemainingViews = %v, want nil for unlimited paste", result.RemainingViews)
	}
	if result.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil without ttl", result.ExpiresAt)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	now := time.Now()

	tests := []struct {
		name string
		in   CreateInput
	}{
		{name: "empty content", in: CreateInput{Content: ""}},
		{name: "whitespace only content", in: CreateInput{Content: "  \n\t "}},
		{name: "zero ttl", in: CreateInput{Content: "x", TTLSeconds: intPtr(0)}},
		{name: "negative ttl", in: CreateInput{Content: "x", TTLSeconds: intPtr(-5)}},
		{name: "zero max_views", in: CreateInput{Content: "x", MaxViews: intPtr(0)}},
		{name: "negative max_views", in: CreateInput{Content: "x", MaxViews: intPtr(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in, now)
			var invalid *InvalidInputError
			if !errors.As(err, &invalid) {
				t.Errorf("Create(%+v) error = %v, want InvalidInputError", tt.in, err)
			}
		})
	}

	// Validation failures must happen before any store write.
	if store.Len() != 0 {
		t.Errorf("store has %d records after rejected creates, want 0", store.Len())
	}
}

func TestConsumeUnknownID(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Consume(context.Background(), "neverCreated000000000", time.Now())
	if !errors.Is(err, ErrNotLive) {
		t.Errorf("Consume(unknown) error = %v, want ErrNotLive", err)
	}
}

func TestConsumeCorruptRecord(t *testing.T) {
	svc, store := newTestService()
	store.PutRaw("corruptRecord00000000", []byte(`{"mangled":`))

	_, err := svc.Consume(context.Background(), "corruptRecord00000000", time.Now())
	if !errors.Is(err, ErrNotLive) {
		t.Errorf("Consume(corrupt) error = %v, want ErrNotLive", err)
	}
}

func TestConsumeMaxViewsExhaustion(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	id, err := svc.Create(ctx, CreateInput{Content: "hello", MaxViews: intPtr(3)}, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 3; i++ {
		result, err := svc.Consume(ctx, id, now)
		if err != nil {
			t.Fatalf("Consume #%d: %v", i+1, err)
		}
		want := 3 - (i + 1)
		if result.RemainingViews == nil || *result.RemainingViews != want {
			t.Errorf("Consume #%d RemainingViews = %v, want %d", i+1, result.RemainingViews, want)
		}
	}

	_, err = svc.Consume(ctx, id, now)
	if !errors.Is(err, ErrNotLive) {
		t.Errorf("Consume #4 error = %v, want ErrNotLive", err)
	}
}

func TestConsumeSingleViewScenario(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	id, err := svc.Create(ctx, CreateInput{Content: "hello", MaxViews: intPtr(1)}, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := svc.Consume(ctx, id, now)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if result.Content != "hello" {
		t.Errorf("Content = %q, want hello", result.Content)
	}
	if result.RemainingViews == nil || *result.RemainingViews != 0 {
		t.Errorf("RemainingViews = %v, want 0", result.RemainingViews)
	}
	if result.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil", result.ExpiresAt)
	}

	if _, err := svc.Consume(ctx, id, now); !errors.Is(err, ErrNotLive) {
		t.Errorf("second Consume error = %v, want ErrNotLive", err)
	}
}

func TestConsumeTTLBoundary(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	created := time.UnixMilli(0).UTC()

	id, err := svc.Create(ctx, CreateInput{Content: "x", TTLSeconds: intPtr(1)}, created)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := svc.Consume(ctx, id, time.UnixMilli(500).UTC())
	if err != nil {
		t.Fatalf("Consume before expiry: %v", err)
	}
	wantExp := time.UnixMilli(1000).UTC()
	if result.ExpiresAt == nil || !result.ExpiresAt.Equal(wantExp) {
		t.Errorf("ExpiresAt = %v, want %v", result.ExpiresAt, wantExp)
	}

	if _, err := svc.Consume(ctx, id, time.UnixMilli(999).UTC()); err != nil {
		t.Errorf("Consume at expiry-1ms: %v, want success", err)
	}
	if _, err := svc.Consume(ctx, id, time.UnixMilli(1000).UTC()); !errors.Is(err, ErrNotLive) {
		t.Errorf("Consume at expiry error = %v, want ErrNotLive", err)
	}
	// Dead forever afterwards, regardless of the clock.
	if _, err := svc.Consume(ctx, id, time.UnixMilli(500).UTC()); !errors.Is(err, ErrNotLive) {
		t.Errorf("Consume after death error = %v, want ErrNotLive", err)
	}
}

func TestConsumeExpiredDeletesRecord(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	created := time.UnixMilli(0).UTC()

	id, err := svc.Create(ctx, CreateInput{Content: "x", TTLSeconds: intPtr(1)}, created)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Consume(ctx, id, created.Add(time.Hour)); !errors.Is(err, ErrNotLive) {
		t.Fatalf("Consume(expired) error = %v, want ErrNotLive", err)
	}
	if store.Len() != 0 {
		t.Errorf("dead record not cleaned up, store has %d entries", store.Len())
	}
}

func TestConsumeUnlimitedPaste(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	id, err := svc.Create(ctx, CreateInput{Content: "evergreen"}, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 50; i++ {
		result, err := svc.Consume(ctx, id, now.Add(time.Duration(i)*time.Hour))
		if err != nil {
			t.Fatalf("Consume #%d: %v", i+1, err)
		}
		if result.RemainingViews != nil || result.ExpiresAt != nil {
			t.Fatalf("Consume #%d returned limits for unlimited paste: %+v", i+1, result)
		}
	}
}

// The canonical regression: two concurrent consumers of a max_views=1
// paste must resolve to exactly one success.
func TestConsumeConcurrentSingleView(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	for round := 0; round < 20; round++ {
		id, err := svc.Create(ctx, CreateInput{Content: "once", MaxViews: intPtr(1)}, now)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		const consumers = 8
		var wg sync.WaitGroup
		results := make([]error, consumers)
		start := make(chan struct{})

		for i := 0; i < consumers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				_, results[i] = svc.Consume(ctx, id, now)
			}(i)
		}
		close(start)
		wg.Wait()

		successes := 0
		for i, err := range results {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrNotLive):
			default:
				t.Fatalf("round %d consumer %d: unexpected error %v", round, i, err)
			}
		}
		if successes != 1 {
			t.Fatalf("round %d: %d consumers succeeded, want exactly 1", round, successes)
		}
	}
}

// At-most-N with N+1 concurrent consumers: exactly N succeed and each
// accepted view lands on a distinct counter value.
func TestConsumeConcurrentAtMostN(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	const n = 5
	id, err := svc.Create(ctx, CreateInput{Content: "bounded", MaxViews: intPtr(n)}, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const consumers = n + 1
	var wg sync.WaitGroup
	remaining := make(chan int, consumers)
	failures := make(chan error, consumers)
	start := make(chan struct{})

	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			result, err := svc.Consume(ctx, id, now)
			if err != nil {
				failures <- err
				return
			}
			remaining <- *result.RemainingViews
		}()
	}
	close(start)
	wg.Wait()
	close(remaining)
	close(failures)

	seen := make(map[int]bool)
	for r := range remaining {
		if seen[r] {
			t.Errorf("two accepted views observed the same remaining count %d", r)
		}
		seen[r] = true
	}
	if len(seen) != n {
		t.Errorf("%d consumers succeeded, want exactly %d", len(seen), n)
	}
	for err := range failures {
		if !errors.Is(err, ErrNotLive) {
			t.Errorf("rejected consumer got %v, want ErrNotLive", err)
		}
	}

	// The durable counter must agree with the accepted views.
	final, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if final != nil && final.CurrentViews != n {
		t.Errorf("final CurrentViews = %d, want %d", final.CurrentViews, n)
	}
}

// failingStore simulates an unreachable backend.
type failingStore struct {
	storage.PasteStore
}

func (f *failingStore) Put(ctx context.Context, paste *models.Paste) error {
	return errors.New("connection refused")
}

func (f *failingStore) Get(ctx context.Context, id string) (*models.Paste, error) {
	return nil, errors.New("connection refused")
}

func TestStorageUnavailable(t *testing.T) {
	svc := NewService(&failingStore{})
	ctx := context.Background()
	now := time.Now()

	_, err := svc.Create(ctx, CreateInput{Content: "x"}, now)
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Create error = %v, want ErrStorageUnavailable", err)
	}

	_, err = svc.Consume(ctx, "someId00000000000000a", now)
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Consume error = %v, want ErrStorageUnavailable", err)
	}
}
