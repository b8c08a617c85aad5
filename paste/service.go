package paste

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pastebit/pastebit/metrics"
	"github.com/pastebit/pastebit/models"
	"github.com/pastebit/pastebit/storage"
	"github.com/pastebit/pastebit/utils"
)

// maxConsumeRetries bounds the compare-and-swap loop under contention.
// Each retry re-reads the record, so a losing consumer converges on the
// winner's state after one round trip; hitting the bound means the
// store is effectively unavailable to us.
const maxConsumeRetries = 16

// Service owns the paste lifecycle: creation and the atomic
// consume-on-read path. All liveness decisions live here; storage
// backends only provide get/put and one conditional write.
type Service struct {
	store storage.PasteStore
}

// NewService creates a lifecycle service on top of a storage backend.
func NewService(store storage.PasteStore) *Service {
	return &Service{store: store}
}

// CreateInput is a create request after transport-level parsing. Nil
// TTLSeconds means the paste never time-expires; nil MaxViews means
// unlimited views.
type CreateInput struct {
	Content    string
	TTLSeconds *int
	MaxViews   *int
}

// ViewResult is one successfully consumed view. RemainingViews is nil
// for unlimited pastes and ExpiresAt is nil for pastes without a TTL.
type ViewResult struct {
	Content        string
	RemainingViews *int
	ExpiresAt      *time.Time
}

// Create validates the input, assigns an identifier and writes the new
// paste in a single store write. Identifier collisions are not probed
// for: at ~126 bits of entropy an overwrite is vanishingly unlikely and
// accepted as a documented risk.
func (s *Service) Create(ctx context.Context, in CreateInput, now time.Time) (string, error) {
	if strings.TrimSpace(in.Content) == "" {
		return "", &InvalidInputError{Reason: "content required"}
	}
	if in.TTLSeconds != nil && *in.TTLSeconds < 1 {
		return "", &InvalidInputError{Reason: "ttl_seconds must be >= 1"}
	}
	if in.MaxViews != nil && *in.MaxViews < 1 {
		return "", &InvalidInputError{Reason: "max_views must be >= 1"}
	}

	id, err := utils.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}

	p := &models.Paste{
		ID:           id,
		Content:      in.Content,
		CreatedAt:    now,
		TTLSeconds:   in.TTLSeconds,
		MaxViews:     in.MaxViews,
		CurrentViews: 0,
		Version:      1,
	}
	if err := s.store.Put(ctx, p); err != nil {
		log.Printf("[ERROR] Create: store write failed for %s: %v", id, err)
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	metrics.PastesCreated.Inc()
	return id, nil
}

// Consume returns the paste content and durably charges one view,
// or ErrNotLive when the paste is absent, time-expired, view-exhausted
// or corrupt. The check-and-increment runs as a compare-and-swap loop
// keyed on the record version: under concurrent consumers of the same
// id at most MaxViews views ever commit, each against a distinct
// CurrentViews value.
func (s *Service) Consume(ctx context.Context, id string, now time.Time) (*ViewResult, error) {
	for attempt := 0; attempt < maxConsumeRetries; attempt++ {
		p, err := s.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrCorruptRecord) {
				// Logged apart from true absence for operability, but
				// callers see the same outcome.
				log.Printf("[WARN] Consume: corrupt record for %s", id)
				return nil, ErrNotLive
			}
			log.Printf("[ERROR] Consume: store read failed for %s: %v", id, err)
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if p == nil {
			return nil, ErrNotLive
		}

		if !p.IsLive(now) {
			// A dead paste can never come back; removing it now is a
			// storage optimization, not required for correctness.
			if err := s.store.Delete(ctx, id); err != nil {
				log.Printf("[WARN] Consume: cleanup of dead paste %s failed: %v", id, err)
			}
			return nil, ErrNotLive
		}

		next := p.Clone()
		next.CurrentViews++
		next.Version++

		ok, err := s.store.CompareAndSwap(ctx, id, p.Version, next)
		if err != nil {
			log.Printf("[ERROR] Consume: store write failed for %s: %v", id, err)
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		if !ok {
			// Lost the race to another consumer; re-read and re-check.
			metrics.ConsumeConflicts.Inc()
			continue
		}

		metrics.ViewsConsumed.Inc()
		return &ViewResult{
			Content:        next.Content,
			RemainingViews: next.RemainingViews(),
			ExpiresAt:      next.ExpiresAt(),
		}, nil
	}

	log.Printf("[ERROR] Consume: gave up on %s after %d conflicted attempts", id, maxConsumeRetries)
	return nil, fmt.Errorf("%w: too much write contention", ErrStorageUnavailable)
}
