package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrCorruptRecord is returned when a stored record cannot be decoded
// back into a valid Paste.
var ErrCorruptRecord = errors.New("corrupt paste record")

// pasteRecord is the wire form used by the key-value backends. CreatedAt
// is stored as epoch milliseconds so expiry math survives round-trips
// exactly; it is a pointer so a missing field is distinguishable from a
// paste legitimately created at instant zero.
type pasteRecord struct {
	ID           string `json:"id"`
	Content      string `json:"content"`
	CreatedAt    *int64 `json:"created_at"`
	TTLSeconds   *int   `json:"ttl_seconds,omitempty"`
	MaxViews     *int   `json:"max_views,omitempty"`
	CurrentViews int    `json:"current_views"`
	Version      int64  `json:"version"`
}

// EncodePaste serializes a paste for storage in a key-value backend.
func EncodePaste(p *Paste) ([]byte, error) {
	createdAt := p.CreatedAt.UnixMilli()
	rec := pasteRecord{
		ID:           p.ID,
		Content:      p.Content,
		CreatedAt:    &createdAt,
		TTLSeconds:   p.TTLSeconds,
		MaxViews:     p.MaxViews,
		CurrentViews: p.CurrentViews,
		Version:      p.Version,
	}
	return json.Marshal(rec)
}

// DecodePaste deserializes a stored value. Malformed JSON or a record
// that violates the paste invariants yields ErrCorruptRecord.
func DecodePaste(data []byte) (*Paste, error) {
	var rec pasteRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, ErrCorruptRecord
	}
	if rec.Content == "" || rec.CreatedAt == nil || rec.CurrentViews < 0 {
		return nil, ErrCorruptRecord
	}
	if rec.TTLSeconds != nil && *rec.TTLSeconds < 1 {
		return nil, ErrCorruptRecord
	}
	if rec.MaxViews != nil && *rec.MaxViews < 1 {
		return nil, ErrCorruptRecord
	}
	return &Paste{
		ID:           rec.ID,
		Content:      rec.Content,
		CreatedAt:    time.UnixMilli(*rec.CreatedAt).UTC(),
		TTLSeconds:   rec.TTLSeconds,
		MaxViews:     rec.MaxViews,
		CurrentViews: rec.CurrentViews,
		Version:      rec.Version,
	}, nil
}
