package models

import (
	"time"
)

// Paste represents a stored paste and its expiry/view-limit metadata.
// Version is bumped on every successful counter update and is what the
// storage compare-and-swap keys on.
type Paste struct {
	ID           string    `json:"id" bson:"_id"`
	Content      string    `json:"content" bson:"content"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	TTLSeconds   *int      `json:"ttl_seconds,omitempty" bson:"ttl_seconds,omitempty"`
	MaxViews     *int      `json:"max_views,omitempty" bson:"max_views,omitempty"`
	CurrentViews int       `json:"current_views" bson:"current_views"`
	Version      int64     `json:"version" bson:"version"`
}

// ExpiresAt returns the instant the paste time-expires, or nil when it
// never does.
func (p *Paste) ExpiresAt() *time.Time {
	if p.TTLSeconds == nil {
		return nil
	}
	t := p.CreatedAt.Add(time.Duration(*p.TTLSeconds) * time.Second)
	return &t
}

// IsExpired checks if the paste has time-expired at the given instant.
// The boundary instant itself counts as expired.
func (p *Paste) IsExpired(now time.Time) bool {
	exp := p.ExpiresAt()
	if exp == nil {
		return false
	}
	return !now.Before(*exp)
}

// IsExhausted checks if the paste has used up its view budget.
func (p *Paste) IsExhausted() bool {
	if p.MaxViews == nil {
		return false
	}
	return p.CurrentViews >= *p.MaxViews
}

// IsLive reports whether the paste can still be consumed at the given
// instant.
func (p *Paste) IsLive(now time.Time) bool {
	return !p.IsExpired(now) && !p.IsExhausted()
}

// RemainingViews returns how many views are left, or nil when the paste
// has no view limit.
func (p *Paste) RemainingViews() *int {
	if p.MaxViews == nil {
		return nil
	}
	n := *p.MaxViews - p.CurrentViews
	if n < 0 {
		n = 0
	}
	return &n
}

// Clone returns a deep copy so a caller can mutate a candidate record
// without touching the one it read.
func (p *Paste) Clone() *Paste {
	out := *p
	if p.TTLSeconds != nil {
		v := *p.TTLSeconds
		out.TTLSeconds = &v
	}
	if p.MaxViews != nil {
		v := *p.MaxViews
		out.MaxViews = &v
	}
	return &out
}
