package models

import "time"

// Timestamps is embedded by every mutable entity. Services call MarkCreated on
// insert and MarkUpdated on every later write; reads never touch it.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// timestampResolution matches PostgreSQL timestamptz precision.
const timestampResolution = time.Microsecond

func (t *Timestamps) MarkCreated(now time.Time) {
	now = now.UTC().Truncate(timestampResolution)
	t.CreatedAt = now
	t.UpdatedAt = now
}

// MarkUpdated advances UpdatedAt to now. If the clock has not moved past the
// stored value (clock skew, two writes in the same microsecond) it bumps the
// stored value by one tick so successive writes stay strictly ordered.
func (t *Timestamps) MarkUpdated(now time.Time) {
	now = now.UTC().Truncate(timestampResolution)
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(timestampResolution)
	}
	t.UpdatedAt = now
}
