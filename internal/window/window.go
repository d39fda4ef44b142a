// Package window decides which event, if any, is "active" at a given
// instant. An event is active from Pre before its scheduled start until Post
// after it; everything else in the service (check-ins, the live feed) hangs
// off this decision.
package window

import (
	"sort"
	"time"

	"github.com/shotme/tonight/internal/domain"
)

// Policy is the check-in window bounds. The zero value is unusable; use
// Default or build one from config.
type Policy struct {
	Pre  time.Duration
	Post time.Duration
}

// Default matches the production policy: doors-ish to the morning after.
func Default() Policy {
	return Policy{Pre: 2 * time.Hour, Post: 36 * time.Hour}
}

// Bounds returns the inclusive [from, to] window around a scheduled start.
func (p Policy) Bounds(start time.Time) (time.Time, time.Time) {
	return start.Add(-p.Pre), start.Add(p.Post)
}

// Contains reports whether now falls inside the window around start. Both
// bounds are inclusive.
func (p Policy) Contains(now, start time.Time) bool {
	from, to := p.Bounds(start)
	return !now.Before(from) && !now.After(to)
}

// ResolveActive returns the active event at now, or nil when no event's
// window contains now. When windows overlap, the earliest scheduled event
// wins; among equal starts the lower ID wins so the choice is stable.
func ResolveActive(now time.Time, events []domain.Event, p Policy) *domain.Event {
	sorted := make([]domain.Event, len(events))
	copy(sorted, events)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartsAt.Equal(sorted[j].StartsAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].StartsAt.Before(sorted[j].StartsAt)
	})

	for i := range sorted {
		if p.Contains(now, sorted[i].StartsAt) {
			return &sorted[i]
		}
	}

	return nil
}
