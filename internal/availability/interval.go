// Package availability turns expanded occupied intervals into per-person free
// time and combines multiple people's free time into ranked meeting
// candidates. Every function in this package is pure: no shared state, no
// I/O, no logging. Inputs are assumed normalized to the service's reference
// timezone.
package availability

import (
	"errors"
	"time"
)

var (
	// ErrInvalidInterval indicates an occupied interval whose start is not
	// before its end. Such inputs are rejected at the boundary before any
	// sweep runs.
	ErrInvalidInterval = errors.New("availability: interval start must be before end")
	// ErrInvalidRange indicates an empty or inverted query range.
	ErrInvalidRange = errors.New("availability: range start must be before range end")
	// ErrInvalidWorkingHours indicates a working-hours window that does not
	// describe a forward span within a single day.
	ErrInvalidWorkingHours = errors.New("availability: working hours start must be before end")
)

// DefaultMinSlotDuration is the minimum length a free interval must have to
// be emitted. Shorter gaps are dropped, never clamped.
const DefaultMinSlotDuration = 30 * time.Minute

// Interval is a half-open span of time with no owner attached.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// DurationMinutes returns the interval length in whole minutes.
func (i Interval) DurationMinutes() int {
	return int(i.End.Sub(i.Start) / time.Minute)
}

// FreeInterval is a span during which a single person has no commitments
// inside their working hours. Derived values are produced fresh on every
// computation and never cached by this package.
type FreeInterval struct {
	OwnerID string
	Start   time.Time
	End     time.Time
}

// DurationMinutes returns the free interval length in whole minutes.
func (f FreeInterval) DurationMinutes() int {
	return int(f.End.Sub(f.Start) / time.Minute)
}

// WorkingHours bounds the portion of each day considered for free time, as
// offsets from midnight in the reference timezone.
type WorkingHours struct {
	Start time.Duration
	End   time.Duration
}

// DefaultWorkingHours covers 08:00 through 22:00.
var DefaultWorkingHours = WorkingHours{Start: 8 * time.Hour, End: 22 * time.Hour}

// IsZero reports whether the window is unset.
func (w WorkingHours) IsZero() bool {
	return w.Start == 0 && w.End == 0
}

func (w WorkingHours) validate() error {
	if w.Start < 0 || w.End > 24*time.Hour || w.Start >= w.End {
		return ErrInvalidWorkingHours
	}
	return nil
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
