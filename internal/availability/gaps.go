package availability

import (
	"sort"
	"time"
)

// FreeSlots computes one person's free intervals per calendar day across
// [rangeStart, rangeEnd]. For each day it builds the working window, clips
// that day's occupied intervals to the window, and sweeps a cursor from the
// window open time: gaps of at least minDuration are emitted, and the cursor
// only ever advances, so overlapping or back-to-back occupied intervals are
// merged implicitly.
//
// A zero-value hours window falls back to DefaultWorkingHours and a
// non-positive minDuration falls back to DefaultMinSlotDuration. The output
// is sorted by start time, ties broken by end time, and contains no
// overlapping intervals for the same day.
func FreeSlots(ownerID string, occupied []Interval, rangeStart, rangeEnd time.Time, hours WorkingHours, minDuration time.Duration) ([]FreeInterval, error) {
	if !rangeStart.Before(rangeEnd) {
		return nil, ErrInvalidRange
	}
	if hours.IsZero() {
		hours = DefaultWorkingHours
	}
	if err := hours.validate(); err != nil {
		return nil, err
	}
	if minDuration <= 0 {
		minDuration = DefaultMinSlotDuration
	}
	for _, interval := range occupied {
		if !interval.Start.Before(interval.End) {
			return nil, ErrInvalidInterval
		}
	}

	sorted := make([]Interval, len(occupied))
	copy(sorted, occupied)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].End.Before(sorted[j].End)
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})

	free := make([]FreeInterval, 0)
	for day := startOfDay(rangeStart); day.Before(rangeEnd); day = day.AddDate(0, 0, 1) {
		windowStart := day.Add(hours.Start)
		windowEnd := day.Add(hours.End)

		cursor := windowStart
		for _, interval := range sorted {
			// Clip to the day's working window; intervals outside it are skipped.
			start := maxTime(interval.Start, windowStart)
			end := minTime(interval.End, windowEnd)
			if !start.Before(end) {
				continue
			}
			if cursor.Before(start) && start.Sub(cursor) >= minDuration {
				free = append(free, FreeInterval{OwnerID: ownerID, Start: cursor, End: start})
			}
			cursor = maxTime(cursor, end)
		}
		if cursor.Before(windowEnd) && windowEnd.Sub(cursor) >= minDuration {
			free = append(free, FreeInterval{OwnerID: ownerID, Start: cursor, End: windowEnd})
		}
	}

	if len(free) == 0 {
		return nil, nil
	}
	return free, nil
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
