package availability

import "time"

// Intersect computes the spans during which every participant is free. The
// per-person sequences must be sorted by start time with ties broken by end
// time, which is how FreeSlots emits them. Zero participants yield an empty
// result; one participant yields that participant's free slots unchanged.
// Intersection is associative and commutative, so the pairwise fold order
// does not affect the result set. Output is ordered by start, then end.
func Intersect(sets [][]FreeInterval, minDuration time.Duration) []Interval {
	if len(sets) == 0 {
		return nil
	}
	if minDuration <= 0 {
		minDuration = DefaultMinSlotDuration
	}

	common := toIntervals(sets[0])
	for _, set := range sets[1:] {
		common = intersectPair(common, toIntervals(set), minDuration)
		if len(common) == 0 {
			return nil
		}
	}

	if len(common) == 0 {
		return nil
	}
	return common
}

// intersectPair sweeps two sorted interval sequences in a single pass,
// emitting overlaps of at least minDuration. Filtering at every fold step is
// equivalent to filtering once at the end: further intersection can only
// shrink a span, never grow it past the threshold again.
func intersectPair(a, b []Interval, minDuration time.Duration) []Interval {
	out := make([]Interval, 0)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := maxTime(a[i].Start, b[j].Start)
		end := minTime(a[i].End, b[j].End)
		if start.Before(end) && end.Sub(start) >= minDuration {
			out = append(out, Interval{Start: start, End: end})
		}
		// Advance whichever interval ends first; the other may still overlap
		// the next entry of the exhausted side.
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

func toIntervals(set []FreeInterval) []Interval {
	if len(set) == 0 {
		return nil
	}
	out := make([]Interval, len(set))
	for i, f := range set {
		out[i] = Interval{Start: f.Start, End: f.End}
	}
	return out
}
