package availability

import (
	"sort"
	"time"
)

const (
	// DefaultMaxSuggestions bounds the ranked output length.
	DefaultMaxSuggestions = 5
	// DefaultMaxMeetingLength is the span suggestions are clipped to.
	DefaultMaxMeetingLength = 2 * time.Hour

	durationWeight  = 0.75
	proximityWeight = 0.25
)

// DefaultPreferredBand is the mid-day window that proximity scoring rewards.
var DefaultPreferredBand = WorkingHours{Start: 11 * time.Hour, End: 14 * time.Hour}

// RankOptions tunes suggestion ranking. Zero fields fall back to the package
// defaults.
type RankOptions struct {
	MaxSuggestions   int
	MaxMeetingLength time.Duration
	// PreferredBand is the time-of-day window whose proximity raises a
	// suggestion's confidence.
	PreferredBand WorkingHours
}

func (o RankOptions) withDefaults() RankOptions {
	if o.MaxSuggestions <= 0 {
		o.MaxSuggestions = DefaultMaxSuggestions
	}
	if o.MaxMeetingLength <= 0 {
		o.MaxMeetingLength = DefaultMaxMeetingLength
	}
	if o.PreferredBand.IsZero() {
		o.PreferredBand = DefaultPreferredBand
	}
	return o
}

// Suggestion is a candidate meeting window for the full participant set.
type Suggestion struct {
	Start        time.Time
	End          time.Time
	Confidence   float64
	Participants []string
}

// Rank converts raw common intervals into at most MaxSuggestions candidate
// meeting windows. Intervals longer than MaxMeetingLength are clipped to it,
// anchored at their own start (earliest-start preference). Confidence is in
// [0,1], monotonic non-decreasing in the raw interval duration, and rewards
// proximity of the clipped window to the preferred time-of-day band. Output
// is ordered by descending confidence, ties broken by ascending start.
func Rank(common []Interval, participants []string, opts RankOptions) []Suggestion {
	if len(common) == 0 {
		return nil
	}
	opts = opts.withDefaults()

	shared := append([]string(nil), participants...)
	suggestions := make([]Suggestion, 0, len(common))
	for _, interval := range common {
		end := interval.End
		if interval.Duration() > opts.MaxMeetingLength {
			end = interval.Start.Add(opts.MaxMeetingLength)
		}
		suggestions = append(suggestions, Suggestion{
			Start:        interval.Start,
			End:          end,
			Confidence:   confidence(interval, Interval{Start: interval.Start, End: end}, opts),
			Participants: shared,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence == suggestions[j].Confidence {
			return suggestions[i].Start.Before(suggestions[j].Start)
		}
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	if len(suggestions) > opts.MaxSuggestions {
		suggestions = suggestions[:opts.MaxSuggestions]
	}
	return suggestions
}

// confidence blends a duration score against a time-of-day proximity score.
// The duration weight dominates the proximity weight strongly enough that a
// longer raw interval can never score below a shorter one with the same start.
func confidence(raw, clipped Interval, opts RankOptions) float64 {
	durationScore := float64(raw.Duration()) / float64(opts.MaxMeetingLength)
	if durationScore > 1 {
		durationScore = 1
	}

	midpoint := clipped.Start.Add(clipped.Duration() / 2)
	offset := timeOfDay(midpoint)
	var distance time.Duration
	switch {
	case offset < opts.PreferredBand.Start:
		distance = opts.PreferredBand.Start - offset
	case offset > opts.PreferredBand.End:
		distance = offset - opts.PreferredBand.End
	}
	proximityScore := 1 - float64(distance)/float64(12*time.Hour)
	if proximityScore < 0 {
		proximityScore = 0
	}

	score := durationWeight*durationScore + proximityWeight*proximityScore
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func timeOfDay(t time.Time) time.Duration {
	return t.Sub(startOfDay(t))
}
