// Package recurrence expands possibly-recurring commitments into the concrete
// occupied intervals they produce over a queried date range. Expansion is a
// pure function of its inputs: all timestamps are assumed normalized to the
// service's reference timezone before they reach this package.
package recurrence

import (
	"errors"
	"fmt"
	"time"
)

// Frequency represents the supported recurrence step kinds.
type Frequency int

const (
	// FrequencyUnspecified indicates the rule frequency is not set.
	FrequencyUnspecified Frequency = iota
	// FrequencyWeekly repeats every 7 days multiplied by the rule interval.
	FrequencyWeekly
	// FrequencyBiweekly repeats every 14 days multiplied by the rule interval.
	FrequencyBiweekly
	// FrequencyMonthly repeats every 28 days multiplied by the rule interval.
	// Months are treated as a fixed four-week span rather than calendar
	// months; see ParseFrequency for the accepted labels.
	FrequencyMonthly
)

// String returns the canonical label for the frequency.
func (f Frequency) String() string {
	switch f {
	case FrequencyWeekly:
		return "weekly"
	case FrequencyBiweekly:
		return "biweekly"
	case FrequencyMonthly:
		return "monthly"
	default:
		return "unspecified"
	}
}

// ParseFrequency maps a stored label to its Frequency value.
func ParseFrequency(label string) (Frequency, error) {
	switch label {
	case "weekly":
		return FrequencyWeekly, nil
	case "biweekly":
		return FrequencyBiweekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	default:
		return FrequencyUnspecified, fmt.Errorf("%w: unknown frequency %q", ErrInvalidRecurrence, label)
	}
}

// Rule describes how a recurring commitment repeats.
type Rule struct {
	Frequency Frequency
	// Interval is the positive step multiplier, e.g. weekly with Interval 2
	// repeats every two weeks.
	Interval int
	// Until, when set, bounds the recurrence: no occurrence may start after it.
	Until *time.Time
}

// Commitment is a single scheduled occupied interval, possibly recurring.
// The engine only ever reads validated commitments; it never mutates them.
type Commitment struct {
	ID      string
	OwnerID string
	Title   string
	Start   time.Time
	End     time.Time
	// Weekday is the weekday of the base occurrence, derived from Start by
	// the commitment service at the boundary. Expansion reads its timing
	// from Start alone; the field is denormalized for callers and storage
	// queries and is never consulted here.
	Weekday   time.Weekday
	Recurring bool
	// Rule is present iff Recurring is true.
	Rule *Rule
}

// Occurrence is a concrete occupied interval generated from a commitment.
type Occurrence struct {
	CommitmentID string
	OwnerID      string
	Start        time.Time
	End          time.Time
}

var (
	// ErrInvalidRecurrence indicates malformed recurrence metadata, such as a
	// non-positive interval or an unknown frequency.
	ErrInvalidRecurrence = errors.New("recurrence: invalid recurrence")
	// ErrInvalidInterval indicates a commitment whose start is not before its end.
	ErrInvalidInterval = errors.New("recurrence: interval start must be before end")
	// ErrInvalidRange indicates the queried range is empty or inverted.
	ErrInvalidRange = errors.New("recurrence: range start must be before range end")
)

// Expand generates the occupied intervals a commitment produces within
// [rangeStart, rangeEnd]. Non-recurring commitments yield at most one
// occurrence, included only when it overlaps the range. Recurring commitments
// are walked forward in fixed steps from the base start; each occurrence keeps
// the base time-of-day and duration. Malformed inputs fail fast rather than
// being silently skipped; the caller decides whether to skip or abort.
func Expand(c Commitment, rangeStart, rangeEnd time.Time) ([]Occurrence, error) {
	if !c.Start.Before(c.End) {
		return nil, ErrInvalidInterval
	}
	if !rangeStart.Before(rangeEnd) {
		return nil, ErrInvalidRange
	}

	if !c.Recurring {
		if overlaps(c.Start, c.End, rangeStart, rangeEnd) {
			return []Occurrence{occurrenceAt(c, c.Start)}, nil
		}
		return nil, nil
	}

	if c.Rule == nil {
		return nil, fmt.Errorf("%w: recurring commitment has no rule", ErrInvalidRecurrence)
	}
	step, err := stepFor(*c.Rule)
	if err != nil {
		return nil, err
	}

	duration := c.End.Sub(c.Start)
	occurrences := make([]Occurrence, 0)

	for start := c.Start; !start.After(rangeEnd); start = start.Add(step) {
		if c.Rule.Until != nil && start.After(*c.Rule.Until) {
			break
		}
		end := start.Add(duration)
		if overlaps(start, end, rangeStart, rangeEnd) {
			occurrences = append(occurrences, occurrenceAt(c, start))
		}
	}

	if len(occurrences) == 0 {
		return nil, nil
	}
	return occurrences, nil
}

// ExpandAll expands every commitment in the slice, failing fast on the first
// malformed entry.
func ExpandAll(commitments []Commitment, rangeStart, rangeEnd time.Time) ([]Occurrence, error) {
	all := make([]Occurrence, 0, len(commitments))
	for _, c := range commitments {
		expanded, err := Expand(c, rangeStart, rangeEnd)
		if err != nil {
			return nil, err
		}
		all = append(all, expanded...)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func stepFor(rule Rule) (time.Duration, error) {
	if rule.Interval <= 0 {
		return 0, fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidRecurrence, rule.Interval)
	}
	var days int
	switch rule.Frequency {
	case FrequencyWeekly:
		days = 7
	case FrequencyBiweekly:
		days = 14
	case FrequencyMonthly:
		// Fixed four-week approximation; calendar-month anchoring is out of scope.
		days = 28
	case FrequencyUnspecified:
		fallthrough
	default:
		return 0, fmt.Errorf("%w: unknown frequency %d", ErrInvalidRecurrence, rule.Frequency)
	}
	return time.Duration(days*rule.Interval) * 24 * time.Hour, nil
}

func occurrenceAt(c Commitment, start time.Time) Occurrence {
	return Occurrence{
		CommitmentID: c.ID,
		OwnerID:      c.OwnerID,
		Start:        start,
		End:          start.Add(c.End.Sub(c.Start)),
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
