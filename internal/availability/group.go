package availability

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/freebusy/internal/recurrence"
)

// ParticipantSchedule pairs a person with their commitments for a query.
type ParticipantSchedule struct {
	OwnerID     string
	Commitments []recurrence.Commitment
}

// GroupOptions tunes a group availability computation. Zero fields fall back
// to the package defaults.
type GroupOptions struct {
	Hours       WorkingHours
	MinDuration time.Duration
	Rank        RankOptions
}

// GroupAvailability is the combined result for a participant set: the spans
// everyone is free plus ranked meeting candidates.
type GroupAvailability struct {
	Participants    []string
	CommonIntervals []Interval
	Suggestions     []Suggestion
}

// ComputePerson expands one person's commitments over the range and derives
// their free intervals.
func ComputePerson(schedule ParticipantSchedule, rangeStart, rangeEnd time.Time, hours WorkingHours, minDuration time.Duration) ([]FreeInterval, error) {
	occurrences, err := recurrence.ExpandAll(schedule.Commitments, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	occupied := make([]Interval, 0, len(occurrences))
	for _, occ := range occurrences {
		occupied = append(occupied, Interval{Start: occ.Start, End: occ.End})
	}
	return FreeSlots(schedule.OwnerID, occupied, rangeStart, rangeEnd, hours, minDuration)
}

// ComputeGroup derives common availability for all schedules. Per-person free
// slot computations are independent and run in parallel, bounded by the
// participant count; the intersection waits for every participant before
// folding. An empty participant set is a valid query and yields an empty
// result rather than an error.
func ComputeGroup(schedules []ParticipantSchedule, rangeStart, rangeEnd time.Time, opts GroupOptions) (GroupAvailability, error) {
	if len(schedules) == 0 {
		return GroupAvailability{}, nil
	}
	if !rangeStart.Before(rangeEnd) {
		return GroupAvailability{}, ErrInvalidRange
	}
	if opts.MinDuration <= 0 {
		opts.MinDuration = DefaultMinSlotDuration
	}

	participants := make([]string, len(schedules))
	perPerson := make([][]FreeInterval, len(schedules))

	var group errgroup.Group
	for i, schedule := range schedules {
		participants[i] = schedule.OwnerID
		group.Go(func() error {
			slots, err := ComputePerson(schedule, rangeStart, rangeEnd, opts.Hours, opts.MinDuration)
			if err != nil {
				return err
			}
			perPerson[i] = slots
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return GroupAvailability{}, err
	}

	common := Intersect(perPerson, opts.MinDuration)
	return GroupAvailability{
		Participants:    participants,
		CommonIntervals: common,
		Suggestions:     Rank(common, participants, opts.Rank),
	}, nil
}
