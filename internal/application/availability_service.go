package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/example/freebusy/internal/availability"
	"github.com/example/freebusy/internal/persistence"
	"github.com/example/freebusy/internal/recurrence"
)

// AvailabilityDefaults holds the operator-configured tuning values applied
// when a request leaves the corresponding knob unset.
type AvailabilityDefaults struct {
	Hours            availability.WorkingHours
	MinSlotDuration  time.Duration
	MaxSuggestions   int
	MaxMeetingLength time.Duration
}

// AvailabilityService derives free time and common availability from stored
// commitments.
type AvailabilityService struct {
	commitments CommitmentRepository
	cache       *AvailabilityCache
	defaults    AvailabilityDefaults
	logger      *slog.Logger
}

// NewAvailabilityService wires dependencies for availability queries. The
// cache may be nil to disable memoization; zero defaults fall back to the
// package defaults of the engine.
func NewAvailabilityService(commitments CommitmentRepository, cache *AvailabilityCache, defaults AvailabilityDefaults, logger *slog.Logger) *AvailabilityService {
	if defaults.Hours.IsZero() {
		defaults.Hours = availability.DefaultWorkingHours
	}
	if defaults.MinSlotDuration <= 0 {
		defaults.MinSlotDuration = availability.DefaultMinSlotDuration
	}
	if defaults.MaxSuggestions <= 0 {
		defaults.MaxSuggestions = availability.DefaultMaxSuggestions
	}
	if defaults.MaxMeetingLength <= 0 {
		defaults.MaxMeetingLength = availability.DefaultMaxMeetingLength
	}
	return &AvailabilityService{
		commitments: commitments,
		cache:       cache,
		defaults:    defaults,
		logger:      defaultLogger(logger),
	}
}

func (s *AvailabilityService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AvailabilityService", operation, attrs...)
}

// PersonAvailability computes the free intervals of a single member within a
// time range. Members may only query themselves unless they are admins.
func (s *AvailabilityService) PersonAvailability(ctx context.Context, params PersonAvailabilityParams) (PersonAvailabilityResult, error) {
	if s == nil || s.commitments == nil {
		return PersonAvailabilityResult{}, fmt.Errorf("commitment repository not configured")
	}

	ownerID := params.OwnerID
	if ownerID == "" {
		ownerID = params.Principal.UserID
	}
	if ownerID != params.Principal.UserID && !params.Principal.IsAdmin {
		return PersonAvailabilityResult{}, ErrUnauthorized
	}
	if !params.RangeStart.Before(params.RangeEnd) {
		return PersonAvailabilityResult{}, fmt.Errorf("%w: range start must precede range end", availability.ErrInvalidRange)
	}

	minDuration := params.MinDuration
	if minDuration <= 0 {
		minDuration = s.defaults.MinSlotDuration
	}

	key := availabilityCacheKey("person", []string{ownerID}, params.RangeStart, params.RangeEnd,
		strconv.FormatInt(int64(minDuration), 10))
	if cached, ok := s.cache.get(key); ok {
		if result, ok := cached.(PersonAvailabilityResult); ok {
			return result, nil
		}
	}

	schedules, err := s.loadSchedules(ctx, []string{ownerID}, params.RangeStart, params.RangeEnd)
	if err != nil {
		return PersonAvailabilityResult{}, err
	}

	slots, err := availability.ComputePerson(schedules[0], params.RangeStart, params.RangeEnd, s.defaults.Hours, minDuration)
	if err != nil {
		return PersonAvailabilityResult{}, err
	}

	result := PersonAvailabilityResult{
		OwnerID:   ownerID,
		FreeSlots: toFreeSlots(slots),
	}
	s.cache.set(key, []string{ownerID}, result)

	s.loggerWith(ctx, "PersonAvailability", "owner_id", ownerID, "free_slots", len(result.FreeSlots)).
		DebugContext(ctx, "person availability computed")
	return result, nil
}

// GroupAvailability computes the overlapping free time of a participant set
// and ranks candidate meeting windows. Non-admin members must be part of the
// participant set they query. An empty participant set yields an empty result.
func (s *AvailabilityService) GroupAvailability(ctx context.Context, params GroupAvailabilityParams) (GroupAvailabilityResult, error) {
	if s == nil || s.commitments == nil {
		return GroupAvailabilityResult{}, fmt.Errorf("commitment repository not configured")
	}

	participants := dedupeParticipants(params.ParticipantIDs)
	if len(participants) == 0 {
		return GroupAvailabilityResult{}, nil
	}
	if !params.Principal.IsAdmin && !containsParticipant(participants, params.Principal.UserID) {
		return GroupAvailabilityResult{}, ErrUnauthorized
	}
	if !params.RangeStart.Before(params.RangeEnd) {
		return GroupAvailabilityResult{}, fmt.Errorf("%w: range start must precede range end", availability.ErrInvalidRange)
	}

	minDuration := params.MinDuration
	if minDuration <= 0 {
		minDuration = s.defaults.MinSlotDuration
	}
	maxSuggestions := params.MaxSuggestions
	if maxSuggestions <= 0 {
		maxSuggestions = s.defaults.MaxSuggestions
	}
	maxMeetingLength := params.MaxMeetingLength
	if maxMeetingLength <= 0 {
		maxMeetingLength = s.defaults.MaxMeetingLength
	}

	key := availabilityCacheKey("group", participants, params.RangeStart, params.RangeEnd,
		strconv.FormatInt(int64(minDuration), 10),
		strconv.Itoa(maxSuggestions),
		strconv.FormatInt(int64(maxMeetingLength), 10))
	if cached, ok := s.cache.get(key); ok {
		if result, ok := cached.(GroupAvailabilityResult); ok {
			return result, nil
		}
	}

	schedules, err := s.loadSchedules(ctx, participants, params.RangeStart, params.RangeEnd)
	if err != nil {
		return GroupAvailabilityResult{}, err
	}

	group, err := availability.ComputeGroup(schedules, params.RangeStart, params.RangeEnd, availability.GroupOptions{
		Hours:       s.defaults.Hours,
		MinDuration: minDuration,
		Rank: availability.RankOptions{
			MaxSuggestions:   maxSuggestions,
			MaxMeetingLength: maxMeetingLength,
		},
	})
	if err != nil {
		return GroupAvailabilityResult{}, err
	}

	result := toGroupResult(group)
	s.cache.set(key, participants, result)

	s.loggerWith(ctx, "GroupAvailability",
		"participants", len(participants),
		"common_slots", len(result.CommonSlots),
		"suggestions", len(result.Suggestions)).
		DebugContext(ctx, "group availability computed")
	return result, nil
}

// loadSchedules fetches each participant's commitments overlapping the range
// in a single query and groups them per owner.
func (s *AvailabilityService) loadSchedules(ctx context.Context, owners []string, rangeStart, rangeEnd time.Time) ([]availability.ParticipantSchedule, error) {
	records, err := s.commitments.ListCommitments(ctx, persistence.CommitmentFilter{
		OwnerIDs:    owners,
		StartsAfter: &rangeStart,
		EndsBefore:  &rangeEnd,
	})
	if err != nil {
		return nil, mapCommitmentRepoError(err)
	}

	byOwner := make(map[string][]recurrence.Commitment, len(owners))
	for _, record := range records {
		commitment, err := toEngineCommitment(record)
		if err != nil {
			return nil, err
		}
		byOwner[record.OwnerID] = append(byOwner[record.OwnerID], commitment)
	}

	schedules := make([]availability.ParticipantSchedule, 0, len(owners))
	for _, owner := range owners {
		schedules = append(schedules, availability.ParticipantSchedule{
			OwnerID:     owner,
			Commitments: byOwner[owner],
		})
	}
	return schedules, nil
}

func toEngineCommitment(record persistence.Commitment) (recurrence.Commitment, error) {
	commitment := recurrence.Commitment{
		ID:        record.ID,
		OwnerID:   record.OwnerID,
		Title:     record.Title,
		Start:     record.Start,
		End:       record.End,
		Weekday:   record.Weekday,
		Recurring: record.Recurring,
	}
	if record.Recurring {
		frequency, err := recurrence.ParseFrequency(record.Frequency)
		if err != nil {
			return recurrence.Commitment{}, fmt.Errorf("commitment %s: %w", record.ID, err)
		}
		rule := &recurrence.Rule{
			Frequency: frequency,
			Interval:  record.RecurrenceInterval,
		}
		if record.RecurrenceUntil != nil {
			until := *record.RecurrenceUntil
			rule.Until = &until
		}
		commitment.Rule = rule
	}
	return commitment, nil
}

func toFreeSlots(slots []availability.FreeInterval) []FreeSlot {
	if len(slots) == 0 {
		return nil
	}
	out := make([]FreeSlot, 0, len(slots))
	for _, slot := range slots {
		out = append(out, FreeSlot{
			OwnerID:         slot.OwnerID,
			Start:           slot.Start,
			End:             slot.End,
			DurationMinutes: slot.DurationMinutes(),
		})
	}
	return out
}

func toGroupResult(group availability.GroupAvailability) GroupAvailabilityResult {
	result := GroupAvailabilityResult{Participants: group.Participants}
	for _, interval := range group.CommonIntervals {
		result.CommonSlots = append(result.CommonSlots, CommonSlot{
			Start:           interval.Start,
			End:             interval.End,
			DurationMinutes: interval.DurationMinutes(),
		})
	}
	for _, suggestion := range group.Suggestions {
		result.Suggestions = append(result.Suggestions, MeetingSuggestion{
			Start:        suggestion.Start,
			End:          suggestion.End,
			Confidence:   suggestion.Confidence,
			Participants: suggestion.Participants,
		})
	}
	return result
}

func dedupeParticipants(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func containsParticipant(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
