package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/freebusy/internal/persistence"
	"github.com/example/freebusy/internal/recurrence"
)

// CommitmentRepository captures the persistence interactions needed by the
// commitment service.
type CommitmentRepository interface {
	CreateCommitment(ctx context.Context, commitment persistence.Commitment) error
	GetCommitment(ctx context.Context, id string) (persistence.Commitment, error)
	UpdateCommitment(ctx context.Context, commitment persistence.Commitment) error
	DeleteCommitment(ctx context.Context, id string) error
	ListCommitments(ctx context.Context, filter persistence.CommitmentFilter) ([]persistence.Commitment, error)
}

// ScheduleInvalidator lets the commitment service evict derived availability
// results when an owner's schedule changes.
type ScheduleInvalidator interface {
	InvalidateOwner(ownerID string)
}

// CommitmentService orchestrates validation, authorization and persistence for
// occupied intervals.
type CommitmentService struct {
	commitments CommitmentRepository
	invalidator ScheduleInvalidator
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCommitmentService wires dependencies for commitment operations. The
// invalidator may be nil when no availability cache is in play.
func NewCommitmentService(commitments CommitmentRepository, invalidator ScheduleInvalidator, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CommitmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CommitmentService{
		commitments: commitments,
		invalidator: invalidator,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *CommitmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CommitmentService", operation, attrs...)
}

// CreateCommitment validates the input and stores a new commitment. Members
// may only create commitments for themselves unless they are admins.
func (s *CommitmentService) CreateCommitment(ctx context.Context, params CreateCommitmentParams) (Commitment, error) {
	if s == nil || s.commitments == nil {
		return Commitment{}, fmt.Errorf("commitment repository not configured")
	}

	input := params.Input
	if input.OwnerID == "" {
		input.OwnerID = params.Principal.UserID
	}
	if input.OwnerID != params.Principal.UserID && !params.Principal.IsAdmin {
		return Commitment{}, ErrUnauthorized
	}

	if err := validateCommitmentInput(input); err != nil {
		return Commitment{}, err
	}

	now := s.now()
	record := persistence.Commitment{
		ID:        s.idGenerator(),
		OwnerID:   input.OwnerID,
		Title:     strings.TrimSpace(input.Title),
		Start:     input.Start,
		End:       input.End,
		Weekday:   input.Start.Weekday(),
		Recurring: input.Recurring,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyRecurrence(&record, input.Recurrence)

	if err := s.commitments.CreateCommitment(ctx, record); err != nil {
		return Commitment{}, mapCommitmentRepoError(err)
	}
	s.invalidate(record.OwnerID)

	s.loggerWith(ctx, "CreateCommitment", "commitment_id", record.ID, "owner_id", record.OwnerID).
		InfoContext(ctx, "commitment created")
	return toCommitment(record), nil
}

// GetCommitment returns a single commitment. Members may only read their own
// commitments unless they are admins.
func (s *CommitmentService) GetCommitment(ctx context.Context, principal Principal, id string) (Commitment, error) {
	if s == nil || s.commitments == nil {
		return Commitment{}, fmt.Errorf("commitment repository not configured")
	}
	record, err := s.commitments.GetCommitment(ctx, id)
	if err != nil {
		return Commitment{}, mapCommitmentRepoError(err)
	}
	if record.OwnerID != principal.UserID && !principal.IsAdmin {
		return Commitment{}, ErrUnauthorized
	}
	return toCommitment(record), nil
}

// UpdateCommitment validates and applies changes to an existing commitment.
// Ownership cannot be transferred.
func (s *CommitmentService) UpdateCommitment(ctx context.Context, params UpdateCommitmentParams) (Commitment, error) {
	if s == nil || s.commitments == nil {
		return Commitment{}, fmt.Errorf("commitment repository not configured")
	}

	existing, err := s.commitments.GetCommitment(ctx, params.CommitmentID)
	if err != nil {
		return Commitment{}, mapCommitmentRepoError(err)
	}
	if existing.OwnerID != params.Principal.UserID && !params.Principal.IsAdmin {
		return Commitment{}, ErrUnauthorized
	}

	input := params.Input
	if input.OwnerID == "" {
		input.OwnerID = existing.OwnerID
	}
	if input.OwnerID != existing.OwnerID {
		vErr := &ValidationError{}
		vErr.add("owner_id", "commitment ownership cannot be transferred")
		return Commitment{}, vErr
	}
	if err := validateCommitmentInput(input); err != nil {
		return Commitment{}, err
	}

	updated := existing
	updated.Title = strings.TrimSpace(input.Title)
	updated.Start = input.Start
	updated.End = input.End
	updated.Weekday = input.Start.Weekday()
	updated.Recurring = input.Recurring
	updated.Frequency = ""
	updated.RecurrenceInterval = 0
	updated.RecurrenceUntil = nil
	applyRecurrence(&updated, input.Recurrence)
	updated.UpdatedAt = s.now()

	if err := s.commitments.UpdateCommitment(ctx, updated); err != nil {
		return Commitment{}, mapCommitmentRepoError(err)
	}
	s.invalidate(updated.OwnerID)
	return toCommitment(updated), nil
}

// DeleteCommitment removes a commitment owned by the principal, or any
// commitment when the principal is an admin.
func (s *CommitmentService) DeleteCommitment(ctx context.Context, principal Principal, id string) error {
	if s == nil || s.commitments == nil {
		return fmt.Errorf("commitment repository not configured")
	}
	existing, err := s.commitments.GetCommitment(ctx, id)
	if err != nil {
		return mapCommitmentRepoError(err)
	}
	if existing.OwnerID != principal.UserID && !principal.IsAdmin {
		return ErrUnauthorized
	}
	if err := s.commitments.DeleteCommitment(ctx, id); err != nil {
		return mapCommitmentRepoError(err)
	}
	s.invalidate(existing.OwnerID)

	s.loggerWith(ctx, "DeleteCommitment", "commitment_id", id, "owner_id", existing.OwnerID).
		InfoContext(ctx, "commitment deleted")
	return nil
}

// ListCommitments enumerates commitments for a single owner, optionally
// bounded by a time window. Members may only list their own commitments
// unless they are admins.
func (s *CommitmentService) ListCommitments(ctx context.Context, params ListCommitmentsParams) ([]Commitment, error) {
	if s == nil || s.commitments == nil {
		return nil, fmt.Errorf("commitment repository not configured")
	}

	ownerID := params.OwnerID
	if ownerID == "" {
		ownerID = params.Principal.UserID
	}
	if ownerID != params.Principal.UserID && !params.Principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	records, err := s.commitments.ListCommitments(ctx, persistence.CommitmentFilter{
		OwnerIDs:    []string{ownerID},
		StartsAfter: params.StartsAfter,
		EndsBefore:  params.EndsBefore,
	})
	if err != nil {
		return nil, mapCommitmentRepoError(err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	commitments := make([]Commitment, 0, len(records))
	for _, record := range records {
		commitments = append(commitments, toCommitment(record))
	}
	return commitments, nil
}

func (s *CommitmentService) invalidate(ownerID string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateOwner(ownerID)
	}
}

func validateCommitmentInput(input CommitmentInput) error {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.add("end", "end must be after start")
	}

	if input.Recurring {
		if input.Recurrence == nil {
			vErr.add("recurrence", "recurrence is required for recurring commitments")
		} else {
			if _, err := recurrence.ParseFrequency(input.Recurrence.Frequency); err != nil {
				vErr.add("recurrence.frequency", "frequency must be one of weekly, biweekly, monthly")
			}
			if input.Recurrence.Interval <= 0 {
				vErr.add("recurrence.interval", "interval must be a positive integer")
			}
			if input.Recurrence.Until != nil && !input.Recurrence.Until.After(input.Start) {
				vErr.add("recurrence.until", "until must be after start")
			}
		}
	} else if input.Recurrence != nil {
		vErr.add("recurrence", "recurrence is only valid for recurring commitments")
	}

	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func applyRecurrence(record *persistence.Commitment, input *RecurrenceInput) {
	if input == nil {
		return
	}
	record.Frequency = input.Frequency
	record.RecurrenceInterval = input.Interval
	if input.Until != nil {
		until := *input.Until
		record.RecurrenceUntil = &until
	}
}

func toCommitment(record persistence.Commitment) Commitment {
	commitment := Commitment{
		ID:        record.ID,
		OwnerID:   record.OwnerID,
		Title:     record.Title,
		Start:     record.Start,
		End:       record.End,
		Weekday:   record.Weekday,
		Recurring: record.Recurring,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if record.Recurring {
		commitment.Recurrence = &RecurrenceInput{
			Frequency: record.Frequency,
			Interval:  record.RecurrenceInterval,
		}
		if record.RecurrenceUntil != nil {
			until := *record.RecurrenceUntil
			commitment.Recurrence.Until = &until
		}
	}
	return commitment
}

func mapCommitmentRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("owner_id", "owner does not exist")
		return vErr
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("end", "end must be after start")
		return vErr
	}
	return err
}
