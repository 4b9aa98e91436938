package application

import "time"

// Principal represents the authenticated member invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// UserInput captures caller provided user fields.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	IsAdmin     bool
}

// User represents a member account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update an existing user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// RecurrenceInput captures caller provided recurrence fields.
type RecurrenceInput struct {
	Frequency string
	Interval  int
	Until     *time.Time
}

// CommitmentInput captures caller provided commitment fields.
type CommitmentInput struct {
	OwnerID    string
	Title      string
	Start      time.Time
	End        time.Time
	Recurring  bool
	Recurrence *RecurrenceInput
}

// Commitment represents a persisted occupied interval, possibly recurring.
type Commitment struct {
	ID         string
	OwnerID    string
	Title      string
	Start      time.Time
	End        time.Time
	Weekday    time.Weekday
	Recurring  bool
	Recurrence *RecurrenceInput
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateCommitmentParams wraps the data required to create a commitment.
type CreateCommitmentParams struct {
	Principal Principal
	Input     CommitmentInput
}

// UpdateCommitmentParams wraps the data required to update a commitment.
type UpdateCommitmentParams struct {
	Principal    Principal
	CommitmentID string
	Input        CommitmentInput
}

// ListCommitmentsParams wraps the data required to list commitments.
type ListCommitmentsParams struct {
	Principal   Principal
	OwnerID     string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}

// PersonAvailabilityParams describes a single-person free-time query.
type PersonAvailabilityParams struct {
	Principal   Principal
	OwnerID     string
	RangeStart  time.Time
	RangeEnd    time.Time
	MinDuration time.Duration
}

// PersonAvailabilityResult carries one person's free intervals.
type PersonAvailabilityResult struct {
	OwnerID   string
	FreeSlots []FreeSlot
}

// FreeSlot is the service-level view of a derived free interval.
type FreeSlot struct {
	OwnerID         string
	Start           time.Time
	End             time.Time
	DurationMinutes int
}

// GroupAvailabilityParams describes a common-availability query.
type GroupAvailabilityParams struct {
	Principal        Principal
	ParticipantIDs   []string
	RangeStart       time.Time
	RangeEnd         time.Time
	MinDuration      time.Duration
	MaxSuggestions   int
	MaxMeetingLength time.Duration
}

// CommonSlot is a span during which every participant is free.
type CommonSlot struct {
	Start           time.Time
	End             time.Time
	DurationMinutes int
}

// MeetingSuggestion is a ranked candidate meeting window.
type MeetingSuggestion struct {
	Start        time.Time
	End          time.Time
	Confidence   float64
	Participants []string
}

// GroupAvailabilityResult carries the combined result for a participant set.
type GroupAvailabilityResult struct {
	Participants []string
	CommonSlots  []CommonSlot
	Suggestions  []MeetingSuggestion
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}
