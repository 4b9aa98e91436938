package persistence

import "time"

// User represents a member account stored in persistence.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Commitment represents a stored occupied interval, possibly recurring. The
// recurrence columns are populated iff Recurring is true.
type Commitment struct {
	ID                 string
	OwnerID            string
	Title              string
	Start              time.Time
	End                time.Time
	Weekday            time.Weekday
	Recurring          bool
	Frequency          string
	RecurrenceInterval int
	RecurrenceUntil    *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// CommitmentFilter narrows queries issued to the commitment repository.
type CommitmentFilter struct {
	OwnerIDs    []string
	StartsAfter *time.Time
	EndsBefore  *time.Time
}
