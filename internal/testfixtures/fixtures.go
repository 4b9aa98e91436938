package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/freebusy/internal/application"
	"github.com/example/freebusy/internal/persistence"
	"github.com/example/freebusy/internal/recurrence"
)

var (
	userCounter       uint64
	commitmentCounter uint64
	sessionCounter    uint64
)

// referenceTime is a Monday so weekday derived fixtures stay predictable.
var referenceTime = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic member record that can be
// materialised for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithAdmin marks the fixture as an administrator.
func WithAdmin() UserOption {
	return func(f *UserFixture) {
		f.IsAdmin = true
	}
}

// WithUserPasswordHash overrides the stored password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		IsAdmin:     f.IsAdmin,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, IsAdmin: f.IsAdmin}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		IsAdmin:      f.IsAdmin,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// -------------------------- Commitment fixtures ---------------------------

// CommitmentFixture represents a deterministic occupied interval, optionally
// recurring.
type CommitmentFixture struct {
	ID                 string
	OwnerID            string
	Title              string
	Start              time.Time
	End                time.Time
	Recurring          bool
	Frequency          string
	RecurrenceInterval int
	RecurrenceUntil    *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CommitmentOption configures the generated commitment fixture.
type CommitmentOption func(*CommitmentFixture)

// NewCommitmentFixture returns a deterministic commitment fixture with
// optional overrides. Consecutive fixtures occupy consecutive hours of the
// reference Monday.
func NewCommitmentFixture(opts ...CommitmentOption) CommitmentFixture {
	idx := atomic.AddUint64(&commitmentCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := CommitmentFixture{
		ID:        fmt.Sprintf("commitment-%03d", idx),
		OwnerID:   "user-001",
		Title:     fmt.Sprintf("Commitment %03d", idx),
		Start:     start,
		End:       start.Add(time.Hour),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithCommitmentID overrides the generated commitment ID.
func WithCommitmentID(id string) CommitmentOption {
	return func(f *CommitmentFixture) {
		f.ID = id
	}
}

// WithCommitmentOwner overrides the owning user.
func WithCommitmentOwner(ownerID string) CommitmentOption {
	return func(f *CommitmentFixture) {
		f.OwnerID = ownerID
	}
}

// WithCommitmentSpan sets the occupied interval.
func WithCommitmentSpan(start, end time.Time) CommitmentOption {
	return func(f *CommitmentFixture) {
		f.Start = start
		f.End = end
	}
}

// WithWeeklyRecurrence marks the fixture as repeating weekly.
func WithWeeklyRecurrence(interval int, until *time.Time) CommitmentOption {
	return func(f *CommitmentFixture) {
		f.Recurring = true
		f.Frequency = "weekly"
		f.RecurrenceInterval = interval
		f.RecurrenceUntil = until
	}
}

// Persistence returns the fixture as a persistence.Commitment value.
func (f CommitmentFixture) Persistence() persistence.Commitment {
	return persistence.Commitment{
		ID:                 f.ID,
		OwnerID:            f.OwnerID,
		Title:              f.Title,
		Start:              f.Start,
		End:                f.End,
		Weekday:            f.Start.Weekday(),
		Recurring:          f.Recurring,
		Frequency:          f.Frequency,
		RecurrenceInterval: f.RecurrenceInterval,
		RecurrenceUntil:    f.RecurrenceUntil,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
}

// Engine returns the fixture as a recurrence.Commitment for direct engine use.
func (f CommitmentFixture) Engine() recurrence.Commitment {
	commitment := recurrence.Commitment{
		ID:        f.ID,
		OwnerID:   f.OwnerID,
		Title:     f.Title,
		Start:     f.Start,
		End:       f.End,
		Weekday:   f.Start.Weekday(),
		Recurring: f.Recurring,
	}
	if f.Recurring {
		frequency, err := recurrence.ParseFrequency(f.Frequency)
		if err == nil {
			commitment.Rule = &recurrence.Rule{
				Frequency: frequency,
				Interval:  f.RecurrenceInterval,
				Until:     f.RecurrenceUntil,
			}
		}
	}
	return commitment
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic authenticated session.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional
// overrides. Sessions expire a day after the reference time by default.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    "user-001",
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(24 * time.Hour),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUser overrides the owning user.
func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionExpiry overrides the expiry instant.
func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = expiresAt
	}
}

// Revoked marks the session as revoked at the given instant.
func Revoked(revokedAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &revokedAt
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}
