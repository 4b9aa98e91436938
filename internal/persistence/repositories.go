// Package persistence defines the storage contracts and records shared by the
// repository implementations and the application services.
package persistence

import (
	"context"
	"time"
)

// UserRepository stores member accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)
}

// CommitmentRepository stores occupied intervals per owner.
type CommitmentRepository interface {
	CreateCommitment(ctx context.Context, commitment Commitment) error
	GetCommitment(ctx context.Context, id string) (Commitment, error)
	UpdateCommitment(ctx context.Context, commitment Commitment) error
	DeleteCommitment(ctx context.Context, id string) error
	ListCommitments(ctx context.Context, filter CommitmentFilter) ([]Commitment, error)
}

// SessionRepository stores issued authentication sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
