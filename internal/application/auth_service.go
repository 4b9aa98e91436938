package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/freebusy/internal/persistence"
)

// DefaultSessionTTL bounds session lifetime when no override is configured.
const DefaultSessionTTL = 24 * time.Hour

// CredentialRepository looks up accounts for authentication.
type CredentialRepository interface {
	GetUserByEmail(ctx context.Context, email string) (persistence.User, error)
	GetUser(ctx context.Context, id string) (persistence.User, error)
}

// SessionRepository captures the persistence interactions needed by the auth
// service.
type SessionRepository interface {
	CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error)
	GetSession(ctx context.Context, token string) (persistence.Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// AuthService issues, validates and revokes bearer sessions.
type AuthService struct {
	credentials    CredentialRepository
	sessions       SessionRepository
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService wires dependencies for authentication operations.
func NewAuthService(credentials CredentialRepository, sessions SessionRepository, idGenerator, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = idGenerator
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &AuthService{
		credentials:    credentials,
		sessions:       sessions,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate verifies the email and password pair and issues a new session.
// Expired sessions are pruned opportunistically on each successful login.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (AuthenticateResult, error) {
	if s == nil || s.credentials == nil || s.sessions == nil {
		return AuthenticateResult{}, fmt.Errorf("auth repositories not configured")
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	if email == "" || params.Password == "" {
		return AuthenticateResult{}, ErrInvalidCredentials
	}

	record, err := s.credentials.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return AuthenticateResult{}, ErrInvalidCredentials
		}
		return AuthenticateResult{}, err
	}
	if err := VerifyPassword(record.PasswordHash, params.Password); err != nil {
		return AuthenticateResult{}, err
	}

	now := s.now()
	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		s.loggerWith(ctx, "Authenticate").WarnContext(ctx, "failed to prune expired sessions", "error", err)
	}

	session := persistence.Session{
		ID:        s.idGenerator(),
		UserID:    record.ID,
		Token:     s.tokenGenerator(),
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	stored, err := s.sessions.CreateSession(ctx, session)
	if err != nil {
		return AuthenticateResult{}, err
	}

	s.loggerWith(ctx, "Authenticate", "user_id", record.ID, "session_id", stored.ID).
		InfoContext(ctx, "session issued")
	return AuthenticateResult{
		User:    toUser(record),
		Session: toSession(stored),
	}, nil
}

// ValidateSession resolves a bearer token to the acting principal. Expired and
// revoked sessions are rejected with dedicated errors.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.credentials == nil || s.sessions == nil {
		return Principal{}, fmt.Errorf("auth repositories not configured")
	}
	if token == "" {
		return Principal{}, ErrUnauthorized
	}

	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}
	if session.RevokedAt != nil {
		return Principal{}, ErrSessionRevoked
	}
	if !s.now().Before(session.ExpiresAt) {
		return Principal{}, ErrSessionExpired
	}

	user, err := s.credentials.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Principal{}, ErrUnauthorized
		}
		return Principal{}, err
	}
	return Principal{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

// RevokeSession invalidates the session identified by token. Revoking an
// unknown or already revoked session reports ErrNotFound.
func (s *AuthService) RevokeSession(ctx context.Context, token string) error {
	if s == nil || s.sessions == nil {
		return fmt.Errorf("auth repositories not configured")
	}
	if _, err := s.sessions.RevokeSession(ctx, token, s.now()); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func toSession(record persistence.Session) Session {
	session := Session{
		ID:        record.ID,
		UserID:    record.UserID,
		Token:     record.Token,
		ExpiresAt: record.ExpiresAt,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if record.RevokedAt != nil {
		revokedAt := *record.RevokedAt
		session.RevokedAt = &revokedAt
	}
	return session
}
