package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/freebusy/internal/persistence"
)

func seedCredential(t *testing.T, repo *stubUserRepo, id, email, password string, isAdmin bool) {
	t.Helper()
	hash, err := CreatePasswordHash(password, DefaultArgon2idParams)
	require.NoError(t, err)
	repo.users[id] = persistence.User{
		ID:           id,
		Email:        email,
		DisplayName:  id,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		CreatedAt:    fixedNow(),
		UpdatedAt:    fixedNow(),
	}
}

func TestAuthServiceAuthenticate(t *testing.T) {
	t.Parallel()

	t.Run("issues a session for valid credentials", func(t *testing.T) {
		t.Parallel()
		users := newStubUserRepo()
		sessions := newStubSessionRepo()
		seedCredential(t, users, "alice", "alice@example.com", "correct-horse", false)

		service := NewAuthService(users, sessions, sequentialIDs("session"), sequentialIDs("token"), fixedNow, time.Hour, nil)
		result, err := service.Authenticate(context.Background(), AuthenticateParams{
			Email:    "Alice@Example.com",
			Password: "correct-horse",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", result.User.ID)
		assert.Equal(t, "token-1", result.Session.Token)
		assert.True(t, result.Session.ExpiresAt.Equal(fixedNow().Add(time.Hour)))
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		t.Parallel()
		users := newStubUserRepo()
		seedCredential(t, users, "alice", "alice@example.com", "correct-horse", false)

		service := NewAuthService(users, newStubSessionRepo(), sequentialIDs("session"), nil, fixedNow, time.Hour, nil)
		_, err := service.Authenticate(context.Background(), AuthenticateParams{
			Email:    "alice@example.com",
			Password: "wrong",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejects an unknown email without leaking existence", func(t *testing.T) {
		t.Parallel()
		service := NewAuthService(newStubUserRepo(), newStubSessionRepo(), sequentialIDs("session"), nil, fixedNow, time.Hour, nil)
		_, err := service.Authenticate(context.Background(), AuthenticateParams{
			Email:    "ghost@example.com",
			Password: "whatever",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("prunes expired sessions on login", func(t *testing.T) {
		t.Parallel()
		users := newStubUserRepo()
		sessions := newStubSessionRepo()
		seedCredential(t, users, "alice", "alice@example.com", "correct-horse", false)
		sessions.sessions["stale"] = persistence.Session{
			ID: "old", UserID: "alice", Token: "stale",
			ExpiresAt: fixedNow().Add(-time.Minute),
		}

		service := NewAuthService(users, sessions, sequentialIDs("session"), sequentialIDs("token"), fixedNow, time.Hour, nil)
		_, err := service.Authenticate(context.Background(), AuthenticateParams{
			Email:    "alice@example.com",
			Password: "correct-horse",
		})
		require.NoError(t, err)
		_, stale := sessions.sessions["stale"]
		assert.False(t, stale)
	})
}

func TestAuthServiceValidateSession(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*AuthService, *stubSessionRepo) {
		t.Helper()
		users := newStubUserRepo()
		sessions := newStubSessionRepo()
		seedCredential(t, users, "admin", "admin@example.com", "pw", true)
		service := NewAuthService(users, sessions, sequentialIDs("session"), sequentialIDs("token"), fixedNow, time.Hour, nil)
		return service, sessions
	}

	t.Run("resolves a live session to its principal", func(t *testing.T) {
		t.Parallel()
		service, sessions := setup(t)
		sessions.sessions["tok"] = persistence.Session{
			ID: "s1", UserID: "admin", Token: "tok",
			ExpiresAt: fixedNow().Add(time.Hour),
		}

		principal, err := service.ValidateSession(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, Principal{UserID: "admin", IsAdmin: true}, principal)
	})

	t.Run("rejects expired sessions", func(t *testing.T) {
		t.Parallel()
		service, sessions := setup(t)
		sessions.sessions["tok"] = persistence.Session{
			ID: "s1", UserID: "admin", Token: "tok",
			ExpiresAt: fixedNow(),
		}

		_, err := service.ValidateSession(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrSessionExpired)
	})

	t.Run("rejects revoked sessions", func(t *testing.T) {
		t.Parallel()
		service, sessions := setup(t)
		revokedAt := fixedNow().Add(-time.Minute)
		sessions.sessions["tok"] = persistence.Session{
			ID: "s1", UserID: "admin", Token: "tok",
			ExpiresAt: fixedNow().Add(time.Hour),
			RevokedAt: &revokedAt,
		}

		_, err := service.ValidateSession(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrSessionRevoked)
	})

	t.Run("rejects unknown and empty tokens", func(t *testing.T) {
		t.Parallel()
		service, _ := setup(t)

		_, err := service.ValidateSession(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = service.ValidateSession(context.Background(), "")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestAuthServiceRevokeSession(t *testing.T) {
	t.Parallel()

	users := newStubUserRepo()
	sessions := newStubSessionRepo()
	sessions.sessions["tok"] = persistence.Session{
		ID: "s1", UserID: "alice", Token: "tok",
		ExpiresAt: fixedNow().Add(time.Hour),
	}
	service := NewAuthService(users, sessions, sequentialIDs("session"), nil, fixedNow, time.Hour, nil)

	require.NoError(t, service.RevokeSession(context.Background(), "tok"))
	require.NotNil(t, sessions.sessions["tok"].RevokedAt)

	// A second revocation of the same token reports not found.
	assert.ErrorIs(t, service.RevokeSession(context.Background(), "tok"), ErrNotFound)
	assert.ErrorIs(t, service.RevokeSession(context.Background(), "unknown"), ErrNotFound)
}
