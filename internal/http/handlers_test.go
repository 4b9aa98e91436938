package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/freebusy/internal/application"
)

var handlerTestBase = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

type stubAuthService struct {
	result    application.AuthenticateResult
	authErr   error
	revoked   []string
	revokeErr error
}

func (s *stubAuthService) Authenticate(_ context.Context, _ application.AuthenticateParams) (application.AuthenticateResult, error) {
	if s.authErr != nil {
		return application.AuthenticateResult{}, s.authErr
	}
	return s.result, nil
}

func (s *stubAuthService) RevokeSession(_ context.Context, token string) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revoked = append(s.revoked, token)
	return nil
}

type stubUserService struct {
	created application.User
	err     error
}

func (s *stubUserService) CreateUser(_ context.Context, _ application.CreateUserParams) (application.User, error) {
	return s.created, s.err
}

func (s *stubUserService) GetUser(_ context.Context, _ string) (application.User, error) {
	return s.created, s.err
}

func (s *stubUserService) UpdateUser(_ context.Context, _ application.UpdateUserParams) (application.User, error) {
	return s.created, s.err
}

func (s *stubUserService) DeleteUser(_ context.Context, _ application.Principal, _ string) error {
	return s.err
}

func (s *stubUserService) ListUsers(_ context.Context) ([]application.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []application.User{s.created}, nil
}

type stubCommitmentService struct {
	commitment application.Commitment
	listParams application.ListCommitmentsParams
	err        error
}

func (s *stubCommitmentService) CreateCommitment(_ context.Context, _ application.CreateCommitmentParams) (application.Commitment, error) {
	return s.commitment, s.err
}

func (s *stubCommitmentService) GetCommitment(_ context.Context, _ application.Principal, _ string) (application.Commitment, error) {
	return s.commitment, s.err
}

func (s *stubCommitmentService) UpdateCommitment(_ context.Context, _ application.UpdateCommitmentParams) (application.Commitment, error) {
	return s.commitment, s.err
}

func (s *stubCommitmentService) DeleteCommitment(_ context.Context, _ application.Principal, _ string) error {
	return s.err
}

func (s *stubCommitmentService) ListCommitments(_ context.Context, params application.ListCommitmentsParams) ([]application.Commitment, error) {
	s.listParams = params
	if s.err != nil {
		return nil, s.err
	}
	return []application.Commitment{s.commitment}, nil
}

type stubAvailabilityService struct {
	person      application.PersonAvailabilityResult
	group       application.GroupAvailabilityResult
	groupParams application.GroupAvailabilityParams
	err         error
}

func (s *stubAvailabilityService) PersonAvailability(_ context.Context, _ application.PersonAvailabilityParams) (application.PersonAvailabilityResult, error) {
	if s.err != nil {
		return application.PersonAvailabilityResult{}, s.err
	}
	return s.person, nil
}

func (s *stubAvailabilityService) GroupAvailability(_ context.Context, params application.GroupAvailabilityParams) (application.GroupAvailabilityResult, error) {
	s.groupParams = params
	if s.err != nil {
		return application.GroupAvailabilityResult{}, s.err
	}
	return s.group, nil
}

type staticValidator struct {
	principal application.Principal
	err       error
}

func (v staticValidator) ValidateSession(_ context.Context, _ string) (application.Principal, error) {
	return v.principal, v.err
}

func authedRequest(method, target, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer token")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	return payload
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("login issues session token via cookie and header", func(t *testing.T) {
		t.Parallel()
		expires := handlerTestBase.Add(24 * time.Hour)
		service := &stubAuthService{result: application.AuthenticateResult{
			User:    application.User{ID: "alice", IsAdmin: true},
			Session: application.Session{Token: "tok-123", ExpiresAt: expires},
		}}
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions",
			strings.NewReader(`{"email":"alice@example.com","password":"pw"}`)))

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "tok-123", rec.Header().Get("X-Session-Token"))
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "session_token=tok-123")

		payload := decodeBody(t, rec)
		assert.Equal(t, "tok-123", payload["token"])
		principal, ok := payload["principal"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice", principal["user_id"])
	})

	t.Run("invalid credentials map to 401", func(t *testing.T) {
		t.Parallel()
		service := &stubAuthService{authErr: application.ErrInvalidCredentials}
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions",
			strings.NewReader(`{"email":"alice@example.com","password":"bad"}`)))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		payload := decodeBody(t, rec)
		assert.Equal(t, "AUTH_INVALID_CREDENTIALS", payload["error_code"])
	})

	t.Run("logout revokes the presented token", func(t *testing.T) {
		t.Parallel()
		service := &stubAuthService{}
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(service, nil)})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/sessions/current", ""))

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, []string{"token"}, service.revoked)
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "session_token=;")
	})

	t.Run("logout without a token maps to 401", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(&stubAuthService{}, nil)})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/current", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("login rejects non-POST methods", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(&stubAuthService{}, nil)})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	})
}

func TestUserHandlers(t *testing.T) {
	t.Parallel()

	admin := application.Principal{UserID: "admin", IsAdmin: true}
	user := application.User{
		ID: "u1", Email: "alice@example.com", DisplayName: "Alice",
		CreatedAt: handlerTestBase, UpdatedAt: handlerTestBase,
	}

	newRouter := func(service userService, principal application.Principal) http.Handler {
		return NewRouter(RouterConfig{
			Users:      NewUserHandler(service, nil),
			Middleware: []func(http.Handler) http.Handler{RequireSession(staticValidator{principal: principal}, nil)},
		})
	}

	t.Run("create responds with the stored user", func(t *testing.T) {
		t.Parallel()
		router := newRouter(&stubUserService{created: user}, admin)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/users",
			`{"email":"alice@example.com","display_name":"Alice","password":"pw123456"}`))

		require.Equal(t, http.StatusCreated, rec.Code)
		payload := decodeBody(t, rec)
		dto, ok := payload["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "u1", dto["id"])
	})

	t.Run("service authorization errors map to 403", func(t *testing.T) {
		t.Parallel()
		router := newRouter(&stubUserService{err: application.ErrUnauthorized}, application.Principal{UserID: "member"})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/users",
			`{"email":"x@example.com","display_name":"X","password":"pw"}`))

		require.Equal(t, http.StatusForbidden, rec.Code)
		payload := decodeBody(t, rec)
		assert.Equal(t, "AUTH_FORBIDDEN", payload["error_code"])
	})

	t.Run("validation errors map to 422 with field details", func(t *testing.T) {
		t.Parallel()
		vErr := &application.ValidationError{FieldErrors: map[string]string{"email": "email is invalid"}}
		router := newRouter(&stubUserService{err: vErr}, admin)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/users",
			`{"email":"nope","display_name":"X","password":"pw"}`))

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		payload := decodeBody(t, rec)
		errs, ok := payload["errors"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "email is invalid", errs["email"])
	})

	t.Run("missing users map to 404", func(t *testing.T) {
		t.Parallel()
		router := newRouter(&stubUserService{err: application.ErrNotFound}, admin)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodGet, "/users/missing", ""))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed bodies map to 400", func(t *testing.T) {
		t.Parallel()
		router := newRouter(&stubUserService{created: user}, admin)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/users", `{not json`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCommitmentHandlers(t *testing.T) {
	t.Parallel()

	alice := application.Principal{UserID: "alice"}
	commitment := application.Commitment{
		ID: "c1", OwnerID: "alice", Title: "Standup",
		Start: handlerTestBase.Add(9 * time.Hour), End: handlerTestBase.Add(10 * time.Hour),
		Weekday: time.Monday, Recurring: true,
		Recurrence: &application.RecurrenceInput{Frequency: "weekly", Interval: 1},
		CreatedAt:  handlerTestBase, UpdatedAt: handlerTestBase,
	}

	newRouter := func(service commitmentService) http.Handler {
		return NewRouter(RouterConfig{
			Commitments: NewCommitmentHandler(service, nil),
			Middleware:  []func(http.Handler) http.Handler{RequireSession(staticValidator{principal: alice}, nil)},
		})
	}

	t.Run("create serializes the recurrence rule", func(t *testing.T) {
		t.Parallel()
		router := newRouter(&stubCommitmentService{commitment: commitment})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/commitments",
			`{"title":"Standup","start":"2024-03-04T09:00:00Z","end":"2024-03-04T10:00:00Z","recurring":true,"recurrence":{"frequency":"weekly","interval":1}}`))

		require.Equal(t, http.StatusCreated, rec.Code)
		payload := decodeBody(t, rec)
		dto, ok := payload["commitment"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "monday", dto["weekday"])
		rule, ok := dto["recurrence"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "weekly", rule["frequency"])
	})

	t.Run("invalid timestamps map to 400", func(t *testing.T) {
		t.Parallel()
		router := newRouter(&stubCommitmentService{commitment: commitment})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/commitments",
			`{"title":"X","start":"tomorrow","end":"2024-03-04T10:00:00Z"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list forwards window query parameters", func(t *testing.T) {
		t.Parallel()
		service := &stubCommitmentService{commitment: commitment}
		router := newRouter(service)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodGet,
			"/commitments?starts_after=2024-03-04T00:00:00Z&ends_before=2024-03-11T00:00:00Z", ""))

		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, service.listParams.StartsAfter)
		assert.True(t, service.listParams.StartsAfter.Equal(handlerTestBase))
		require.NotNil(t, service.listParams.EndsBefore)
		assert.True(t, service.listParams.EndsBefore.Equal(handlerTestBase.AddDate(0, 0, 7)))
	})

	t.Run("delete of a foreign commitment maps to 403", func(t *testing.T) {
		t.Parallel()
		router := newRouter(&stubCommitmentService{err: application.ErrUnauthorized})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodDelete, "/commitments/c2", ""))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAvailabilityHandlers(t *testing.T) {
	t.Parallel()

	alice := application.Principal{UserID: "alice"}
	newRouter := func(service availabilityService) http.Handler {
		return NewRouter(RouterConfig{
			Availability: NewAvailabilityHandler(service, nil),
			Middleware:   []func(http.Handler) http.Handler{RequireSession(staticValidator{principal: alice}, nil)},
		})
	}

	t.Run("self returns free slots", func(t *testing.T) {
		t.Parallel()
		service := &stubAvailabilityService{person: application.PersonAvailabilityResult{
			OwnerID: "alice",
			FreeSlots: []application.FreeSlot{{
				OwnerID:         "alice",
				Start:           handlerTestBase.Add(8 * time.Hour),
				End:             handlerTestBase.Add(9 * time.Hour),
				DurationMinutes: 60,
			}},
		}}
		router := newRouter(service)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodGet,
			"/availability/self?range_start=2024-03-04T00:00:00Z&range_end=2024-03-05T00:00:00Z", ""))

		require.Equal(t, http.StatusOK, rec.Code)
		payload := decodeBody(t, rec)
		assert.Equal(t, "alice", payload["owner_id"])
		slots, ok := payload["free_slots"].([]any)
		require.True(t, ok)
		require.Len(t, slots, 1)
		slot, ok := slots[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(60), slot["duration_minutes"])
	})

	t.Run("self requires a range", func(t *testing.T) {
		t.Parallel()
		router := newRouter(&stubAvailabilityService{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodGet, "/availability/self", ""))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("group forwards tuning parameters and returns suggestions", func(t *testing.T) {
		t.Parallel()
		service := &stubAvailabilityService{group: application.GroupAvailabilityResult{
			Participants: []string{"alice", "bob"},
			CommonSlots: []application.CommonSlot{{
				Start:           handlerTestBase.Add(10 * time.Hour),
				End:             handlerTestBase.Add(12 * time.Hour),
				DurationMinutes: 120,
			}},
			Suggestions: []application.MeetingSuggestion{{
				Start:        handlerTestBase.Add(10 * time.Hour),
				End:          handlerTestBase.Add(12 * time.Hour),
				Confidence:   1,
				Participants: []string{"alice", "bob"},
			}},
		}}
		router := newRouter(service)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/availability/group",
			`{"participant_ids":["alice","bob"],"range_start":"2024-03-04T00:00:00Z","range_end":"2024-03-05T00:00:00Z","min_duration_minutes":45,"max_suggestions":3,"max_meeting_length_minutes":90}`))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 45*time.Minute, service.groupParams.MinDuration)
		assert.Equal(t, 3, service.groupParams.MaxSuggestions)
		assert.Equal(t, 90*time.Minute, service.groupParams.MaxMeetingLength)

		payload := decodeBody(t, rec)
		suggestions, ok := payload["suggestions"].([]any)
		require.True(t, ok)
		require.Len(t, suggestions, 1)
	})

	t.Run("group rejects negative tuning values", func(t *testing.T) {
		t.Parallel()
		router := newRouter(&stubAvailabilityService{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest(http.MethodPost, "/availability/group",
			`{"participant_ids":["alice"],"range_start":"2024-03-04T00:00:00Z","range_end":"2024-03-05T00:00:00Z","min_duration_minutes":-5}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
