package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/freebusy/internal/persistence"
)

// UserRepository captures the persistence interactions needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, id string) (persistence.User, error)
	UpdateUser(ctx context.Context, user persistence.User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]persistence.User, error)
}

// UserService orchestrates validation and persistence for member accounts.
type UserService struct {
	users       UserRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for user operations.
func NewUserService(users UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:       users,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// CreateUser validates the request and stores a new member account. Only
// admins may create accounts.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	if !params.Principal.IsAdmin {
		return User{}, ErrUnauthorized
	}

	input := params.Input
	vErr := &ValidationError{}
	validateUserCore(input, vErr)
	if strings.TrimSpace(input.Password) == "" {
		vErr.add("password", "password is required")
	}
	if vErr.HasErrors() {
		return User{}, vErr
	}

	hash, err := CreatePasswordHash(input.Password, DefaultArgon2idParams)
	if err != nil {
		return User{}, err
	}

	now := s.now()
	record := persistence.User{
		ID:           s.idGenerator(),
		Email:        strings.TrimSpace(strings.ToLower(input.Email)),
		DisplayName:  strings.TrimSpace(input.DisplayName),
		PasswordHash: hash,
		IsAdmin:      input.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, record); err != nil {
		return User{}, mapUserRepoError(err)
	}

	s.loggerWith(ctx, "CreateUser", "user_id", record.ID).InfoContext(ctx, "user created")
	return toUser(record), nil
}

// GetUser returns a single member account.
func (s *UserService) GetUser(ctx context.Context, id string) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	record, err := s.users.GetUser(ctx, id)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return toUser(record), nil
}

// UpdateUser applies validation and authorization before updating an account.
// Members may edit their own display name; only admins may change email or
// admin status, or edit other members.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (User, error) {
	if s == nil || s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	existing, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}

	principal := params.Principal
	input := params.Input
	if params.UserID != principal.UserID && !principal.IsAdmin {
		return User{}, ErrUnauthorized
	}
	if !principal.IsAdmin {
		if !strings.EqualFold(strings.TrimSpace(input.Email), existing.Email) || input.IsAdmin != existing.IsAdmin {
			return User{}, ErrUnauthorized
		}
	}

	vErr := &ValidationError{}
	validateUserCore(input, vErr)
	if vErr.HasErrors() {
		return User{}, vErr
	}

	updated := existing
	updated.Email = strings.TrimSpace(strings.ToLower(input.Email))
	updated.DisplayName = strings.TrimSpace(input.DisplayName)
	updated.IsAdmin = input.IsAdmin
	updated.UpdatedAt = s.now()

	if strings.TrimSpace(input.Password) != "" {
		hash, err := CreatePasswordHash(input.Password, DefaultArgon2idParams)
		if err != nil {
			return User{}, err
		}
		updated.PasswordHash = hash
	}

	if err := s.users.UpdateUser(ctx, updated); err != nil {
		return User{}, mapUserRepoError(err)
	}
	return toUser(updated), nil
}

// DeleteUser removes an account. Only admins may delete accounts.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, id string) error {
	if s == nil || s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return mapUserRepoError(err)
	}
	s.loggerWith(ctx, "DeleteUser", "user_id", id).InfoContext(ctx, "user deleted")
	return nil
}

// ListUsers enumerates all member accounts.
func (s *UserService) ListUsers(ctx context.Context) ([]User, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}
	records, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, mapUserRepoError(err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	users := make([]User, 0, len(records))
	for _, record := range records {
		users = append(users, toUser(record))
	}
	return users, nil
}

func validateUserCore(input UserInput, vErr *ValidationError) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if strings.TrimSpace(input.DisplayName) == "" {
		vErr.add("display_name", "display name is required")
	}
}

func toUser(record persistence.User) User {
	return User{
		ID:          record.ID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
		IsAdmin:     record.IsAdmin,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		vErr := &ValidationError{}
		vErr.add("email", "email is already registered")
		return vErr
	}
	return err
}
