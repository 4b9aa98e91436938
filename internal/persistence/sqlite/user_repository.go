package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/freebusy/internal/persistence"
)

// CreateUser inserts a new member account.
func (s *Storage) CreateUser(ctx context.Context, user persistence.User) error {
	const query = `
		INSERT INTO users (id, email, display_name, password_hash, is_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		boolToInt(user.IsAdmin),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return mapError(err)
}

// GetUser retrieves a user by ID.
func (s *Storage) GetUser(ctx context.Context, id string) (persistence.User, error) {
	const query = `
		SELECT id, email, display_name, password_hash, is_admin, created_at, updated_at
		FROM users WHERE id = ?
	`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email, matched case-insensitively.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	const query = `
		SELECT id, email, display_name, password_hash, is_admin, created_at, updated_at
		FROM users WHERE email = ? COLLATE NOCASE
	`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

// UpdateUser rewrites a stored user record.
func (s *Storage) UpdateUser(ctx context.Context, user persistence.User) error {
	const query = `
		UPDATE users
		SET email = ?, display_name = ?, password_hash = ?, is_admin = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		boolToInt(user.IsAdmin),
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// DeleteUser removes a user; commitments and sessions cascade.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// ListUsers returns all users ordered by creation time, then ID.
func (s *Storage) ListUsers(ctx context.Context) ([]persistence.User, error) {
	const query = `
		SELECT id, email, display_name, password_hash, is_admin, created_at, updated_at
		FROM users ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	users := make([]persistence.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user      persistence.User
		isAdmin   int
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &isAdmin, &createdAt, &updatedAt); err != nil {
		return persistence.User{}, mapError(err)
	}

	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, err
	}
	user.IsAdmin = isAdmin != 0
	return user, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
