package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/freebusy/internal/persistence"
)

// CreateCommitment inserts a new commitment row.
func (s *Storage) CreateCommitment(ctx context.Context, commitment persistence.Commitment) error {
	const query = `
		INSERT INTO commitments (
			id, owner_id, title, start_time, end_time, weekday,
			recurring, frequency, recurrence_interval, recurrence_until,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		commitment.ID,
		commitment.OwnerID,
		commitment.Title,
		formatTime(commitment.Start),
		formatTime(commitment.End),
		int(commitment.Weekday),
		boolToInt(commitment.Recurring),
		nullableString(commitment.Frequency),
		nullableInt(commitment.RecurrenceInterval),
		formatNullableTime(commitment.RecurrenceUntil),
		formatTime(commitment.CreatedAt),
		formatTime(commitment.UpdatedAt),
	)
	return mapError(err)
}

// GetCommitment retrieves a commitment by ID.
func (s *Storage) GetCommitment(ctx context.Context, id string) (persistence.Commitment, error) {
	row := s.db.QueryRowContext(ctx, selectCommitment+` WHERE id = ?`, id)
	return scanCommitment(row)
}

// UpdateCommitment rewrites a stored commitment.
func (s *Storage) UpdateCommitment(ctx context.Context, commitment persistence.Commitment) error {
	const query = `
		UPDATE commitments
		SET title = ?, start_time = ?, end_time = ?, weekday = ?,
			recurring = ?, frequency = ?, recurrence_interval = ?, recurrence_until = ?,
			updated_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		commitment.Title,
		formatTime(commitment.Start),
		formatTime(commitment.End),
		int(commitment.Weekday),
		boolToInt(commitment.Recurring),
		nullableString(commitment.Frequency),
		nullableInt(commitment.RecurrenceInterval),
		formatNullableTime(commitment.RecurrenceUntil),
		formatTime(commitment.UpdatedAt),
		commitment.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// DeleteCommitment removes a commitment by ID.
func (s *Storage) DeleteCommitment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM commitments WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return requireRowAffected(result)
}

// ListCommitments returns commitments matching the filter ordered by start
// time, then ID. An owner filter with no IDs matches nothing.
func (s *Storage) ListCommitments(ctx context.Context, filter persistence.CommitmentFilter) ([]persistence.Commitment, error) {
	query := selectCommitment
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if filter.OwnerIDs != nil {
		if len(filter.OwnerIDs) == 0 {
			return nil, nil
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.OwnerIDs)), ", ")
		conditions = append(conditions, "owner_id IN ("+placeholders+")")
		for _, id := range filter.OwnerIDs {
			args = append(args, id)
		}
	}
	if filter.StartsAfter != nil {
		// Recurring rows repeat past their stored end, so the time filter only
		// prunes non-recurring rows; recurrence bounds are applied by the
		// expander.
		conditions = append(conditions, "(recurring = 1 OR end_time > ?)")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	commitments := make([]persistence.Commitment, 0)
	for rows.Next() {
		commitment, err := scanCommitment(rows)
		if err != nil {
			return nil, err
		}
		commitments = append(commitments, commitment)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	if len(commitments) == 0 {
		return nil, nil
	}
	return commitments, nil
}

const selectCommitment = `
	SELECT id, owner_id, title, start_time, end_time, weekday,
		recurring, frequency, recurrence_interval, recurrence_until,
		created_at, updated_at
	FROM commitments
`

func scanCommitment(row rowScanner) (persistence.Commitment, error) {
	var (
		commitment persistence.Commitment
		weekday    int
		recurring  int
		frequency  sql.NullString
		interval   sql.NullInt64
		until      sql.NullString
		startTime  string
		endTime    string
		createdAt  string
		updatedAt  string
	)
	err := row.Scan(
		&commitment.ID,
		&commitment.OwnerID,
		&commitment.Title,
		&startTime,
		&endTime,
		&weekday,
		&recurring,
		&frequency,
		&interval,
		&until,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Commitment{}, mapError(err)
	}

	if commitment.Start, err = parseTime(startTime); err != nil {
		return persistence.Commitment{}, err
	}
	if commitment.End, err = parseTime(endTime); err != nil {
		return persistence.Commitment{}, err
	}
	if commitment.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Commitment{}, err
	}
	if commitment.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Commitment{}, err
	}
	if commitment.RecurrenceUntil, err = parseNullableTime(until); err != nil {
		return persistence.Commitment{}, err
	}

	commitment.Weekday = time.Weekday(weekday)
	commitment.Recurring = recurring != 0
	if frequency.Valid {
		commitment.Frequency = frequency.String
	}
	if interval.Valid {
		commitment.RecurrenceInterval = int(interval.Int64)
	}
	return commitment, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullableInt(value int) sql.NullInt64 {
	if value == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(value), Valid: true}
}
