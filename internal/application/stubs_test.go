package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/freebusy/internal/persistence"
)

var testBase = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

func testAt(day int, hour, minute int) time.Time {
	return testBase.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func fixedNow() time.Time {
	return time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func sequentialIDs(prefix string) func() string {
	counter := 0
	return func() string {
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}
}

type stubUserRepo struct {
	users map[string]persistence.User
	err   error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]persistence.User)}
}

func (r *stubUserRepo) CreateUser(_ context.Context, user persistence.User) error {
	if r.err != nil {
		return r.err
	}
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return persistence.ErrDuplicate
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) GetUser(_ context.Context, id string) (persistence.User, error) {
	if r.err != nil {
		return persistence.User{}, r.err
	}
	user, ok := r.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) GetUserByEmail(_ context.Context, email string) (persistence.User, error) {
	if r.err != nil {
		return persistence.User{}, r.err
	}
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

func (r *stubUserRepo) UpdateUser(_ context.Context, user persistence.User) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) DeleteUser(_ context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) ListUsers(_ context.Context) ([]persistence.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	users := make([]persistence.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

type stubCommitmentRepo struct {
	commitments map[string]persistence.Commitment
	err         error
}

func newStubCommitmentRepo() *stubCommitmentRepo {
	return &stubCommitmentRepo{commitments: make(map[string]persistence.Commitment)}
}

func (r *stubCommitmentRepo) CreateCommitment(_ context.Context, commitment persistence.Commitment) error {
	if r.err != nil {
		return r.err
	}
	r.commitments[commitment.ID] = commitment
	return nil
}

func (r *stubCommitmentRepo) GetCommitment(_ context.Context, id string) (persistence.Commitment, error) {
	if r.err != nil {
		return persistence.Commitment{}, r.err
	}
	commitment, ok := r.commitments[id]
	if !ok {
		return persistence.Commitment{}, persistence.ErrNotFound
	}
	return commitment, nil
}

func (r *stubCommitmentRepo) UpdateCommitment(_ context.Context, commitment persistence.Commitment) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.commitments[commitment.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.commitments[commitment.ID] = commitment
	return nil
}

func (r *stubCommitmentRepo) DeleteCommitment(_ context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.commitments[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.commitments, id)
	return nil
}

func (r *stubCommitmentRepo) ListCommitments(_ context.Context, filter persistence.CommitmentFilter) ([]persistence.Commitment, error) {
	if r.err != nil {
		return nil, r.err
	}
	var results []persistence.Commitment
	for _, commitment := range r.commitments {
		if filter.OwnerIDs != nil && !containsParticipant(filter.OwnerIDs, commitment.OwnerID) {
			continue
		}
		if filter.StartsAfter != nil && !commitment.Recurring && !commitment.End.After(*filter.StartsAfter) {
			continue
		}
		if filter.EndsBefore != nil && !commitment.Start.Before(*filter.EndsBefore) {
			continue
		}
		results = append(results, commitment)
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].Start.Equal(results[j].Start) {
			return results[i].Start.Before(results[j].Start)
		}
		return results[i].ID < results[j].ID
	})
	return results, nil
}

type stubSessionRepo struct {
	sessions map[string]persistence.Session
	err      error
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[string]persistence.Session)}
}

func (r *stubSessionRepo) CreateSession(_ context.Context, session persistence.Session) (persistence.Session, error) {
	if r.err != nil {
		return persistence.Session{}, r.err
	}
	r.sessions[session.Token] = session
	return session, nil
}

func (r *stubSessionRepo) GetSession(_ context.Context, token string) (persistence.Session, error) {
	if r.err != nil {
		return persistence.Session{}, r.err
	}
	session, ok := r.sessions[token]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (r *stubSessionRepo) RevokeSession(_ context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	if r.err != nil {
		return persistence.Session{}, r.err
	}
	session, ok := r.sessions[token]
	if !ok || session.RevokedAt != nil {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session.RevokedAt = &revokedAt
	session.UpdatedAt = revokedAt
	r.sessions[token] = session
	return session, nil
}

func (r *stubSessionRepo) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	if r.err != nil {
		return r.err
	}
	for token, session := range r.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(r.sessions, token)
		}
	}
	return nil
}

type recordingInvalidator struct {
	owners []string
}

func (r *recordingInvalidator) InvalidateOwner(ownerID string) {
	r.owners = append(r.owners, ownerID)
}
