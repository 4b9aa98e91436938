package testfixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/freebusy/internal/recurrence"
)

func TestUserFixtureDefaultsAndOverrides(t *testing.T) {
	first := NewUserFixture()
	second := NewUserFixture(WithAdmin(), WithUserEmail("boss@example.com"))

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.IsAdmin)
	assert.True(t, second.IsAdmin)
	assert.Equal(t, "boss@example.com", second.Email)

	principal := second.Principal()
	assert.Equal(t, second.ID, principal.UserID)
	assert.True(t, principal.IsAdmin)

	record := first.Persistence()
	assert.Equal(t, first.Email, record.Email)
	assert.Equal(t, first.PasswordHash, record.PasswordHash)
}

func TestCommitmentFixtureEngineConversion(t *testing.T) {
	until := ReferenceTime().AddDate(0, 1, 0)
	fixture := NewCommitmentFixture(
		WithCommitmentOwner("user-042"),
		WithWeeklyRecurrence(2, &until),
	)

	engine := fixture.Engine()
	assert.Equal(t, "user-042", engine.OwnerID)
	assert.True(t, engine.Recurring)
	require.NotNil(t, engine.Rule)
	assert.Equal(t, recurrence.FrequencyWeekly, engine.Rule.Frequency)
	assert.Equal(t, 2, engine.Rule.Interval)
	require.NotNil(t, engine.Rule.Until)
	assert.True(t, engine.Rule.Until.Equal(until))

	record := fixture.Persistence()
	assert.Equal(t, fixture.Start.Weekday(), record.Weekday)
	assert.Equal(t, "weekly", record.Frequency)
}

func TestSessionFixtureRevocation(t *testing.T) {
	revokedAt := ReferenceTime().Add(time.Hour)
	fixture := NewSessionFixture(WithSessionUser("user-007"), Revoked(revokedAt))

	record := fixture.Persistence()
	assert.Equal(t, "user-007", record.UserID)
	require.NotNil(t, record.RevokedAt)
	assert.True(t, record.RevokedAt.Equal(revokedAt))
}

func TestClockAndIDGenerator(t *testing.T) {
	clock := NewClock(time.Time{})
	assert.True(t, clock.Now().Equal(ReferenceTime()))

	updated := clock.Advance(90 * time.Minute)
	assert.True(t, updated.Equal(ReferenceTime().Add(90*time.Minute)))

	nowFn := clock.NowFunc()
	clock.Set(ReferenceTime().Add(2 * time.Hour))
	assert.True(t, nowFn().Equal(ReferenceTime().Add(2*time.Hour)))

	gen := NewIDGenerator("widget")
	assert.Equal(t, "widget-1", gen.Next())
	assert.Equal(t, "widget-2", gen.NextFunc()())
}
