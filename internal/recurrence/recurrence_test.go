package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2024-03-04 09:00 UTC.
func baseMonday() time.Time {
	return time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
}

func weeklyCommitment(until *time.Time) Commitment {
	start := baseMonday()
	return Commitment{
		ID:        "commitment-1",
		OwnerID:   "user-1",
		Title:     "standup",
		Start:     start,
		End:       start.Add(90 * time.Minute),
		Weekday:   time.Monday,
		Recurring: true,
		Rule:      &Rule{Frequency: FrequencyWeekly, Interval: 1, Until: until},
	}
}

func TestExpand_NonRecurring(t *testing.T) {
	t.Parallel()

	start := baseMonday()
	commitment := Commitment{
		ID:      "commitment-1",
		OwnerID: "user-1",
		Start:   start,
		End:     start.Add(time.Hour),
		Weekday: time.Monday,
	}

	t.Run("included when it overlaps the range", func(t *testing.T) {
		t.Parallel()

		occurrences, err := Expand(commitment, start.AddDate(0, 0, -1), start.AddDate(0, 0, 1))
		require.NoError(t, err)
		require.Len(t, occurrences, 1)
		assert.Equal(t, "commitment-1", occurrences[0].CommitmentID)
		assert.Equal(t, "user-1", occurrences[0].OwnerID)
		assert.True(t, occurrences[0].Start.Equal(start))
		assert.True(t, occurrences[0].End.Equal(start.Add(time.Hour)))
	})

	t.Run("excluded when outside the range", func(t *testing.T) {
		t.Parallel()

		occurrences, err := Expand(commitment, start.AddDate(0, 0, 7), start.AddDate(0, 0, 14))
		require.NoError(t, err)
		assert.Empty(t, occurrences)
	})

	t.Run("expansion is idempotent across overlapping ranges", func(t *testing.T) {
		t.Parallel()

		first, err := Expand(commitment, start.AddDate(0, 0, -3), start.AddDate(0, 0, 3))
		require.NoError(t, err)
		second, err := Expand(commitment, start.AddDate(0, 0, -1), start.AddDate(0, 0, 5))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestExpand_Recurring(t *testing.T) {
	t.Parallel()

	start := baseMonday()

	t.Run("weekly yields one occurrence per week with identical time of day", func(t *testing.T) {
		t.Parallel()

		occurrences, err := Expand(weeklyCommitment(nil), start, start.AddDate(0, 0, 28))
		require.NoError(t, err)
		require.Len(t, occurrences, 4)
		for i, occ := range occurrences {
			expected := start.AddDate(0, 0, 7*i)
			assert.True(t, occ.Start.Equal(expected), "occurrence %d start", i)
			assert.Equal(t, 90*time.Minute, occ.End.Sub(occ.Start))
			assert.Equal(t, 9, occ.Start.Hour())
		}
	})

	t.Run("no occurrence starts after the until bound", func(t *testing.T) {
		t.Parallel()

		until := start.AddDate(0, 0, 14)
		occurrences, err := Expand(weeklyCommitment(&until), start, start.AddDate(0, 0, 60))
		require.NoError(t, err)
		require.Len(t, occurrences, 3)
		for _, occ := range occurrences {
			assert.False(t, occ.Start.After(until))
		}
	})

	t.Run("fixed step sizes per frequency", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			name      string
			frequency Frequency
			interval  int
			wantGap   time.Duration
		}{
			{name: "weekly", frequency: FrequencyWeekly, interval: 1, wantGap: 7 * 24 * time.Hour},
			{name: "weekly every second", frequency: FrequencyWeekly, interval: 2, wantGap: 14 * 24 * time.Hour},
			{name: "biweekly", frequency: FrequencyBiweekly, interval: 1, wantGap: 14 * 24 * time.Hour},
			{name: "monthly as four weeks", frequency: FrequencyMonthly, interval: 1, wantGap: 28 * 24 * time.Hour},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				commitment := weeklyCommitment(nil)
				commitment.Rule = &Rule{Frequency: tc.frequency, Interval: tc.interval}

				occurrences, err := Expand(commitment, start, start.AddDate(0, 0, 120))
				require.NoError(t, err)
				require.GreaterOrEqual(t, len(occurrences), 2)
				assert.Equal(t, tc.wantGap, occurrences[1].Start.Sub(occurrences[0].Start))
			})
		}
	})

	t.Run("walk stops at range end", func(t *testing.T) {
		t.Parallel()

		occurrences, err := Expand(weeklyCommitment(nil), start, start.AddDate(0, 0, 10))
		require.NoError(t, err)
		require.Len(t, occurrences, 2)
	})
}

func TestExpand_Errors(t *testing.T) {
	t.Parallel()

	start := baseMonday()

	cases := []struct {
		name    string
		mutate  func(*Commitment)
		rangeOK bool
		wantErr error
	}{
		{
			name:    "interval start not before end",
			mutate:  func(c *Commitment) { c.End = c.Start },
			rangeOK: true,
			wantErr: ErrInvalidInterval,
		},
		{
			name:    "inverted range",
			mutate:  func(c *Commitment) {},
			rangeOK: false,
			wantErr: ErrInvalidRange,
		},
		{
			name:    "recurring without rule",
			mutate:  func(c *Commitment) { c.Rule = nil },
			rangeOK: true,
			wantErr: ErrInvalidRecurrence,
		},
		{
			name:    "non-positive interval",
			mutate:  func(c *Commitment) { c.Rule = &Rule{Frequency: FrequencyWeekly, Interval: 0} },
			rangeOK: true,
			wantErr: ErrInvalidRecurrence,
		},
		{
			name:    "unspecified frequency",
			mutate:  func(c *Commitment) { c.Rule = &Rule{Frequency: FrequencyUnspecified, Interval: 1} },
			rangeOK: true,
			wantErr: ErrInvalidRecurrence,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			commitment := weeklyCommitment(nil)
			tc.mutate(&commitment)

			rangeEnd := start.AddDate(0, 0, 28)
			if !tc.rangeOK {
				rangeEnd = start.AddDate(0, 0, -1)
			}

			_, err := Expand(commitment, start, rangeEnd)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestExpandAll_FailsFastOnMalformedEntry(t *testing.T) {
	t.Parallel()

	start := baseMonday()
	bad := weeklyCommitment(nil)
	bad.Rule = &Rule{Frequency: FrequencyWeekly, Interval: -1}

	_, err := ExpandAll([]Commitment{weeklyCommitment(nil), bad}, start, start.AddDate(0, 0, 28))
	require.ErrorIs(t, err, ErrInvalidRecurrence)
}

func TestParseFrequency(t *testing.T) {
	t.Parallel()

	for _, freq := range []Frequency{FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly} {
		parsed, err := ParseFrequency(freq.String())
		require.NoError(t, err)
		assert.Equal(t, freq, parsed)
	}

	_, err := ParseFrequency("quarterly")
	require.ErrorIs(t, err, ErrInvalidRecurrence)
}
