package stats

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolbox/internal/domain"
	"github.com/conorfennell/knolbox/internal/storage"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func ev(at time.Time, correct bool) domain.ReviewEvent {
	return domain.ReviewEvent{Timestamp: at, Correct: correct, ResponseTimeMs: 1000}
}

func TestFromCards(t *testing.T) {
	cards := []domain.Card{
		{Box: 1},
		{Box: 6, History: []domain.ReviewEvent{ev(t0, true), ev(t0.Add(24*time.Hour), true)}},
		{Box: 3, History: []domain.ReviewEvent{ev(t0.Add(48*time.Hour), false), ev(t0.Add(49*time.Hour), true)}},
	}

	s := FromCards("alice", cards, time.UTC)

	assert.Equal(t, "alice", s.Owner)
	assert.Equal(t, 3, s.TotalCards)
	assert.Equal(t, map[int]int{1: 1, 3: 1, 6: 1}, s.CardsByBox)
	assert.Equal(t, 1, s.CardsMastered)
	assert.Equal(t, 4, s.TotalReviews)
	assert.Equal(t, 3, s.CorrectAnswers)
	assert.InDelta(t, 0.75, s.AccuracyRate(), 1e-9)
	assert.Equal(t, 3, s.StudyStreak)
	require.NotNil(t, s.LastStudySession)
	assert.True(t, t0.Add(49*time.Hour).Equal(*s.LastStudySession))
}

func TestFromCardsEmpty(t *testing.T) {
	s := FromCards("alice", nil, time.UTC)
	assert.Zero(t, s.TotalCards)
	assert.Zero(t, s.StudyStreak)
	assert.Nil(t, s.LastStudySession)
	assert.Zero(t, s.AccuracyRate())
}

func TestStreak(t *testing.T) {
	testCases := []struct {
		name string
		days []string
		last time.Time
		want int
	}{
		{name: "single day", days: []string{"2025-06-15"}, last: t0, want: 1},
		{name: "three in a row", days: []string{"2025-06-13", "2025-06-14", "2025-06-15"}, last: t0, want: 3},
		{name: "gap breaks the run", days: []string{"2025-06-12", "2025-06-14", "2025-06-15"}, last: t0, want: 2},
		{name: "across month boundary", days: []string{"2025-05-31", "2025-06-01"}, last: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), want: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			set := map[string]bool{}
			for _, d := range tc.days {
				set[d] = true
			}
			assert.Equal(t, tc.want, Streak(set, tc.last, time.UTC))
		})
	}
}

func TestDayKeysRespectTimezone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	late := time.Date(2025, 6, 15, 20, 0, 0, 0, time.UTC) // already the 16th in Tokyo

	assert.Equal(t, "2025-06-15", DayKey(late, time.UTC))
	assert.Equal(t, "2025-06-16", DayKey(late, tokyo))
}

func TestStudyDays(t *testing.T) {
	cards := []domain.Card{
		{History: []domain.ReviewEvent{ev(t0.Add(24*time.Hour), true), ev(t0, false)}},
		{},
		{History: []domain.ReviewEvent{ev(t0.Add(time.Hour), true)}},
	}
	assert.Equal(t, []string{"2025-06-15", "2025-06-16"}, StudyDays(cards, time.UTC))
	assert.Empty(t, StudyDays(nil, time.UTC))
}

func TestEqual(t *testing.T) {
	last := t0
	base := domain.UserStats{TotalCards: 2, CardsByBox: map[int]int{1: 2}, LastStudySession: &last}

	other := base
	other.CardsByBox = map[int]int{1: 2, 4: 0}
	assert.True(t, Equal(base, other), "zero box counts are ignored")

	other = base
	other.CardsByBox = map[int]int{1: 1, 2: 1}
	assert.False(t, Equal(base, other))

	other = base
	other.LastStudySession = nil
	assert.False(t, Equal(base, other))

	later := t0.Add(time.Second)
	other = base
	other.LastStudySession = &later
	assert.False(t, Equal(base, other))
}

func newAggregator(t *testing.T) (*Aggregator, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "stats.db"), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(slog.Default(), db, time.UTC), db
}

func TestAggregatorGetUnknownOwner(t *testing.T) {
	agg, _ := newAggregator(t)

	s, err := agg.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", s.Owner)
	assert.Zero(t, s.TotalCards)

	_, err = agg.Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAggregatorVerifyAndRepair(t *testing.T) {
	ctx := context.Background()
	agg, db := newAggregator(t)

	card := domain.Card{
		Owner:     "alice",
		Prompt:    "p",
		Answer:    "a",
		Box:       2,
		Due:       t0,
		CreatedAt: t0,
		Origin:    domain.OriginManual,
		History:   []domain.ReviewEvent{ev(t0, true)},
	}
	_, err := db.CreateCard(ctx, card)
	require.NoError(t, err)

	// Counters that match the card.
	var d domain.StatsDelta
	d.AddCard(2)
	d.TotalReviews = 1
	d.CorrectAnswers = 1
	d.ReviewedAt = &t0
	require.NoError(t, agg.ApplyDelta(ctx, "alice", d))

	v, err := agg.Verify(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, v.Equal, "stored %+v recomputed %+v", v.Stored, v.Recomputed)

	// Introduce drift, then repair it.
	require.NoError(t, agg.ApplyDelta(ctx, "alice", domain.StatsDelta{TotalReviews: 5}))
	v, err = agg.Verify(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, v.Equal)

	repaired, err := agg.Repair(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, repaired.TotalReviews)

	v, err = agg.Verify(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, v.Equal)
}

func TestAggregatorStreakIgnoresCommitOrder(t *testing.T) {
	ctx := context.Background()
	agg, db := newAggregator(t)

	days := []time.Time{t0.Add(48 * time.Hour), t0, t0.Add(24 * time.Hour)}
	for _, at := range days {
		_, err := db.CreateCard(ctx, domain.Card{
			Owner:     "alice",
			Prompt:    "p " + at.String(),
			Answer:    "a",
			Box:       2,
			Due:       at,
			CreatedAt: t0,
			Origin:    domain.OriginManual,
			History:   []domain.ReviewEvent{ev(at, true)},
		})
		require.NoError(t, err)

		var d domain.StatsDelta
		d.AddCard(2)
		d.TotalReviews = 1
		d.CorrectAnswers = 1
		d.ReviewedAt = &at
		require.NoError(t, agg.ApplyDelta(ctx, "alice", d))
	}

	stored, err := agg.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.StudyStreak)

	v, err := agg.Verify(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, v.Equal, "stored %+v recomputed %+v", v.Stored, v.Recomputed)
}
