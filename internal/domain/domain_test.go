package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsDeltaMoveBox(t *testing.T) {
	testCases := []struct {
		name         string
		from, to     int
		wantBoxes    map[int]int
		wantMastered int
	}{
		{name: "promote", from: 2, to: 3, wantBoxes: map[int]int{2: -1, 3: 1}},
		{name: "into mastered", from: 5, to: 6, wantBoxes: map[int]int{5: -1, 6: 1}, wantMastered: 1},
		{name: "out of mastered", from: 6, to: 1, wantBoxes: map[int]int{6: -1, 1: 1}, wantMastered: -1},
		{name: "same box", from: 6, to: 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var d StatsDelta
			d.MoveBox(tc.from, tc.to)
			assert.Equal(t, tc.wantBoxes, d.Boxes)
			assert.Equal(t, tc.wantMastered, d.CardsMastered)
		})
	}
}

func TestStatsDeltaAddCardAndIsZero(t *testing.T) {
	var d StatsDelta
	assert.True(t, d.IsZero())

	d.AddCard(1)
	assert.False(t, d.IsZero())
	assert.Equal(t, 1, d.TotalCards)
	assert.Equal(t, map[int]int{1: 1}, d.Boxes)

	d = StatsDelta{Boxes: map[int]int{3: 0}}
	assert.True(t, d.IsZero())

	now := time.Now()
	d = StatsDelta{ReviewedAt: &now}
	assert.False(t, d.IsZero())
}

func TestUserStats(t *testing.T) {
	s := UserStats{TotalReviews: 4, CorrectAnswers: 3, CardsByBox: map[int]int{2: 5}}
	assert.InDelta(t, 0.75, s.AccuracyRate(), 1e-9)
	assert.Equal(t, 5, s.BoxCount(2))
	assert.Zero(t, s.BoxCount(4))
	assert.Zero(t, UserStats{}.AccuracyRate())
}

func TestCard(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	c := Card{Due: now, History: []ReviewEvent{{Correct: true}, {Correct: false}, {Correct: true}}}

	assert.True(t, c.IsDue(now))
	assert.False(t, c.IsDue(now.Add(-time.Second)))
	assert.Equal(t, 2, c.CorrectCount())

	assert.True(t, OriginCatalog.Valid())
	assert.False(t, Origin("imported").Valid())
}

func TestErrors(t *testing.T) {
	assert.True(t, Retryable(fmt.Errorf("update card: %w", ErrConflict)))
	assert.True(t, Retryable(ErrStoreUnavailable))
	assert.False(t, Retryable(ErrNotFound))
	assert.False(t, Retryable(errors.New("boom")))

	verr := NewValidationError("owner", "is required")
	assert.ErrorIs(t, verr, ErrInvalidInput)
	assert.Equal(t, "validation: owner: is required", verr.Error())

	multi := &ValidationError{Errors: []FieldError{{Field: "a"}, {Field: "b"}}}
	assert.Equal(t, "validation: 2 errors", multi.Error())
}

func TestSyncReportSkip(t *testing.T) {
	var r SyncReport
	r.Skip("c1", "duplicate")
	assert.Equal(t, []SkippedEntry{{EntryID: "c1", Reason: "duplicate"}}, r.Skipped)
}
