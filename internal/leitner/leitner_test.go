package leitner

import (
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func TestDue(t *testing.T) {
	testCases := []struct {
		box  int
		want time.Duration
	}{
		{box: 1, want: 0},
		{box: 2, want: 24 * time.Hour},
		{box: 3, want: 3 * 24 * time.Hour},
		{box: 4, want: 7 * 24 * time.Hour},
		{box: 5, want: 14 * 24 * time.Hour},
		{box: 6, want: 30 * 24 * time.Hour},
	}

	for _, tc := range testCases {
		got := Due(tc.box, t0)
		if !got.Equal(t0.Add(tc.want)) {
			t.Errorf("Due(%d) = %v, want %v", tc.box, got, t0.Add(tc.want))
		}
		if Offset(tc.box) != tc.want {
			t.Errorf("Offset(%d) = %v, want %v", tc.box, Offset(tc.box), tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	testCases := []struct {
		name string
		box  int
		want int
	}{
		{name: "below range", box: 0, want: 1},
		{name: "negative", box: -3, want: 1},
		{name: "in range", box: 4, want: 4},
		{name: "above range", box: 9, want: 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clamp(tc.box); got != tc.want {
				t.Errorf("Clamp(%d) = %d, want %d", tc.box, got, tc.want)
			}
		})
	}

	t.Run("out of range box uses clamped offset", func(t *testing.T) {
		if Offset(42) != Offset(6) {
			t.Errorf("Offset(42) = %v, want %v", Offset(42), Offset(6))
		}
	})
}

func TestNextBox(t *testing.T) {
	t.Run("correct promotes one box", func(t *testing.T) {
		for box := 1; box <= 5; box++ {
			if got := NextBox(box, true); got != box+1 {
				t.Errorf("NextBox(%d, true) = %d, want %d", box, got, box+1)
			}
		}
	})

	t.Run("correct at mastered stays mastered", func(t *testing.T) {
		if got := NextBox(6, true); got != 6 {
			t.Errorf("NextBox(6, true) = %d, want 6", got)
		}
	})

	t.Run("miss resets to box 1", func(t *testing.T) {
		for box := 1; box <= 6; box++ {
			if got := NextBox(box, false); got != 1 {
				t.Errorf("NextBox(%d, false) = %d, want 1", box, got)
			}
		}
	})
}

func TestDueNeverBeforeReview(t *testing.T) {
	for box := 1; box <= 6; box++ {
		for _, correct := range []bool{true, false} {
			next := NextBox(box, correct)
			if Due(next, t0).Before(t0) {
				t.Errorf("box %d correct=%v: due %v before review time", box, correct, Due(next, t0))
			}
		}
	}
}
