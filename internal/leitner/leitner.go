// Package leitner implements the fixed six-box interval table.
package leitner

import (
	"log/slog"
	"time"

	"github.com/conorfennell/knolbox/internal/domain"
)

const day = 24 * time.Hour

// offsets maps box number to the delay before the card is due again.
// Index 0 is unused.
var offsets = [domain.MaxBox + 1]time.Duration{
	0,
	0,       // box 1: immediately due
	1 * day, // box 2
	3 * day, // box 3
	7 * day, // box 4
	14 * day,
	30 * day,
}

// Clamp forces box into [1,6]. Out-of-range values are a caller bug; they are
// logged rather than rejected so a bad row can still be reviewed.
func Clamp(box int) int {
	switch {
	case box < domain.MinBox:
		slog.Warn("box below range, clamping", "box", box, "clamped", domain.MinBox)
		return domain.MinBox
	case box > domain.MaxBox:
		slog.Warn("box above range, clamping", "box", box, "clamped", domain.MaxBox)
		return domain.MaxBox
	}
	return box
}

// Offset returns the review delay for box.
func Offset(box int) time.Duration {
	return offsets[Clamp(box)]
}

// Due returns the time at which a card placed in box at now becomes due.
func Due(box int, now time.Time) time.Time {
	return now.Add(Offset(box))
}

// NextBox promotes one box on a correct answer, capped at the mastered box,
// and resets to box 1 on a miss.
func NextBox(box int, correct bool) int {
	if !correct {
		return domain.MinBox
	}
	return min(Clamp(box)+1, domain.MaxBox)
}
