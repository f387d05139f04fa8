package domain

import "time"

// UserStats is the per-user aggregate derived from card state.
type UserStats struct {
	Owner          string
	TotalCards     int
	CardsByBox     map[int]int
	TotalReviews   int
	CorrectAnswers int
	StudyStreak    int
	CardsMastered  int
	// LastStudySession is nil until the first review.
	LastStudySession *time.Time
}

// AccuracyRate is CorrectAnswers/TotalReviews, or 0 before any review.
func (s UserStats) AccuracyRate() float64 {
	if s.TotalReviews == 0 {
		return 0
	}
	return float64(s.CorrectAnswers) / float64(s.TotalReviews)
}

// BoxCount returns the number of cards in box, treating missing boxes as zero.
func (s UserStats) BoxCount(box int) int {
	return s.CardsByBox[box]
}

// StatsDelta is a commutative change to a user's counters.
type StatsDelta struct {
	TotalCards     int
	TotalReviews   int
	CorrectAnswers int
	CardsMastered  int
	// Boxes maps box number to its count change.
	Boxes map[int]int
	// ReviewedAt is set when the delta comes from a review.
	ReviewedAt *time.Time
}

// MoveBox records a card leaving from and entering to.
func (d *StatsDelta) MoveBox(from, to int) {
	if from == to {
		return
	}
	if d.Boxes == nil {
		d.Boxes = make(map[int]int, 2)
	}
	d.Boxes[from]--
	d.Boxes[to]++
	switch {
	case to == MasteredBox:
		d.CardsMastered++
	case from == MasteredBox:
		d.CardsMastered--
	}
}

// AddCard records a new card placed in box.
func (d *StatsDelta) AddCard(box int) {
	if d.Boxes == nil {
		d.Boxes = make(map[int]int, 1)
	}
	d.TotalCards++
	d.Boxes[box]++
	if box == MasteredBox {
		d.CardsMastered++
	}
}

// IsZero reports whether applying d would change nothing.
func (d StatsDelta) IsZero() bool {
	if d.TotalCards != 0 || d.TotalReviews != 0 || d.CorrectAnswers != 0 || d.CardsMastered != 0 || d.ReviewedAt != nil {
		return false
	}
	for _, n := range d.Boxes {
		if n != 0 {
			return false
		}
	}
	return true
}
