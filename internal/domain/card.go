package domain

import "time"

// Box bounds for the Leitner scheme. Box 1 is least known, box 6 is mastered.
const (
	MinBox      = 1
	MaxBox      = 6
	MasteredBox = MaxBox
)

// Origin tells whether a card was authored directly or materialized from the catalog.
type Origin string

const (
	OriginManual  Origin = "manual"
	OriginCatalog Origin = "catalog"
)

// Valid reports whether o is a known origin.
func (o Origin) Valid() bool {
	return o == OriginManual || o == OriginCatalog
}

// Card is a learner's personal instance of a study item.
type Card struct {
	ID        string
	Owner     string
	Deck      string
	Prompt    string
	Answer    string
	Box       int
	Due       time.Time
	CreatedAt time.Time

	// LastReviewedAt is nil until the first review.
	LastReviewedAt *time.Time
	History        []ReviewEvent

	Origin Origin
	// SourceID and LastSyncedAt are only set for catalog cards.
	SourceID     string
	LastSyncedAt *time.Time

	// Version is bumped on every schedule write and guards concurrent reviews.
	Version int64
}

// IsDue reports whether the card is eligible for review at now.
func (c *Card) IsDue(now time.Time) bool {
	return !c.Due.After(now)
}

// CorrectCount returns the number of correct answers in the card's history.
func (c *Card) CorrectCount() int {
	n := 0
	for _, ev := range c.History {
		if ev.Correct {
			n++
		}
	}
	return n
}

// ReviewEvent records a single answer given for a card.
type ReviewEvent struct {
	Timestamp      time.Time `json:"ts"`
	Correct        bool      `json:"correct"`
	ResponseTimeMs int       `json:"response_time_ms"`
}
