package stats

import (
	"maps"
	"slices"
	"time"

	"github.com/conorfennell/knolbox/internal/domain"
)

const dayLayout = "2006-01-02"

// DayKey returns the calendar day of t in loc as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayLayout)
}

// FromCards builds an owner's stats from scratch out of their cards.
func FromCards(owner string, cards []domain.Card, loc *time.Location) domain.UserStats {
	s := domain.UserStats{Owner: owner, CardsByBox: map[int]int{}}
	days := map[string]bool{}

	for _, c := range cards {
		s.TotalCards++
		s.CardsByBox[c.Box]++
		if c.Box == domain.MasteredBox {
			s.CardsMastered++
		}
		for _, ev := range c.History {
			s.TotalReviews++
			if ev.Correct {
				s.CorrectAnswers++
			}
			if s.LastStudySession == nil || ev.Timestamp.After(*s.LastStudySession) {
				ts := ev.Timestamp
				s.LastStudySession = &ts
			}
			days[DayKey(ev.Timestamp, loc)] = true
		}
	}

	if s.LastStudySession != nil {
		s.StudyStreak = Streak(days, *s.LastStudySession, loc)
	}
	return s
}

// StudyDays returns the sorted calendar days in loc on which any of the cards
// was reviewed.
func StudyDays(cards []domain.Card, loc *time.Location) []string {
	seen := map[string]bool{}
	for _, c := range cards {
		for _, ev := range c.History {
			seen[DayKey(ev.Timestamp, loc)] = true
		}
	}
	days := slices.Collect(maps.Keys(seen))
	slices.Sort(days)
	return days
}

// Streak counts consecutive calendar days with a review, walking back from
// the day of last.
func Streak(days map[string]bool, last time.Time, loc *time.Location) int {
	y, m, d := last.In(loc).Date()
	n := 0
	for {
		// Noon avoids landing on a skipped hour when DST shifts at midnight.
		key := time.Date(y, m, d-n, 12, 0, 0, 0, loc).Format(dayLayout)
		if !days[key] {
			return n
		}
		n++
	}
}

// Equal reports whether a and b describe the same aggregate. Zero box counts
// and missing boxes are treated alike.
func Equal(a, b domain.UserStats) bool {
	if a.TotalCards != b.TotalCards ||
		a.TotalReviews != b.TotalReviews ||
		a.CorrectAnswers != b.CorrectAnswers ||
		a.CardsMastered != b.CardsMastered ||
		a.StudyStreak != b.StudyStreak {
		return false
	}
	for box := domain.MinBox; box <= domain.MaxBox; box++ {
		if a.CardsByBox[box] != b.CardsByBox[box] {
			return false
		}
	}
	switch {
	case a.LastStudySession == nil && b.LastStudySession == nil:
		return true
	case a.LastStudySession == nil || b.LastStudySession == nil:
		return false
	}
	return a.LastStudySession.Equal(*b.LastStudySession)
}
