package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/knolbox/internal/domain"
)

const dayLayout = "2006-01-02"

// StatsUpdate is a counters delta plus the calendar day of the review, as
// YYYY-MM-DD in the stats timezone. Day is only read when Delta.ReviewedAt
// is set.
type StatsUpdate struct {
	Delta domain.StatsDelta
	Day   string
}

// ApplyStatsDelta adds u to the owner's counters. Every column moves by a
// relative SQL expression and study days are a set, so concurrent deltas for
// one owner commute.
func (db *DB) ApplyStatsDelta(ctx context.Context, owner string, u StatsUpdate) error {
	d := u.Delta
	if d.IsZero() {
		return nil
	}

	return db.RunInTx(ctx, func(ctx context.Context) error {
		q := db.q(ctx)

		if _, err := q.ExecContext(ctx, `
			INSERT INTO user_stats (owner) VALUES (?)
			ON CONFLICT (owner) DO NOTHING
		`, owner); err != nil {
			return mapError(err, "stats", owner)
		}

		if _, err := q.ExecContext(ctx, `
			UPDATE user_stats
			SET total_cards = total_cards + ?,
			    total_reviews = total_reviews + ?,
			    correct_answers = correct_answers + ?,
			    cards_mastered = cards_mastered + ?
			WHERE owner = ?
		`, d.TotalCards, d.TotalReviews, d.CorrectAnswers, d.CardsMastered, owner); err != nil {
			return mapError(err, "stats", owner)
		}

		if d.ReviewedAt != nil {
			if u.Day == "" {
				return fmt.Errorf("stats for %s: review without a study day: %w", owner, domain.ErrInvalidInput)
			}
			if _, err := q.ExecContext(ctx, `
				INSERT INTO user_study_days (owner, day) VALUES (?, ?)
				ON CONFLICT (owner, day) DO NOTHING
			`, owner, u.Day); err != nil {
				return mapError(err, "study days", owner)
			}
			if _, err := q.ExecContext(ctx, `
				UPDATE user_stats
				SET last_study_session = MAX(COALESCE(last_study_session, ?), ?)
				WHERE owner = ?
			`, toNanos(*d.ReviewedAt), toNanos(*d.ReviewedAt), owner); err != nil {
				return mapError(err, "stats", owner)
			}
		}

		for box, n := range d.Boxes {
			if n == 0 {
				continue
			}
			if _, err := q.ExecContext(ctx, `
				INSERT INTO user_box_counts (owner, box, cards) VALUES (?, ?, ?)
				ON CONFLICT (owner, box) DO UPDATE SET cards = cards + excluded.cards
			`, owner, box, n); err != nil {
				return mapError(err, "box counts", owner)
			}
		}
		return nil
	})
}

// GetStats returns the stored counters for owner. Boxes with zero cards are
// omitted from CardsByBox. An owner with no counters yet yields
// domain.ErrNotFound.
func (db *DB) GetStats(ctx context.Context, owner string) (domain.UserStats, error) {
	q := db.q(ctx)

	s := domain.UserStats{Owner: owner, CardsByBox: map[int]int{}}
	var last sql.NullInt64
	err := q.QueryRowContext(ctx, `
		SELECT total_cards, total_reviews, correct_answers, cards_mastered, last_study_session
		FROM user_stats WHERE owner = ?
	`, owner).Scan(
		&s.TotalCards,
		&s.TotalReviews,
		&s.CorrectAnswers,
		&s.CardsMastered,
		&last,
	)
	if err != nil {
		return domain.UserStats{}, mapError(err, "stats", owner)
	}
	s.LastStudySession = fromNullNanos(last)

	rows, err := q.QueryContext(ctx, `
		SELECT box, cards FROM user_box_counts
		WHERE owner = ? AND cards <> 0
		ORDER BY box
	`, owner)
	if err != nil {
		return domain.UserStats{}, mapError(err, "box counts", owner)
	}
	defer rows.Close()

	for rows.Next() {
		var box, n int
		if err := rows.Scan(&box, &n); err != nil {
			return domain.UserStats{}, fmt.Errorf("failed to scan box count row: %w", err)
		}
		s.CardsByBox[box] = n
	}
	if err := rows.Err(); err != nil {
		return domain.UserStats{}, mapError(err, "box counts", owner)
	}

	if s.StudyStreak, err = db.studyStreak(ctx, owner); err != nil {
		return domain.UserStats{}, err
	}
	return s, nil
}

// studyStreak counts consecutive study days walking back from the owner's
// latest one.
func (db *DB) studyStreak(ctx context.Context, owner string) (int, error) {
	rows, err := db.q(ctx).QueryContext(ctx, `
		SELECT day FROM user_study_days
		WHERE owner = ?
		ORDER BY day DESC
	`, owner)
	if err != nil {
		return 0, mapError(err, "study days", owner)
	}
	defer rows.Close()

	var (
		n    int
		want time.Time
	)
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return 0, fmt.Errorf("failed to scan study day row: %w", err)
		}
		t, err := time.Parse(dayLayout, day)
		if err != nil {
			return 0, fmt.Errorf("failed to parse study day %q: %w", day, err)
		}
		if n > 0 && !t.Equal(want) {
			break
		}
		n++
		want = t.AddDate(0, 0, -1)
	}
	if err := rows.Err(); err != nil {
		return 0, mapError(err, "study days", owner)
	}
	return n, nil
}

// ReplaceStats overwrites the owner's counters with s and their study days
// with days. s.StudyStreak is not stored; it follows from days. Used only for
// operator-driven repair.
func (db *DB) ReplaceStats(ctx context.Context, s domain.UserStats, days []string) error {
	return db.RunInTx(ctx, func(ctx context.Context) error {
		q := db.q(ctx)

		if _, err := q.ExecContext(ctx, `DELETE FROM user_box_counts WHERE owner = ?`, s.Owner); err != nil {
			return mapError(err, "box counts", s.Owner)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM user_study_days WHERE owner = ?`, s.Owner); err != nil {
			return mapError(err, "study days", s.Owner)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM user_stats WHERE owner = ?`, s.Owner); err != nil {
			return mapError(err, "stats", s.Owner)
		}

		if _, err := q.ExecContext(ctx, `
			INSERT INTO user_stats (owner, total_cards, total_reviews, correct_answers,
			                        cards_mastered, last_study_session)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			s.Owner,
			s.TotalCards,
			s.TotalReviews,
			s.CorrectAnswers,
			s.CardsMastered,
			nullNanos(s.LastStudySession),
		); err != nil {
			return mapError(err, "stats", s.Owner)
		}

		for _, day := range days {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO user_study_days (owner, day) VALUES (?, ?)
				ON CONFLICT (owner, day) DO NOTHING
			`, s.Owner, day); err != nil {
				return mapError(err, "study days", s.Owner)
			}
		}

		for box, n := range s.CardsByBox {
			if n == 0 {
				continue
			}
			if _, err := q.ExecContext(ctx, `
				INSERT INTO user_box_counts (owner, box, cards) VALUES (?, ?, ?)
			`, s.Owner, box, n); err != nil {
				return mapError(err, "box counts", s.Owner)
			}
		}
		return nil
	})
}
