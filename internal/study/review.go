package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/knolbox/internal/domain"
	"github.com/conorfennell/knolbox/internal/leitner"
	"github.com/conorfennell/knolbox/pkg/validator"
)

// reviewAttempts is the first try plus one retry after a version conflict.
const reviewAttempts = 2

// ReviewInput is one answer submitted by a learner.
type ReviewInput struct {
	Owner          string `json:"owner" validate:"required"`
	CardID         string `json:"cardId" validate:"required"`
	Correct        bool   `json:"correct"`
	ResponseTimeMs int    `json:"responseTimeMs" validate:"gte=0"`
	// Now is the review time; zero means the service clock.
	Now time.Time `json:"-"`
}

// Review applies a review outcome to a card: promote on a correct answer,
// back to box 1 on a miss, due date from the interval table, event appended
// to history. The card write and the stats delta commit together.
//
// A concurrent review of the same card makes the write fail with
// domain.ErrConflict; the whole operation is then re-run once against the
// fresh card before the conflict is surfaced.
func (s *Service) Review(ctx context.Context, in ReviewInput) (domain.Card, error) {
	if err := validator.ValidateStruct(in); err != nil {
		return domain.Card{}, err
	}
	now := in.Now
	if now.IsZero() {
		now = s.now()
	}

	var err error
	for attempt := 1; attempt <= reviewAttempts; attempt++ {
		var card domain.Card
		card, err = s.reviewOnce(ctx, in, now)
		if err == nil {
			return card, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Card{}, err
		}
		s.log.WarnContext(ctx, "review conflict",
			slog.String("owner", in.Owner),
			slog.String("card_id", in.CardID),
			slog.Int("attempt", attempt),
		)
	}
	return domain.Card{}, err
}

func (s *Service) reviewOnce(ctx context.Context, in ReviewInput, now time.Time) (domain.Card, error) {
	card, err := s.store.GetCard(ctx, in.Owner, in.CardID)
	if err != nil {
		return domain.Card{}, fmt.Errorf("get card: %w", err)
	}

	// Last point at which the caller may still cancel.
	if err := ctx.Err(); err != nil {
		return domain.Card{}, err
	}

	newBox := leitner.NextBox(card.Box, in.Correct)

	// A review delivered after a later one is scheduled from the later
	// review time, so due never moves backwards across the history.
	reviewedAt := now
	if card.LastReviewedAt != nil && card.LastReviewedAt.After(reviewedAt) {
		reviewedAt = *card.LastReviewedAt
	}
	due := leitner.Due(newBox, reviewedAt)

	next := card
	next.Box = newBox
	next.Due = due
	next.LastReviewedAt = &reviewedAt
	next.History = append(append([]domain.ReviewEvent(nil), card.History...), domain.ReviewEvent{
		Timestamp:      now,
		Correct:        in.Correct,
		ResponseTimeMs: in.ResponseTimeMs,
	})

	delta := domain.StatsDelta{TotalReviews: 1, ReviewedAt: &now}
	if in.Correct {
		delta.CorrectAnswers = 1
	}
	delta.MoveBox(card.Box, newBox)

	var updated domain.Card
	err = s.commit(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.store.UpdateSchedule(ctx, next, card.Version)
		if err != nil {
			return fmt.Errorf("update card: %w", err)
		}
		return s.stats.ApplyDelta(ctx, in.Owner, delta)
	})
	if err != nil {
		return domain.Card{}, err
	}

	s.log.InfoContext(ctx, "card reviewed",
		slog.String("owner", in.Owner),
		slog.String("card_id", card.ID),
		slog.Bool("correct", in.Correct),
		slog.Int("old_box", card.Box),
		slog.Int("new_box", newBox),
		slog.Time("due", updated.Due),
	)
	return updated, nil
}
