package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/knolbox/internal/domain"
	"github.com/conorfennell/knolbox/pkg/validator"
)

// QueueRequest selects due cards for a session.
type QueueRequest struct {
	Owner string `validate:"required"`
	// Deck restricts the queue to one deck when non-empty.
	Deck string
	// Limit <= 0 means the owner's daily goal.
	Limit int
	// Now is zero for the service clock.
	Now time.Time
}

// ListDue returns the owner's cards with due <= now, earliest due first,
// never more than the owner's daily goal.
func (s *Service) ListDue(ctx context.Context, req QueueRequest) ([]domain.Card, error) {
	if err := validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	goal, err := s.DailyGoal(ctx, req.Owner)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 || limit > goal {
		limit = goal
	}
	now := req.Now
	if now.IsZero() {
		now = s.now()
	}

	cards, err := s.store.ListDue(ctx, req.Owner, req.Deck, limit, now)
	if err != nil {
		return nil, fmt.Errorf("list due: %w", err)
	}
	return cards, nil
}

// DailyGoal returns the owner's configured goal or the service default.
func (s *Service) DailyGoal(ctx context.Context, owner string) (int, error) {
	goal, err := s.store.GetDailyGoal(ctx, owner)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return s.cfg.DailyGoal, nil
	case err != nil:
		return 0, fmt.Errorf("get daily goal: %w", err)
	}
	return min(goal, s.cfg.MaxDailyGoal), nil
}

// SetDailyGoal stores the owner's queue size.
func (s *Service) SetDailyGoal(ctx context.Context, owner string, goal int) error {
	if owner == "" {
		return domain.NewValidationError("owner", "is required")
	}
	if goal < 1 || goal > s.cfg.MaxDailyGoal {
		return domain.NewValidationError("dailyGoal", fmt.Sprintf("must be between 1 and %d", s.cfg.MaxDailyGoal))
	}
	return s.commit(ctx, func(ctx context.Context) error {
		return s.store.SetDailyGoal(ctx, owner, goal)
	})
}
