// Package stats maintains and verifies per-owner study counters.
//
// Counters are kept incrementally by ApplyDelta on every review, sync and card
// creation. Recompute derives the same aggregate from the card store alone;
// the two must always agree.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/knolbox/internal/domain"
	"github.com/conorfennell/knolbox/internal/storage"
)

type store interface {
	ListCards(ctx context.Context, owner string) ([]domain.Card, error)
	ApplyStatsDelta(ctx context.Context, owner string, u storage.StatsUpdate) error
	GetStats(ctx context.Context, owner string) (domain.UserStats, error)
	ReplaceStats(ctx context.Context, s domain.UserStats, days []string) error
}

// Aggregator owns the UserStats counters.
type Aggregator struct {
	store store
	loc   *time.Location
	log   *slog.Logger
}

// New creates an Aggregator. Calendar days for streaks are taken in loc.
func New(log *slog.Logger, store store, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		store: store,
		loc:   loc,
		log:   log.With("component", "stats"),
	}
}

// Location returns the timezone used for calendar days.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// ApplyDelta adds d to the owner's counters. When ctx carries a store
// transaction the delta commits or rolls back with it.
func (a *Aggregator) ApplyDelta(ctx context.Context, owner string, d domain.StatsDelta) error {
	u := storage.StatsUpdate{Delta: d}
	if d.ReviewedAt != nil {
		u.Day = DayKey(*d.ReviewedAt, a.loc)
	}
	if err := a.store.ApplyStatsDelta(ctx, owner, u); err != nil {
		return fmt.Errorf("apply stats delta: %w", err)
	}
	return nil
}

// Get returns the incrementally maintained stats. An owner who has never
// had a card or a review gets zeroed stats.
func (a *Aggregator) Get(ctx context.Context, owner string) (domain.UserStats, error) {
	if owner == "" {
		return domain.UserStats{}, domain.NewValidationError("owner", "is required")
	}
	s, err := a.store.GetStats(ctx, owner)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.UserStats{Owner: owner, CardsByBox: map[int]int{}}, nil
	}
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("get stats: %w", err)
	}
	return s, nil
}

// Recompute scans every card the owner has and derives the aggregate from scratch.
func (a *Aggregator) Recompute(ctx context.Context, owner string) (domain.UserStats, error) {
	if owner == "" {
		return domain.UserStats{}, domain.NewValidationError("owner", "is required")
	}
	cards, err := a.store.ListCards(ctx, owner)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("list cards: %w", err)
	}
	return FromCards(owner, cards, a.loc), nil
}

// Verification is the outcome of comparing stored and recomputed stats.
type Verification struct {
	Stored     domain.UserStats
	Recomputed domain.UserStats
	Equal      bool
}

// Verify compares the maintained counters against a full recompute.
func (a *Aggregator) Verify(ctx context.Context, owner string) (Verification, error) {
	recomputed, err := a.Recompute(ctx, owner)
	if err != nil {
		return Verification{}, err
	}
	stored, err := a.Get(ctx, owner)
	if err != nil {
		return Verification{}, err
	}

	v := Verification{Stored: stored, Recomputed: recomputed, Equal: Equal(stored, recomputed)}
	if !v.Equal {
		a.log.WarnContext(ctx, "stats drift detected",
			slog.String("owner", owner),
			slog.Int("stored_reviews", stored.TotalReviews),
			slog.Int("recomputed_reviews", recomputed.TotalReviews),
			slog.Int("stored_cards", stored.TotalCards),
			slog.Int("recomputed_cards", recomputed.TotalCards),
		)
	}
	return v, nil
}

// Repair overwrites the owner's counters with a full recompute.
func (a *Aggregator) Repair(ctx context.Context, owner string) (domain.UserStats, error) {
	if owner == "" {
		return domain.UserStats{}, domain.NewValidationError("owner", "is required")
	}
	cards, err := a.store.ListCards(ctx, owner)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("list cards: %w", err)
	}
	s := FromCards(owner, cards, a.loc)

	if err := a.store.ReplaceStats(ctx, s, StudyDays(cards, a.loc)); err != nil {
		return domain.UserStats{}, fmt.Errorf("replace stats: %w", err)
	}

	a.log.InfoContext(ctx, "stats repaired", slog.String("owner", owner), slog.Int("total_cards", s.TotalCards))
	return s, nil
}
