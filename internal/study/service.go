// Package study implements the review scheduler and the due-card queue.
package study

import (
	"context"
	"log/slog"
	"time"

	"github.com/conorfennell/knolbox/internal/domain"
	"github.com/conorfennell/knolbox/internal/storage"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces
// ---------------------------------------------------------------------------

type cardStore interface {
	GetCard(ctx context.Context, owner, id string) (domain.Card, error)
	CreateCard(ctx context.Context, card domain.Card) (domain.Card, error)
	UpdateSchedule(ctx context.Context, card domain.Card, expectedVersion int64) (domain.Card, error)
	ListDue(ctx context.Context, owner, deck string, limit int, now time.Time) ([]domain.Card, error)
}

type settingsStore interface {
	GetDailyGoal(ctx context.Context, owner string) (int, error)
	SetDailyGoal(ctx context.Context, owner string, goal int) error
}

type statsApplier interface {
	ApplyDelta(ctx context.Context, owner string, d domain.StatsDelta) error
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is everything the service needs from persistence. *storage.DB
// satisfies it.
type Store interface {
	cardStore
	settingsStore
	txRunner
}

var _ Store = (*storage.DB)(nil)

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Config holds the study limits.
type Config struct {
	// DailyGoal is the default queue size when an owner has none configured.
	DailyGoal int
	// MaxDailyGoal caps what an owner may configure.
	MaxDailyGoal int
	// OpTimeout bounds the write phase of an operation once it has started.
	OpTimeout time.Duration
}

// Service implements review scheduling and due-queue selection.
type Service struct {
	store Store
	stats statsApplier
	cfg   Config
	now   func() time.Time
	log   *slog.Logger
}

// NewService creates a study Service. now defaults to time.Now.
func NewService(log *slog.Logger, store Store, stats statsApplier, cfg Config, now func() time.Time) *Service {
	if cfg.DailyGoal <= 0 {
		cfg.DailyGoal = 50
	}
	if cfg.MaxDailyGoal < cfg.DailyGoal {
		cfg.MaxDailyGoal = cfg.DailyGoal
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 5 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		store: store,
		stats: stats,
		cfg:   cfg,
		now:   now,
		log:   log.With("component", "study"),
	}
}

// commit runs fn in a store transaction that is detached from the caller's
// cancellation and bounded by the configured timeout. Once a write starts it
// finishes or fails explicitly; it is never abandoned halfway.
func (s *Service) commit(ctx context.Context, fn func(ctx context.Context) error) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.OpTimeout)
	defer cancel()
	return s.store.RunInTx(wctx, fn)
}
