// Package sync reconciles Content Catalog entries into learner decks.
//
// Sync owns only the content of catalog cards. It creates missing cards and
// rewrites prompt, answer and deck when the catalog changes; box, due and
// history belong to the learner and are never written here.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/knolbox/internal/domain"
	"github.com/conorfennell/knolbox/internal/knol"
	"github.com/conorfennell/knolbox/internal/storage"
)

type store interface {
	FindBySource(ctx context.Context, owner, sourceID string) (domain.Card, error)
	CreateCard(ctx context.Context, card domain.Card) (domain.Card, error)
	UpdateContent(ctx context.Context, owner, id string, content storage.CardContent, syncedAt time.Time) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type statsApplier interface {
	ApplyDelta(ctx context.Context, owner string, d domain.StatsDelta) error
}

// Synchronizer applies catalog snapshots to one owner's deck at a time.
type Synchronizer struct {
	store     store
	stats     statsApplier
	opTimeout time.Duration
	log       *slog.Logger
}

// New creates a Synchronizer. opTimeout bounds each entry's write.
func New(log *slog.Logger, store store, stats statsApplier, opTimeout time.Duration) *Synchronizer {
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	return &Synchronizer{
		store:     store,
		stats:     stats,
		opTimeout: opTimeout,
		log:       log.With("component", "sync"),
	}
}

// Sync reconciles entries into owner's deck. Per-entry failures are recorded
// in the report and do not stop the run. The returned error is non-nil only
// for an invalid owner or when ctx is cancelled between entries; the report
// then covers the entries handled so far.
func (s *Synchronizer) Sync(ctx context.Context, owner string, entries []domain.RawCatalogEntry, now time.Time) (domain.SyncReport, error) {
	report := domain.SyncReport{Skipped: []domain.SkippedEntry{}}
	if owner == "" {
		return report, domain.NewValidationError("owner", "is required")
	}

	seen := make(map[string]bool, len(entries))
	for _, raw := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		entry, err := knol.Normalize(raw)
		if err != nil {
			report.Skip(rawID(raw), err.Error())
			continue
		}
		if seen[entry.ID] {
			report.Skip(entry.ID, "duplicate entry id in catalog")
			continue
		}
		seen[entry.ID] = true

		outcome, err := s.syncEntry(ctx, owner, entry, now)
		if err != nil {
			s.log.WarnContext(ctx, "catalog entry skipped",
				slog.String("owner", owner),
				slog.String("entry_id", entry.ID),
				slog.Any("error", err),
			)
			report.Skip(entry.ID, err.Error())
			continue
		}

		switch outcome {
		case created:
			report.Created++
		case updated:
			report.Updated++
		case unchanged:
			report.Unchanged++
		}
	}

	s.log.InfoContext(ctx, "sync complete",
		slog.String("owner", owner),
		slog.Int("created", report.Created),
		slog.Int("updated", report.Updated),
		slog.Int("unchanged", report.Unchanged),
		slog.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

type outcome int

const (
	unchanged outcome = iota
	created
	updated
)

func (s *Synchronizer) syncEntry(ctx context.Context, owner string, entry domain.CatalogEntry, now time.Time) (outcome, error) {
	prompt, answer, deck := knol.CardContent(entry)
	fingerprint := knol.Fingerprint(prompt, answer, deck)

	card, err := s.store.FindBySource(ctx, owner, entry.ID)
	if errors.Is(err, domain.ErrNotFound) {
		err = s.create(ctx, owner, entry, now)
		if err == nil {
			s.log.DebugContext(ctx, "catalog card created",
				slog.String("owner", owner),
				slog.String("entry_id", entry.ID),
				slog.String("fingerprint", fingerprint),
			)
			return created, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			return unchanged, err
		}
		// Another sync for the same owner created it first.
		card, err = s.store.FindBySource(ctx, owner, entry.ID)
	}
	if err != nil {
		return unchanged, fmt.Errorf("find card: %w", err)
	}

	if card.Prompt == prompt && card.Answer == answer && card.Deck == deck {
		return unchanged, nil
	}

	content := storage.CardContent{Deck: deck, Prompt: prompt, Answer: answer}
	err = s.commit(ctx, func(ctx context.Context) error {
		return s.store.UpdateContent(ctx, owner, card.ID, content, now)
	})
	if err != nil {
		return unchanged, fmt.Errorf("update content: %w", err)
	}

	s.log.DebugContext(ctx, "catalog card updated",
		slog.String("owner", owner),
		slog.String("entry_id", entry.ID),
		slog.String("card_id", card.ID),
		slog.String("old_fingerprint", knol.Fingerprint(card.Prompt, card.Answer, card.Deck)),
		slog.String("fingerprint", fingerprint),
	)
	return updated, nil
}

func (s *Synchronizer) create(ctx context.Context, owner string, entry domain.CatalogEntry, now time.Time) error {
	prompt, answer, deck := knol.CardContent(entry)
	syncedAt := now
	card := domain.Card{
		Owner:        owner,
		Deck:         deck,
		Prompt:       prompt,
		Answer:       answer,
		Box:          domain.MinBox,
		Due:          now,
		CreatedAt:    now,
		Origin:       domain.OriginCatalog,
		SourceID:     entry.ID,
		LastSyncedAt: &syncedAt,
	}

	var delta domain.StatsDelta
	delta.AddCard(card.Box)

	return s.commit(ctx, func(ctx context.Context) error {
		if _, err := s.store.CreateCard(ctx, card); err != nil {
			return fmt.Errorf("create card: %w", err)
		}
		return s.stats.ApplyDelta(ctx, owner, delta)
	})
}

// commit runs fn in one transaction that outlives caller cancellation but
// not the op timeout.
func (s *Synchronizer) commit(ctx context.Context, fn func(ctx context.Context) error) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opTimeout)
	defer cancel()
	return s.store.RunInTx(wctx, fn)
}

func rawID(raw domain.RawCatalogEntry) string {
	if raw.ID != "" {
		return raw.ID
	}
	return raw.LegacyID
}
