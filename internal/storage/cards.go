package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/knolbox/internal/domain"
)

const cardColumns = `id, owner, deck, prompt, answer, box, due, created_at,
	last_reviewed_at, history, origin, source_id, last_synced_at, version`

// CardContent is the set of fields the Synchronizer may rewrite.
type CardContent struct {
	Deck   string
	Prompt string
	Answer string
}

// CreateCard inserts a new card. An empty ID is replaced with a fresh UUID.
// A second catalog card for the same (owner, source) fails with
// domain.ErrAlreadyExists.
func (db *DB) CreateCard(ctx context.Context, card domain.Card) (domain.Card, error) {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if err := checkNewCard(card); err != nil {
		return domain.Card{}, err
	}
	card.Version = 1
	if card.History == nil {
		card.History = []domain.ReviewEvent{}
	}

	history, err := json.Marshal(card.History)
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to encode history for card %s: %w", card.ID, err)
	}

	_, err = db.q(ctx).ExecContext(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID,
		card.Owner,
		card.Deck,
		card.Prompt,
		card.Answer,
		card.Box,
		toNanos(card.Due),
		toNanos(card.CreatedAt),
		nullNanos(card.LastReviewedAt),
		string(history),
		string(card.Origin),
		nullString(card.SourceID),
		nullNanos(card.LastSyncedAt),
		card.Version,
	)
	if err != nil {
		return domain.Card{}, mapError(err, "card", card.ID)
	}
	return normalizeTimes(card), nil
}

func checkNewCard(card domain.Card) error {
	switch {
	case card.Owner == "":
		return domain.NewValidationError("owner", "is required")
	case card.Box < domain.MinBox || card.Box > domain.MaxBox:
		return domain.NewValidationError("box", fmt.Sprintf("must be in [%d,%d]", domain.MinBox, domain.MaxBox))
	case !card.Origin.Valid():
		return domain.NewValidationError("origin", "must be manual or catalog")
	case card.Origin == domain.OriginCatalog && card.SourceID == "":
		return domain.NewValidationError("source_id", "is required for catalog cards")
	case card.Origin == domain.OriginManual && card.SourceID != "":
		return domain.NewValidationError("source_id", "must be empty for manual cards")
	}
	return nil
}

// GetCard returns the card with id. It fails with domain.ErrNotFound when no
// such card exists and domain.ErrForbidden when it belongs to someone else.
func (db *DB) GetCard(ctx context.Context, owner, id string) (domain.Card, error) {
	row := db.q(ctx).QueryRowContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards WHERE id = ?
	`, id)

	card, err := scanCard(row)
	if err != nil {
		return domain.Card{}, mapError(err, "card", id)
	}
	if card.Owner != owner {
		return domain.Card{}, fmt.Errorf("card %s: %w", id, domain.ErrForbidden)
	}
	return card, nil
}

// FindBySource returns the owner's card materialized from a catalog entry.
func (db *DB) FindBySource(ctx context.Context, owner, sourceID string) (domain.Card, error) {
	row := db.q(ctx).QueryRowContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards WHERE owner = ? AND source_id = ?
	`, owner, sourceID)

	card, err := scanCard(row)
	if err != nil {
		return domain.Card{}, mapError(err, "card source", sourceID)
	}
	return card, nil
}

// UpdateSchedule writes box, due, history and last review time as a single
// statement, provided the stored version still equals expectedVersion.
// A stale version fails with domain.ErrConflict; the caller must re-read.
func (db *DB) UpdateSchedule(ctx context.Context, card domain.Card, expectedVersion int64) (domain.Card, error) {
	history, err := json.Marshal(card.History)
	if err != nil {
		return domain.Card{}, fmt.Errorf("failed to encode history for card %s: %w", card.ID, err)
	}

	res, err := db.q(ctx).ExecContext(ctx, `
		UPDATE cards
		SET box = ?, due = ?, history = ?, last_reviewed_at = ?, version = version + 1
		WHERE id = ? AND owner = ? AND version = ?
	`,
		card.Box,
		toNanos(card.Due),
		string(history),
		nullNanos(card.LastReviewedAt),
		card.ID,
		card.Owner,
		expectedVersion,
	)
	if err != nil {
		return domain.Card{}, mapError(err, "card", card.ID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.Card{}, mapError(err, "card", card.ID)
	}
	if n == 0 {
		if _, err := db.GetCard(ctx, card.Owner, card.ID); err != nil {
			return domain.Card{}, err
		}
		return domain.Card{}, fmt.Errorf("card %s version %d: %w", card.ID, expectedVersion, domain.ErrConflict)
	}

	card.Version = expectedVersion + 1
	return normalizeTimes(card), nil
}

// UpdateContent rewrites only the content fields and the sync timestamp.
// Scheduling columns and the version are left alone, so a concurrent review
// is never invalidated by a sync.
func (db *DB) UpdateContent(ctx context.Context, owner, id string, content CardContent, syncedAt time.Time) error {
	res, err := db.q(ctx).ExecContext(ctx, `
		UPDATE cards
		SET deck = ?, prompt = ?, answer = ?, last_synced_at = ?
		WHERE id = ? AND owner = ?
	`,
		content.Deck,
		content.Prompt,
		content.Answer,
		toNanos(syncedAt),
		id,
		owner,
	)
	if err != nil {
		return mapError(err, "card", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err, "card", id)
	}
	if n == 0 {
		return fmt.Errorf("card %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListDue returns up to limit of the owner's cards with due <= now, oldest
// due first and then by creation time. An empty deck matches every deck.
func (db *DB) ListDue(ctx context.Context, owner, deck string, limit int, now time.Time) ([]domain.Card, error) {
	var sb strings.Builder
	args := []any{owner, toNanos(now)}

	sb.WriteString(`SELECT ` + cardColumns + ` FROM cards WHERE owner = ? AND due <= ?`)
	if deck != "" {
		sb.WriteString(` AND deck = ?`)
		args = append(args, deck)
	}
	sb.WriteString(` ORDER BY due ASC, created_at ASC, id ASC LIMIT ?`)
	args = append(args, limit)

	rows, err := db.q(ctx).QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, mapError(err, "due cards", owner)
	}
	defer rows.Close()

	cards, err := scanCards(rows)
	if err != nil {
		return nil, mapError(err, "due cards", owner)
	}
	return cards, nil
}

// ListCards returns every card the owner has, in creation order.
func (db *DB) ListCards(ctx context.Context, owner string) ([]domain.Card, error) {
	rows, err := db.q(ctx).QueryContext(ctx, `
		SELECT `+cardColumns+`
		FROM cards WHERE owner = ?
		ORDER BY created_at ASC, id ASC
	`, owner)
	if err != nil {
		return nil, mapError(err, "cards", owner)
	}
	defer rows.Close()

	cards, err := scanCards(rows)
	if err != nil {
		return nil, mapError(err, "cards", owner)
	}
	return cards, nil
}

// ListOwners returns every owner that has cards or stats.
func (db *DB) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := db.q(ctx).QueryContext(ctx, `
		SELECT owner FROM cards
		UNION
		SELECT owner FROM user_stats
		ORDER BY owner
	`)
	if err != nil {
		return nil, mapError(err, "owners", "")
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("failed to scan owner row: %w", err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "owners", "")
	}
	return owners, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (domain.Card, error) {
	var (
		c              domain.Card
		due, createdAt int64
		lastReviewed   sql.NullInt64
		lastSynced     sql.NullInt64
		history        string
		origin         string
		sourceID       sql.NullString
	)

	err := row.Scan(
		&c.ID,
		&c.Owner,
		&c.Deck,
		&c.Prompt,
		&c.Answer,
		&c.Box,
		&due,
		&createdAt,
		&lastReviewed,
		&history,
		&origin,
		&sourceID,
		&lastSynced,
		&c.Version,
	)
	if err != nil {
		return domain.Card{}, err
	}

	if err := json.Unmarshal([]byte(history), &c.History); err != nil {
		return domain.Card{}, fmt.Errorf("failed to decode history for card %s: %w", c.ID, err)
	}
	for i := range c.History {
		c.History[i].Timestamp = c.History[i].Timestamp.UTC()
	}
	c.Due = fromNanos(due)
	c.CreatedAt = fromNanos(createdAt)
	c.LastReviewedAt = fromNullNanos(lastReviewed)
	c.LastSyncedAt = fromNullNanos(lastSynced)
	c.Origin = domain.Origin(origin)
	c.SourceID = sourceID.String
	return c, nil
}

func scanCards(rows *sql.Rows) ([]domain.Card, error) {
	cards := []domain.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

// normalizeTimes makes a card written by this package compare equal, field by
// field, to the same card read back: UTC location, no monotonic reading.
func normalizeTimes(c domain.Card) domain.Card {
	c.Due = fromNanos(toNanos(c.Due))
	c.CreatedAt = fromNanos(toNanos(c.CreatedAt))
	c.LastReviewedAt = fromNullNanos(nullNanos(c.LastReviewedAt))
	c.LastSyncedAt = fromNullNanos(nullNanos(c.LastSyncedAt))
	if len(c.History) > 0 {
		h := make([]domain.ReviewEvent, len(c.History))
		for i, ev := range c.History {
			ev.Timestamp = fromNanos(toNanos(ev.Timestamp))
			h[i] = ev
		}
		c.History = h
	}
	return c
}

func toNanos(t time.Time) int64 { return t.UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func nullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNullNanos(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromNanos(n.Int64)
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
