// Package knol turns catalog records into canonical entries and fingerprints
// card content.
package knol

import (
	"strings"
	"time"

	"github.com/conorfennell/knolbox/internal/domain"
	"github.com/conorfennell/knolbox/pkg/validator"
)

// Normalize resolves the field aliases of raw, cleans every value and
// validates the result. A record that cannot become a CatalogEntry fails with
// a *domain.ValidationError.
func Normalize(raw domain.RawCatalogEntry) (domain.CatalogEntry, error) {
	entry := domain.CatalogEntry{
		ID:         clean(first(raw.ID, raw.LegacyID)),
		Title:      clean(first(raw.Title, raw.Front, raw.Question)),
		Content:    clean(first(raw.Content, raw.Back, raw.Answer)),
		Category:   clean(first(raw.Category, raw.Deck)),
		Difficulty: strings.ToLower(clean(raw.Difficulty)),
	}

	if ts := clean(first(raw.UpdatedAt, raw.UpdatedAtSnake)); ts != "" {
		updated, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return domain.CatalogEntry{}, domain.NewValidationError("updatedAt", "must be an RFC 3339 timestamp")
		}
		entry.UpdatedAt = updated.UTC()
	}

	if err := validator.ValidateStruct(entry); err != nil {
		return domain.CatalogEntry{}, err
	}
	return entry, nil
}

// CardContent maps an entry onto the card fields it owns.
func CardContent(e domain.CatalogEntry) (prompt, answer, deck string) {
	return e.Title, e.Content, e.Category
}

func first(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n"))
}
