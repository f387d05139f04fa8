package domain

import "time"

// CatalogEntry is an admin-authored study item owned by the Content Catalog.
type CatalogEntry struct {
	ID         string    `json:"id" validate:"required"`
	Title      string    `json:"title" validate:"required"`
	Content    string    `json:"content" validate:"required"`
	Category   string    `json:"category"`
	Difficulty string    `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// RawCatalogEntry is a catalog record as it arrives from a source, before
// normalization. Older documents use front/back or question/answer instead
// of title/content, so every alias is accepted here and resolved by
// knol.Normalize.
type RawCatalogEntry struct {
	ID             string `json:"id"`
	LegacyID       string `json:"_id"`
	Title          string `json:"title"`
	Front          string `json:"front"`
	Question       string `json:"question"`
	Content        string `json:"content"`
	Back           string `json:"back"`
	Answer         string `json:"answer"`
	Category       string `json:"category"`
	Deck           string `json:"deck"`
	Difficulty     string `json:"difficulty"`
	UpdatedAt      string `json:"updatedAt"`
	UpdatedAtSnake string `json:"updated_at"`
}

// SkippedEntry explains why a catalog entry produced no write.
type SkippedEntry struct {
	EntryID string `json:"entry_id"`
	Reason  string `json:"reason"`
}

// SyncReport summarizes one Synchronizer run for one owner.
type SyncReport struct {
	Created   int            `json:"created"`
	Updated   int            `json:"updated"`
	Unchanged int            `json:"unchanged"`
	Skipped   []SkippedEntry `json:"skipped"`
}

// Skip records entryID as skipped with reason.
func (r *SyncReport) Skip(entryID, reason string) {
	r.Skipped = append(r.Skipped, SkippedEntry{EntryID: entryID, Reason: reason})
}
