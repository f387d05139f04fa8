package knol

import (
	"errors"
	"testing"
	"time"

	"github.com/conorfennell/knolbox/internal/domain"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		raw      domain.RawCatalogEntry
		expected domain.CatalogEntry
	}{
		{
			name: "canonical fields",
			raw: domain.RawCatalogEntry{
				ID: "c1", Title: "Flashover", Content: "Simultaneous ignition", Category: "fire", Difficulty: "medium",
				UpdatedAt: "2025-06-01T08:00:00Z",
			},
			expected: domain.CatalogEntry{
				ID: "c1", Title: "Flashover", Content: "Simultaneous ignition", Category: "fire", Difficulty: "medium",
				UpdatedAt: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "front and back aliases",
			raw:  domain.RawCatalogEntry{LegacyID: "c2", Front: "Backdraft", Back: "Oxygen re-entry", Deck: "fire"},
			expected: domain.CatalogEntry{
				ID: "c2", Title: "Backdraft", Content: "Oxygen re-entry", Category: "fire",
			},
		},
		{
			name: "question and answer aliases with snake case timestamp",
			raw: domain.RawCatalogEntry{
				ID: "c3", Question: "PASS?", Answer: "Pull, aim, squeeze, sweep", UpdatedAtSnake: "2025-06-01T10:00:00+02:00",
			},
			expected: domain.CatalogEntry{
				ID: "c3", Title: "PASS?", Content: "Pull, aim, squeeze, sweep",
				UpdatedAt: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "whitespace, line endings and difficulty case",
			raw: domain.RawCatalogEntry{
				ID: " c4 ", Title: "  Triangle ", Content: "Heat\r\nFuel\r\nOxygen\r\n", Difficulty: " EASY ",
			},
			expected: domain.CatalogEntry{
				ID: "c4", Title: "Triangle", Content: "Heat\nFuel\nOxygen", Difficulty: "easy",
			},
		},
		{
			name: "blank canonical field falls back to alias",
			raw:  domain.RawCatalogEntry{ID: "c5", Title: "   ", Front: "Rollover", Content: "Flames in the smoke layer"},
			expected: domain.CatalogEntry{
				ID: "c5", Title: "Rollover", Content: "Flames in the smoke layer",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.raw)
			if err != nil {
				t.Fatalf("Normalize() returned an unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected %+v, but got %+v", tc.expected, got)
			}
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	testCases := []struct {
		name  string
		raw   domain.RawCatalogEntry
		field string
	}{
		{name: "missing id", raw: domain.RawCatalogEntry{Title: "t", Content: "c"}, field: "id"},
		{name: "missing title", raw: domain.RawCatalogEntry{ID: "x", Content: "c"}, field: "title"},
		{name: "missing content", raw: domain.RawCatalogEntry{ID: "x", Title: "t"}, field: "content"},
		{name: "unknown difficulty", raw: domain.RawCatalogEntry{ID: "x", Title: "t", Content: "c", Difficulty: "brutal"}, field: "difficulty"},
		{name: "bad timestamp", raw: domain.RawCatalogEntry{ID: "x", Title: "t", Content: "c", UpdatedAt: "yesterday"}, field: "updatedAt"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.raw)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("Expected an invalid input error, but got %v", err)
			}
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected a *domain.ValidationError, but got %T", err)
			}
			if verr.Errors[0].Field != tc.field {
				t.Errorf("Expected field '%s', but got '%s'", tc.field, verr.Errors[0].Field)
			}
		})
	}
}
