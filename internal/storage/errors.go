package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/conorfennell/knolbox/internal/domain"
)

// mapError converts database/sql and sqlite errors into domain errors.
// Cancellation passes through untouched; deadlines and lock contention are
// reported as domain.ErrStoreUnavailable so callers know a retry is safe.
func mapError(err error, entity, id string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s %s: %w", entity, id, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w: %w", entity, id, domain.ErrStoreUnavailable, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		code := sqErr.Code()
		switch code & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			// The extended code names the constraint; fall back to the
			// message when only the primary code is available.
			msg := sqErr.Error()
			switch {
			case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE,
				code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
				strings.Contains(msg, "UNIQUE constraint"):
				return fmt.Errorf("%s %s: %w", entity, id, domain.ErrAlreadyExists)
			default:
				return fmt.Errorf("%s %s: %w: %v", entity, id, domain.ErrInvalidInput, err)
			}
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%s %s: %w: %v", entity, id, domain.ErrStoreUnavailable, err)
		}
	}

	return fmt.Errorf("%s %s: %w", entity, id, err)
}
