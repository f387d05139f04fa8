package storage

// Timestamps are stored as unix nanoseconds so that range scans and ordering
// on due/created_at are plain integer comparisons.
const schema = `
-- One row per learner card.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    owner TEXT NOT NULL,
    deck TEXT NOT NULL DEFAULT '',
    prompt TEXT NOT NULL,
    answer TEXT NOT NULL,
    box INTEGER NOT NULL CHECK (box BETWEEN 1 AND 6),
    due INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    last_reviewed_at INTEGER,
    history TEXT NOT NULL DEFAULT '[]', -- JSON array, append-only
    origin TEXT NOT NULL CHECK (origin IN ('manual', 'catalog')),
    source_id TEXT,
    last_synced_at INTEGER,
    version INTEGER NOT NULL DEFAULT 1,

    CHECK ((origin = 'catalog') = (source_id IS NOT NULL))
);

-- A catalog entry materializes at most once per owner.
CREATE UNIQUE INDEX IF NOT EXISTS cards_owner_source
    ON cards (owner, source_id) WHERE source_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS cards_owner_due
    ON cards (owner, due, created_at);

-- Per-owner counters. Only ever changed by relative increments.
CREATE TABLE IF NOT EXISTS user_stats (
    owner TEXT PRIMARY KEY,
    total_cards INTEGER NOT NULL DEFAULT 0,
    total_reviews INTEGER NOT NULL DEFAULT 0,
    correct_answers INTEGER NOT NULL DEFAULT 0,
    cards_mastered INTEGER NOT NULL DEFAULT 0,
    last_study_session INTEGER
);

-- Calendar days (YYYY-MM-DD in the stats timezone) with at least one review.
-- The streak is derived from this set, never stored.
CREATE TABLE IF NOT EXISTS user_study_days (
    owner TEXT NOT NULL,
    day TEXT NOT NULL,

    PRIMARY KEY (owner, day)
);

CREATE TABLE IF NOT EXISTS user_box_counts (
    owner TEXT NOT NULL,
    box INTEGER NOT NULL CHECK (box BETWEEN 1 AND 6),
    cards INTEGER NOT NULL DEFAULT 0,

    PRIMARY KEY (owner, box)
);

CREATE TABLE IF NOT EXISTS user_settings (
    owner TEXT PRIMARY KEY,
    daily_goal INTEGER NOT NULL CHECK (daily_goal > 0)
);
`
