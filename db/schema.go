// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The DDL is the portable subset accepted by both SQLite and PostgreSQL:
// no column defaults (Go supplies every value) and no JSON columns (the
// reveal payload is flattened into nullable columns).
const schema = `
-- Kiosk locations
CREATE TABLE IF NOT EXISTS location (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_location_slug ON location(slug);

-- Rip sessions
CREATE TABLE IF NOT EXISTS kiosk_session (
    id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    location_id TEXT NOT NULL REFERENCES location(id) ON DELETE CASCADE,
    pack_code TEXT NOT NULL,
    status TEXT NOT NULL CHECK (status IN ('countdown', 'live', 'reveal', 'complete', 'cancelled')),
    control_token_hash TEXT NOT NULL,
    countdown_ends_at TIMESTAMP,
    live_ends_at TIMESTAMP,
    reveal_ends_at TIMESTAMP,
    live_seconds INTEGER NOT NULL,
    reveal_seconds INTEGER NOT NULL,
    reveal_name TEXT,
    reveal_set TEXT,
    reveal_number TEXT,
    reveal_image_url TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_code ON kiosk_session(code);
CREATE INDEX IF NOT EXISTS idx_session_location_status ON kiosk_session(location_id, status);

-- At most one active session per pack and per location. Partial unique
-- indexes are supported by both drivers and back the Conflict check even
-- when two kiosks race the same pack code.
CREATE UNIQUE INDEX IF NOT EXISTS idx_session_active_pack
    ON kiosk_session(pack_code)
    WHERE status IN ('countdown', 'live', 'reveal');

CREATE UNIQUE INDEX IF NOT EXISTS idx_session_active_location
    ON kiosk_session(location_id)
    WHERE status IN ('countdown', 'live', 'reveal');

-- Card inventory links (scanned card code -> revealable item)
CREATE TABLE IF NOT EXISTS card (
    item_id TEXT PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    set_name TEXT NOT NULL,
    number TEXT NOT NULL,
    image_url TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_card_code ON card(code);
`
