// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package testutil provides shared helpers for handler tests: an
// in-memory SQLite database with the real schema, fixture builders for
// locations, sessions, and cards, and request/assertion helpers.
package testutil
