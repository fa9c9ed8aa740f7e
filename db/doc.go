// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database access and schema creation.

# Opening a Connection

Open selects the driver from the configured database type:

	conn, err := db.Open("sqlite", "riplive.db")
	conn, err := db.Open("postgres", "postgres://...")

SQLite (modernc.org/sqlite, pure Go) is the default for single-site kiosk
deployments and for tests; PostgreSQL (lib/pq) serves fleet deployments.

# Placeholder Rebinding

Queries throughout the codebase use ? placeholders. The DB and Tx
wrappers rebind them to $1..$N when the driver is PostgreSQL, so handler
SQL is written exactly once:

	conn.Exec("UPDATE kiosk_session SET status = ? WHERE id = ?", status, id)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - location: physical kiosk sites, addressed by slug
  - kiosk_session: session lifecycle state, stage timers, reveal payload
  - card: scanned card code to inventory item links

# Concurrency Guarantee

Partial unique indexes on kiosk_session enforce at most one active
(countdown/live/reveal) session per pack code and per location. The
handler's read-then-write conflict check runs inside a transaction; the
index is what makes a same-second race between two kiosks lose cleanly
instead of double-creating.
*/
package db
