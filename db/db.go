// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DB wraps *sql.DB with placeholder rebinding so queries can be written
// once with ? placeholders and run against both SQLite and PostgreSQL.
type DB struct {
	*sql.DB
	driver string
}

// Open connects using the configured database type. dbType is "sqlite"
// (modernc.org/sqlite, embedded, single-site deployments and tests) or
// "postgres" (lib/pq, fleet deployments).
func Open(dbType, url string) (*DB, error) {
	var driverName string
	switch dbType {
	case "sqlite":
		driverName = "sqlite"
	case "postgres":
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(driverName, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbType == "sqlite" {
		// modernc.org/sqlite serializes writes; a single connection avoids
		// SQLITE_BUSY under concurrent handlers.
		conn.SetMaxOpenConns(1)
	}

	return &DB{DB: conn, driver: dbType}, nil
}

// Wrap adopts an existing *sql.DB (used by tests).
func Wrap(conn *sql.DB, dbType string) *DB {
	return &DB{DB: conn, driver: dbType}
}

// Exec rebinds placeholders and delegates to database/sql.
func (d *DB) Exec(query string, args ...any) (sql.Result, error) {
	return d.DB.Exec(d.Rebind(query), args...)
}

func (d *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return d.DB.Query(d.Rebind(query), args...)
}

func (d *DB) QueryRow(query string, args ...any) *sql.Row {
	return d.DB.QueryRow(d.Rebind(query), args...)
}

// Begin starts a transaction that rebinds like its parent.
func (d *DB) Begin() (*Tx, error) {
	tx, err := d.DB.Begin()
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, db: d}, nil
}

// Tx wraps *sql.Tx with the same rebinding behavior as DB.
type Tx struct {
	*sql.Tx
	db *DB
}

func (t *Tx) Exec(query string, args ...any) (sql.Result, error) {
	return t.Tx.Exec(t.db.Rebind(query), args...)
}

func (t *Tx) Query(query string, args ...any) (*sql.Rows, error) {
	return t.Tx.Query(t.db.Rebind(query), args...)
}

func (t *Tx) QueryRow(query string, args ...any) *sql.Row {
	return t.Tx.QueryRow(t.db.Rebind(query), args...)
}

// IsUniqueViolation reports whether err came from a unique constraint.
// lib/pq surfaces SQLSTATE 23505; modernc.org/sqlite reports the
// constraint in the error text.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	msg := strings.ToUpper(err.Error())
	return strings.Contains(msg, "UNIQUE CONSTRAINT") || strings.Contains(msg, "CONSTRAINT FAILED")
}

// Rebind converts ? placeholders to $1..$N for PostgreSQL. SQLite takes
// ? natively so the query passes through untouched.
func (d *DB) Rebind(query string) string {
	if d.driver != "postgres" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
