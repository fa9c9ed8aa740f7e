// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"riplive/auth"
	"riplive/cliparse"
	"riplive/db"
	"riplive/models"

	_ "modernc.org/sqlite"
)

// SetupTestDB creates a fresh in-memory SQLite database with the full
// schema. Each test gets its own database, so no cleanup is needed.
func SetupTestDB(t *testing.T) *db.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// A single connection keeps the in-memory database alive across
	// queries and avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	database := db.Wrap(conn, "sqlite")
	if err := db.CreateSchema(database); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return database
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.ServerConfig {
	return cliparse.ServerConfig{
		Port:            3380,
		DatabaseURL:     ":memory:",
		DatabaseType:    "sqlite",
		OperatorKeySalt: "test-operator-salt",
		SessionCodeSalt: "test-code-salt",
	}
}

// CreateTestLocation inserts a location and returns it with its operator key.
func CreateTestLocation(t *testing.T, database *db.DB, cfg cliparse.ServerConfig, slug string) (models.Location, string) {
	t.Helper()

	id, _ := auth.GenerateID(12)
	loc := models.Location{ID: id, Name: "Test Location", Slug: slug}

	_, err := database.Exec(`
		INSERT INTO location (id, name, slug, created_at)
		VALUES (?, ?, ?, ?)
	`, loc.ID, loc.Name, loc.Slug, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test location: %v", err)
	}

	return loc, auth.GenerateOperatorKey(id, cfg.OperatorKeySalt)
}

// CreateTestSession inserts a session in the given status with timers
// appropriate for that status (all windows still open relative to now).
// Returns the session ID and the plaintext control token.
func CreateTestSession(t *testing.T, database *db.DB, cfg cliparse.ServerConfig, locationID, packCode, status string) (string, string) {
	t.Helper()

	sessionID, _ := auth.GenerateID(16)
	code := auth.GenerateSessionCode(sessionID, cfg.SessionCodeSalt)
	token, err := auth.GenerateControlToken()
	if err != nil {
		t.Fatalf("Failed to generate control token: %v", err)
	}

	now := time.Now().UTC()
	var countdownEnds, liveEnds, revealEnds any
	switch status {
	case models.StatusCountdown:
		countdownEnds = now.Add(10 * time.Second)
	case models.StatusLive:
		countdownEnds = now.Add(-5 * time.Second)
		liveEnds = now.Add(60 * time.Second)
	case models.StatusReveal:
		countdownEnds = now.Add(-70 * time.Second)
		liveEnds = now.Add(-5 * time.Second)
		revealEnds = now.Add(20 * time.Second)
	}

	_, err = database.Exec(`
		INSERT INTO kiosk_session (
			id, code, location_id, pack_code, status, control_token_hash,
			countdown_ends_at, live_ends_at, reveal_ends_at,
			live_seconds, reveal_seconds,
			reveal_name, reveal_set, reveal_number, reveal_image_url,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, NULL, NULL, ?, ?)
	`, sessionID, code, locationID, packCode, status, auth.HashControlToken(token),
		countdownEnds, liveEnds, revealEnds,
		models.DefaultLiveSeconds, models.DefaultRevealSeconds, now, now)
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return sessionID, token
}

// CreateTestCard inserts a card inventory link and returns the item ID.
func CreateTestCard(t *testing.T, database *db.DB, code, name string) string {
	t.Helper()

	itemID, _ := auth.GenerateID(12)
	_, err := database.Exec(`
		INSERT INTO card (item_id, code, name, set_name, number, image_url, created_at)
		VALUES (?, ?, ?, 'Test Set', '042/198', NULL, ?)
	`, itemID, code, name, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test card: %v", err)
	}

	return itemID
}

// MakeRequest performs an HTTP request against a handler and returns the recorder.
func MakeRequest(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// AssertStatus fails the test if the recorded status differs.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("Expected status %d, got %d (body: %s)", want, w.Code, w.Body.String())
	}
}

// DecodeJSON decodes the response body into v.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}
