// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"testing"
	"time"

	"riplive/models"
	"riplive/router"
	"riplive/testutil"
)

func TestGetSnapshotNoSession(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")

	w := testutil.MakeRequest(t, mux, "GET", "/display/front-counter", nil, nil)
	testutil.AssertStatus(t, w, 200)

	var snap models.DisplaySnapshot
	testutil.DecodeJSON(t, w, &snap)
	if snap.Location.ID != loc.ID {
		t.Errorf("Expected location %s, got %s", loc.ID, snap.Location.ID)
	}
	if snap.Session != nil {
		t.Errorf("Expected no session, got %+v", snap.Session)
	}
}

func TestGetSnapshotUnknownLocation(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	w := testutil.MakeRequest(t, mux, "GET", "/display/nowhere", nil, nil)
	testutil.AssertStatus(t, w, 404)
}

func TestGetSnapshotActiveSession(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	sessionID, _ := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_show", models.StatusLive)

	w := testutil.MakeRequest(t, mux, "GET", "/display/front-counter", nil, nil)
	testutil.AssertStatus(t, w, 200)

	var snap models.DisplaySnapshot
	testutil.DecodeJSON(t, w, &snap)
	if snap.Session == nil {
		t.Fatal("Expected an active session in the snapshot")
	}
	if snap.Session.ID != sessionID {
		t.Errorf("Expected session %s, got %s", sessionID, snap.Session.ID)
	}
	if snap.Session.Status != models.StatusLive {
		t.Errorf("Expected status live, got %s", snap.Session.Status)
	}
}

func TestGetSnapshotRepairsToStandby(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	sessionID, _ := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_gone", models.StatusLive)

	// Live window lapsed with no reveal: the session cancels and the
	// screen returns to standby in the same poll.
	_, err := database.Exec("UPDATE kiosk_session SET live_ends_at = ? WHERE id = ?",
		time.Now().UTC().Add(-time.Minute), sessionID)
	if err != nil {
		t.Fatalf("Failed to expire live window: %v", err)
	}

	w := testutil.MakeRequest(t, mux, "GET", "/display/front-counter", nil, nil)
	testutil.AssertStatus(t, w, 200)

	var snap models.DisplaySnapshot
	testutil.DecodeJSON(t, w, &snap)
	if snap.Session != nil {
		t.Errorf("Expected no session after repair, got status %s", snap.Session.Status)
	}

	var status string
	if err := database.QueryRow("SELECT status FROM kiosk_session WHERE id = ?", sessionID).Scan(&status); err != nil {
		t.Fatalf("Failed to read status: %v", err)
	}
	if status != models.StatusCancelled {
		t.Errorf("Expected persisted status cancelled, got %s", status)
	}
}
