// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"fmt"
	"testing"
	"time"

	"riplive/models"
	"riplive/router"
	"riplive/testutil"
)

func TestStartSession(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")

	w := testutil.MakeRequest(t, mux, "POST", "/sessions", models.StartSessionRequest{
		PackCode:     "https://rip.example.com/p/tkp_9f3k2",
		LocationSlug: "front-counter",
	}, nil)
	testutil.AssertStatus(t, w, 201)

	var resp models.StartSessionResponse
	testutil.DecodeJSON(t, w, &resp)

	if resp.ControlToken == "" {
		t.Error("Expected a control token")
	}
	if resp.Session.Status != models.StatusCountdown {
		t.Errorf("Expected status countdown, got %s", resp.Session.Status)
	}
	if resp.Session.PackCode != "tkp_9f3k2" {
		t.Errorf("Expected normalized pack code tkp_9f3k2, got %s", resp.Session.PackCode)
	}
	if resp.Session.Code == "" {
		t.Error("Expected a session code")
	}
	if resp.Session.CountdownEndsAt == nil {
		t.Error("Expected countdown_ends_at to be set")
	}
	if resp.Session.Location.ID != loc.ID {
		t.Errorf("Expected location %s, got %s", loc.ID, resp.Session.Location.ID)
	}
	if resp.Session.LiveSeconds != models.DefaultLiveSeconds {
		t.Errorf("Expected default live window, got %d", resp.Session.LiveSeconds)
	}
}

func TestStartSessionValidation(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	testutil.CreateTestLocation(t, database, cfg, "front-counter")

	testCases := []struct {
		name       string
		body       models.StartSessionRequest
		wantStatus int
	}{
		{
			name:       "missing pack code",
			body:       models.StartSessionRequest{LocationSlug: "front-counter"},
			wantStatus: 400,
		},
		{
			name:       "blank pack code",
			body:       models.StartSessionRequest{PackCode: "   ", LocationSlug: "front-counter"},
			wantStatus: 400,
		},
		{
			name:       "missing location",
			body:       models.StartSessionRequest{PackCode: "tkp_abc"},
			wantStatus: 400,
		},
		{
			name:       "unknown location",
			body:       models.StartSessionRequest{PackCode: "tkp_abc", LocationSlug: "nowhere"},
			wantStatus: 404,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := testutil.MakeRequest(t, mux, "POST", "/sessions", tc.body, nil)
			testutil.AssertStatus(t, w, tc.wantStatus)
		})
	}
}

func TestStartSessionConflicts(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	locA, _ := testutil.CreateTestLocation(t, database, cfg, "counter-a")
	locB, _ := testutil.CreateTestLocation(t, database, cfg, "counter-b")
	testutil.CreateTestSession(t, database, cfg, locA.ID, "tkp_busy", models.StatusLive)

	// Same pack at a different location
	w := testutil.MakeRequest(t, mux, "POST", "/sessions", models.StartSessionRequest{
		PackCode:     "tkp_busy",
		LocationSlug: locB.Slug,
	}, nil)
	testutil.AssertStatus(t, w, 409)

	// Different pack at the busy location
	w = testutil.MakeRequest(t, mux, "POST", "/sessions", models.StartSessionRequest{
		PackCode:     "tkp_other",
		LocationSlug: locA.Slug,
	}, nil)
	testutil.AssertStatus(t, w, 409)

	// Different pack at the idle location is fine
	w = testutil.MakeRequest(t, mux, "POST", "/sessions", models.StartSessionRequest{
		PackCode:     "tkp_other",
		LocationSlug: locB.Slug,
	}, nil)
	testutil.AssertStatus(t, w, 201)
}

func TestStartSessionAfterTerminal(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	sessionID, token := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_again", models.StatusCountdown)

	w := testutil.MakeRequest(t, mux, "POST", "/sessions/"+sessionID+"/cancel", nil,
		map[string]string{"X-Control-Token": token})
	testutil.AssertStatus(t, w, 200)

	// A cancelled session releases both the pack and the location.
	w = testutil.MakeRequest(t, mux, "POST", "/sessions", models.StartSessionRequest{
		PackCode:     "tkp_again",
		LocationSlug: loc.Slug,
	}, nil)
	testutil.AssertStatus(t, w, 201)
}

func TestGetSession(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	sessionID, _ := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_read", models.StatusCountdown)

	w := testutil.MakeRequest(t, mux, "GET", "/sessions/"+sessionID, nil, nil)
	testutil.AssertStatus(t, w, 200)

	var s models.KioskSession
	testutil.DecodeJSON(t, w, &s)
	if s.ID != sessionID {
		t.Errorf("Expected session %s, got %s", sessionID, s.ID)
	}
	if s.Status != models.StatusCountdown {
		t.Errorf("Expected status countdown, got %s", s.Status)
	}

	w = testutil.MakeRequest(t, mux, "GET", "/sessions/missing", nil, nil)
	testutil.AssertStatus(t, w, 404)
}

func TestGetSessionByCode(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	sessionID, _ := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_code", models.StatusLive)

	var code string
	err := database.QueryRow("SELECT code FROM kiosk_session WHERE id = ?", sessionID).Scan(&code)
	if err != nil {
		t.Fatalf("Failed to read session code: %v", err)
	}

	w := testutil.MakeRequest(t, mux, "GET", "/sessions/code/"+code, nil, nil)
	testutil.AssertStatus(t, w, 200)

	var s models.KioskSession
	testutil.DecodeJSON(t, w, &s)
	if s.ID != sessionID {
		t.Errorf("Expected session %s, got %s", sessionID, s.ID)
	}

	w = testutil.MakeRequest(t, mux, "GET", "/sessions/code/ZZZZZZZZ", nil, nil)
	testutil.AssertStatus(t, w, 404)
}

func TestGetSessionRepairsExpiredCountdown(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	sessionID, _ := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_exp", models.StatusCountdown)

	expired := time.Now().UTC().Add(-5 * time.Second)
	_, err := database.Exec("UPDATE kiosk_session SET countdown_ends_at = ? WHERE id = ?", expired, sessionID)
	if err != nil {
		t.Fatalf("Failed to expire countdown: %v", err)
	}

	w := testutil.MakeRequest(t, mux, "GET", "/sessions/"+sessionID, nil, nil)
	testutil.AssertStatus(t, w, 200)

	var s models.KioskSession
	testutil.DecodeJSON(t, w, &s)
	if s.Status != models.StatusLive {
		t.Fatalf("Expected repaired status live, got %s", s.Status)
	}
	if s.LiveEndsAt == nil {
		t.Fatal("Expected live_ends_at to be set")
	}

	// The live window is anchored at the countdown expiry, not at read time.
	want := expired.Add(time.Duration(s.LiveSeconds) * time.Second)
	if d := s.LiveEndsAt.Sub(want); d < -time.Second || d > time.Second {
		t.Errorf("Expected live_ends_at near %v, got %v", want, *s.LiveEndsAt)
	}

	// The repair is persisted, not just rendered.
	var status string
	if err := database.QueryRow("SELECT status FROM kiosk_session WHERE id = ?", sessionID).Scan(&status); err != nil {
		t.Fatalf("Failed to read status: %v", err)
	}
	if status != models.StatusLive {
		t.Errorf("Expected persisted status live, got %s", status)
	}
}

func TestGetSessionRepairsSilentLiveToCancelled(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	sessionID, _ := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_silent", models.StatusLive)

	_, err := database.Exec("UPDATE kiosk_session SET live_ends_at = ? WHERE id = ?",
		time.Now().UTC().Add(-time.Minute), sessionID)
	if err != nil {
		t.Fatalf("Failed to expire live window: %v", err)
	}

	w := testutil.MakeRequest(t, mux, "GET", "/sessions/"+sessionID, nil, nil)
	testutil.AssertStatus(t, w, 200)

	var s models.KioskSession
	testutil.DecodeJSON(t, w, &s)
	if s.Status != models.StatusCancelled {
		t.Errorf("Expected live session with no reveal to cancel on expiry, got %s", s.Status)
	}
}

func TestGetSessionRepairCascadesOfflineSession(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	sessionID, _ := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_cascade", models.StatusReveal)

	// The reveal window ended long ago; a single read walks it to complete.
	_, err := database.Exec("UPDATE kiosk_session SET reveal_ends_at = ? WHERE id = ?",
		time.Now().UTC().Add(-time.Hour), sessionID)
	if err != nil {
		t.Fatalf("Failed to expire reveal window: %v", err)
	}

	w := testutil.MakeRequest(t, mux, "GET", "/sessions/"+sessionID, nil, nil)
	testutil.AssertStatus(t, w, 200)

	var s models.KioskSession
	testutil.DecodeJSON(t, w, &s)
	if s.Status != models.StatusComplete {
		t.Errorf("Expected status complete, got %s", s.Status)
	}
}

func TestAdvanceStageAuth(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, operatorKey := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	sessionID, token := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_auth", models.StatusCountdown)

	testCases := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"no credential", nil, 401},
		{"wrong control token", map[string]string{"X-Control-Token": "bogus"}, 401},
		{"wrong operator key", map[string]string{"X-Operator-Key": "bogus"}, 401},
		{"valid control token", map[string]string{"X-Control-Token": token}, 200},
		{"valid operator key", map[string]string{"X-Operator-Key": operatorKey}, 200},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Advancing to live repeatedly is a no-op once the first
			// authorized call lands, so every case hits the same stage.
			w := testutil.MakeRequest(t, mux, "POST",
				fmt.Sprintf("/sessions/%s/advance", sessionID),
				models.AdvanceStageRequest{Stage: models.StatusLive}, tc.headers)
			testutil.AssertStatus(t, w, tc.wantStatus)
		})
	}
}

func TestAdvanceStage(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	sessionID, token := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_adv", models.StatusCountdown)
	headers := map[string]string{"X-Control-Token": token}

	// countdown -> live
	w := testutil.MakeRequest(t, mux, "POST", "/sessions/"+sessionID+"/advance",
		models.AdvanceStageRequest{Stage: models.StatusLive}, headers)
	testutil.AssertStatus(t, w, 200)

	var s models.KioskSession
	testutil.DecodeJSON(t, w, &s)
	if s.Status != models.StatusLive {
		t.Fatalf("Expected status live, got %s", s.Status)
	}
	if s.LiveEndsAt == nil {
		t.Fatal("Expected live_ends_at to be set")
	}

	// Repeating the same advance is a no-op
	w = testutil.MakeRequest(t, mux, "POST", "/sessions/"+sessionID+"/advance",
		models.AdvanceStageRequest{Stage: models.StatusLive}, headers)
	testutil.AssertStatus(t, w, 200)

	// live -> complete skips reveal and is rejected
	w = testutil.MakeRequest(t, mux, "POST", "/sessions/"+sessionID+"/advance",
		models.AdvanceStageRequest{Stage: models.StatusComplete}, headers)
	testutil.AssertStatus(t, w, 409)

	// Unknown stage
	w = testutil.MakeRequest(t, mux, "POST", "/sessions/"+sessionID+"/advance",
		models.AdvanceStageRequest{Stage: "paused"}, headers)
	testutil.AssertStatus(t, w, 400)
}

func TestAttachReveal(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	sessionID, token := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_rev", models.StatusLive)
	itemID := testutil.CreateTestCard(t, database, "tkc_hit1", "Charizard ex")
	headers := map[string]string{"X-Control-Token": token}

	w := testutil.MakeRequest(t, mux, "POST", "/sessions/"+sessionID+"/reveal",
		models.AttachRevealRequest{ItemID: itemID}, headers)
	testutil.AssertStatus(t, w, 200)

	var s models.KioskSession
	testutil.DecodeJSON(t, w, &s)
	if s.Reveal == nil || s.Reveal.Name != "Charizard ex" {
		t.Fatalf("Expected reveal payload, got %+v", s.Reveal)
	}
	if s.Status != models.StatusLive {
		t.Errorf("Attach should not advance the session, got %s", s.Status)
	}

	// Re-scanning a different card replaces the payload
	itemID2 := testutil.CreateTestCard(t, database, "tkc_hit2", "Pikachu")
	w = testutil.MakeRequest(t, mux, "POST", "/sessions/"+sessionID+"/reveal",
		models.AttachRevealRequest{ItemID: itemID2}, headers)
	testutil.AssertStatus(t, w, 200)
	testutil.DecodeJSON(t, w, &s)
	if s.Reveal == nil || s.Reveal.Name != "Pikachu" {
		t.Errorf("Expected replaced reveal payload, got %+v", s.Reveal)
	}

	// Unknown item
	w = testutil.MakeRequest(t, mux, "POST", "/sessions/"+sessionID+"/reveal",
		models.AttachRevealRequest{ItemID: "missing"}, headers)
	testutil.AssertStatus(t, w, 404)
}

func TestAttachRevealOnlyWhileLive(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	itemID := testutil.CreateTestCard(t, database, "tkc_early", "Squirtle")

	sessionID, token := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_early", models.StatusCountdown)
	w := testutil.MakeRequest(t, mux, "POST", "/sessions/"+sessionID+"/reveal",
		models.AttachRevealRequest{ItemID: itemID}, map[string]string{"X-Control-Token": token})
	testutil.AssertStatus(t, w, 409)
}

func TestCancelSessionIdempotent(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	loc, _ := testutil.CreateTestLocation(t, database, cfg, "front-counter")
	sessionID, token := testutil.CreateTestSession(t, database, cfg, loc.ID, "tkp_cxl", models.StatusLive)
	headers := map[string]string{"X-Control-Token": token}

	w := testutil.MakeRequest(t, mux, "POST", "/sessions/"+sessionID+"/cancel", nil, headers)
	testutil.AssertStatus(t, w, 200)

	var s models.KioskSession
	testutil.DecodeJSON(t, w, &s)
	if s.Status != models.StatusCancelled {
		t.Fatalf("Expected status cancelled, got %s", s.Status)
	}

	// Cancelling again stays cancelled and succeeds
	w = testutil.MakeRequest(t, mux, "POST", "/sessions/"+sessionID+"/cancel", nil, headers)
	testutil.AssertStatus(t, w, 200)
	testutil.DecodeJSON(t, w, &s)
	if s.Status != models.StatusCancelled {
		t.Errorf("Expected status cancelled, got %s", s.Status)
	}
}
