// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"testing"

	"riplive/models"
	"riplive/router"
	"riplive/testutil"
)

func TestCreateLocation(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	w := testutil.MakeRequest(t, mux, "POST", "/locations", models.CreateLocationRequest{
		Name: "Front Counter",
		Slug: "front-counter",
	}, nil)
	testutil.AssertStatus(t, w, 201)

	var resp models.CreateLocationResponse
	testutil.DecodeJSON(t, w, &resp)
	if resp.Location.ID == "" {
		t.Error("Expected a location ID")
	}
	if resp.OperatorKey == "" {
		t.Error("Expected an operator key")
	}

	// The operator key works against session endpoints for this location
	sessionID, _ := testutil.CreateTestSession(t, database, cfg, resp.Location.ID, "tkp_opkey", models.StatusCountdown)
	w = testutil.MakeRequest(t, mux, "POST", "/sessions/"+sessionID+"/cancel", nil,
		map[string]string{"X-Operator-Key": resp.OperatorKey})
	testutil.AssertStatus(t, w, 200)
}

func TestCreateLocationValidation(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	testCases := []struct {
		name       string
		body       models.CreateLocationRequest
		wantStatus int
	}{
		{"missing name", models.CreateLocationRequest{Slug: "a-slug"}, 400},
		{"missing slug", models.CreateLocationRequest{Name: "A Name"}, 400},
		{"uppercase slug", models.CreateLocationRequest{Name: "A Name", Slug: "Front-Counter"}, 400},
		{"spaces in slug", models.CreateLocationRequest{Name: "A Name", Slug: "front counter"}, 400},
		{"valid", models.CreateLocationRequest{Name: "A Name", Slug: "counter-2"}, 201},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := testutil.MakeRequest(t, mux, "POST", "/locations", tc.body, nil)
			testutil.AssertStatus(t, w, tc.wantStatus)
		})
	}
}

func TestCreateLocationDuplicateSlug(t *testing.T) {
	database := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	mux := router.NewRouter(database, cfg)

	body := models.CreateLocationRequest{Name: "Front Counter", Slug: "front-counter"}

	w := testutil.MakeRequest(t, mux, "POST", "/locations", body, nil)
	testutil.AssertStatus(t, w, 201)

	w = testutil.MakeRequest(t, mux, "POST", "/locations", body, nil)
	testutil.AssertStatus(t, w, 409)
}
