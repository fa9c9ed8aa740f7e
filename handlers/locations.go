// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"riplive/auth"
	"riplive/cliparse"
	"riplive/db"
	"riplive/middleware"
	"riplive/models"
)

type LocationHandler struct {
	db  *db.DB
	cfg cliparse.ServerConfig
}

func NewLocationHandler(database *db.DB, cfg cliparse.ServerConfig) *LocationHandler {
	return &LocationHandler{db: database, cfg: cfg}
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// CreateLocation handles POST /locations
//
// The operator key in the response is derived from the location ID and
// never stored; losing it means re-registering the location.
func (h *LocationHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLocationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if !slugPattern.MatchString(req.Slug) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug must be lowercase letters, digits, and hyphens")
		return
	}

	locationID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate location ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create location")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO location (id, name, slug, created_at)
		VALUES (?, ?, ?, ?)
	`, locationID, req.Name, req.Slug, time.Now().UTC())
	if err != nil {
		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Slug already in use")
			return
		}
		slog.Error("failed to insert location", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create location")
		return
	}

	slog.Info("location created", "location_id", locationID, "slug", req.Slug)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateLocationResponse{
		Location: models.Location{
			ID:   locationID,
			Name: req.Name,
			Slug: req.Slug,
		},
		OperatorKey: auth.GenerateOperatorKey(locationID, h.cfg.OperatorKeySalt),
	})
}
