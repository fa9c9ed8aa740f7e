// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"riplive/cliparse"
	"riplive/db"
	"riplive/middleware"
	"riplive/models"
	"riplive/session"
)

type DisplayHandler struct {
	db  *db.DB
	cfg cliparse.ServerConfig
}

func NewDisplayHandler(database *db.DB, cfg cliparse.ServerConfig) *DisplayHandler {
	return &DisplayHandler{db: database, cfg: cfg}
}

// GetSnapshot handles GET /display/:slug
//
// Unauthenticated: the snapshot is what the public screen shows. A
// terminal or absent session yields a null session, which the kiosk
// renders as the attract loop.
func (h *DisplayHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Kiosks address their location by slug; the ops console uses the ID.
	var loc models.Location
	err := h.db.QueryRow("SELECT id, name, slug FROM location WHERE slug = ? OR id = ?", slug, slug).
		Scan(&loc.ID, &loc.Name, &loc.Slug)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Location not found")
		return
	}
	if err != nil {
		slog.Error("failed to query location", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	snapshot := models.DisplaySnapshot{Location: loc}

	row := h.db.QueryRow(`
		SELECT `+sessionColumns+`
		FROM kiosk_session s
		JOIN location l ON l.id = s.location_id
		WHERE s.location_id = ?
		  AND s.status IN ('countdown', 'live', 'reveal')
		ORDER BY s.created_at DESC
	`, loc.ID)

	s, _, err := scanSessionRow(row)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("failed to query active session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if s != nil {
		if session.Repair(s, time.Now().UTC()) {
			sh := SessionHandler{db: h.db, cfg: h.cfg}
			if err := sh.persistSession(s); err != nil {
				slog.Error("failed to persist repaired session", "session_id", s.ID, "error", err)
				middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
				return
			}
		}
		// A session repaired into a terminal status no longer belongs
		// on the screen.
		if !models.IsTerminal(s.Status) {
			snapshot.Session = s
		}
	}

	middleware.JSONResponse(w, http.StatusOK, snapshot)
}
