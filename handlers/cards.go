// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"riplive/auth"
	"riplive/cliparse"
	"riplive/db"
	"riplive/middleware"
	"riplive/models"
	"riplive/scancode"
)

type CardHandler struct {
	db  *db.DB
	cfg cliparse.ServerConfig
}

func NewCardHandler(database *db.DB, cfg cliparse.ServerConfig) *CardHandler {
	return &CardHandler{db: database, cfg: cfg}
}

// GetCard handles GET /cards/:code
//
// Resolves a scanned card code to the inventory item it is linked to.
// Unlinked codes are 404: the kiosk treats that as "not in inventory yet"
// and keeps the current screen.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	code := scancode.Normalize(r.PathValue("code"))
	if code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "code is required")
		return
	}

	var resp models.CardResponse
	var imageURL sql.NullString
	err := h.db.QueryRow(`
		SELECT item_id, code, name, set_name, number, image_url
		FROM card WHERE code = ?
	`, code).Scan(&resp.ItemID, &resp.Code, &resp.Name, &resp.Set, &resp.Number, &imageURL)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Card not found")
		return
	}
	if err != nil {
		slog.Error("failed to query card", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	resp.ImageURL = imageURL.String

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// LinkCard handles POST /cards
//
// Operator-only: registers a card code so scans can resolve it. The
// operator key for any location is accepted since inventory is shared.
func (h *CardHandler) LinkCard(w http.ResponseWriter, r *http.Request) {
	var req models.LinkCardRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	code := scancode.Normalize(req.Code)
	if code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	key := r.Header.Get("X-Operator-Key")
	if err := h.validateAnyOperatorKey(key); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid operator key")
		return
	}

	itemID := req.ItemID
	if itemID == "" {
		var err error
		itemID, err = auth.GenerateID(12)
		if err != nil {
			slog.Error("failed to generate item ID", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to link card")
			return
		}
	}

	_, err := h.db.Exec(`
		INSERT INTO card (item_id, code, name, set_name, number, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, itemID, code, req.Name, req.Set, req.Number, req.ImageURL, time.Now().UTC())
	if err != nil {
		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Card code already linked")
			return
		}
		slog.Error("failed to insert card", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to link card")
		return
	}

	slog.Info("card linked", "item_id", itemID, "code", code)

	middleware.JSONResponse(w, http.StatusCreated, models.CardResponse{
		ItemID:   itemID,
		Code:     code,
		Name:     req.Name,
		Set:      req.Set,
		Number:   req.Number,
		ImageURL: req.ImageURL,
	})
}

func (h *CardHandler) validateAnyOperatorKey(key string) error {
	if key == "" {
		return auth.ErrInvalidOperatorKey
	}

	rows, err := h.db.Query("SELECT id FROM location")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		if auth.ValidateOperatorKey(id, key, h.cfg.OperatorKeySalt) == nil {
			return nil
		}
	}
	return auth.ErrInvalidOperatorKey
}
