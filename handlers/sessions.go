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
	"riplive/session"
)

type SessionHandler struct {
	db  *db.DB
	cfg cliparse.ServerConfig
}

func NewSessionHandler(database *db.DB, cfg cliparse.ServerConfig) *SessionHandler {
	return &SessionHandler{db: database, cfg: cfg}
}

// StartSession handles POST /sessions
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	packCode := scancode.Normalize(req.PackCode)
	if packCode == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pack_code is required")
		return
	}
	if req.LocationID == "" && req.LocationSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "location_id or location_slug is required")
		return
	}

	countdown := req.CountdownSeconds
	if countdown <= 0 {
		countdown = models.DefaultCountdownSeconds
	}
	liveSeconds := req.LiveSeconds
	if liveSeconds <= 0 {
		liveSeconds = models.DefaultLiveSeconds
	}

	// Resolve location
	var loc models.Location
	var err error
	if req.LocationID != "" {
		err = h.db.QueryRow("SELECT id, name, slug FROM location WHERE id = ?", req.LocationID).
			Scan(&loc.ID, &loc.Name, &loc.Slug)
	} else {
		err = h.db.QueryRow("SELECT id, name, slug FROM location WHERE slug = ?", req.LocationSlug).
			Scan(&loc.ID, &loc.Name, &loc.Slug)
	}
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Location not found")
		return
	}
	if err != nil {
		slog.Error("failed to query location", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	sessionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate session ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	controlToken, err := auth.GenerateControlToken()
	if err != nil {
		slog.Error("failed to generate control token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start session")
		return
	}
	code := auth.GenerateSessionCode(sessionID, h.cfg.SessionCodeSalt)

	now := time.Now().UTC()
	countdownEnds := now.Add(time.Duration(countdown) * time.Second)

	s := models.KioskSession{
		ID:              sessionID,
		Code:            code,
		Status:          models.StatusCountdown,
		PackCode:        packCode,
		CountdownEndsAt: &countdownEnds,
		LiveSeconds:     liveSeconds,
		RevealSeconds:   models.DefaultRevealSeconds,
		Location:        loc,
		CreatedAt:       now,
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	// Check for an active session on the same pack or location before
	// inserting so the common case gets a clean conflict message. The
	// partial unique indexes still catch two inserts racing this check.
	var active int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM kiosk_session
		WHERE (pack_code = ? OR location_id = ?)
		  AND status IN ('countdown', 'live', 'reveal')
	`, packCode, loc.ID).Scan(&active)
	if err != nil {
		slog.Error("failed to check active sessions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if active > 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "An active session already exists for this pack or location")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO kiosk_session (
			id, code, location_id, pack_code, status, control_token_hash,
			countdown_ends_at, live_ends_at, reveal_ends_at,
			live_seconds, reveal_seconds,
			reveal_name, reveal_set, reveal_number, reveal_image_url,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?, NULL, NULL, NULL, NULL, ?, ?)
	`, s.ID, s.Code, loc.ID, s.PackCode, s.Status, auth.HashControlToken(controlToken),
		countdownEnds, s.LiveSeconds, s.RevealSeconds, now, now)
	if err != nil {
		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "An active session already exists for this pack or location")
			return
		}
		slog.Error("failed to insert session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to start session")
		return
	}

	slog.Info("session started",
		"session_id", s.ID,
		"pack_code", s.PackCode,
		"location", loc.Slug,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.StartSessionResponse{
		Session:      s,
		ControlToken: controlToken,
	})
}

// GetSession handles GET /sessions/:id
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session_id is required")
		return
	}

	s, _, err := h.loadSession("s.id = ?", sessionID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if session.Repair(s, time.Now().UTC()) {
		if err := h.persistSession(s); err != nil {
			slog.Error("failed to persist repaired session", "session_id", s.ID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
	}

	middleware.JSONResponse(w, http.StatusOK, s)
}

// GetSessionByCode handles GET /sessions/code/:code
func (h *SessionHandler) GetSessionByCode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "code is required")
		return
	}

	s, _, err := h.loadSession("s.code = ?", code)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if session.Repair(s, time.Now().UTC()) {
		if err := h.persistSession(s); err != nil {
			slog.Error("failed to persist repaired session", "session_id", s.ID, "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
	}

	middleware.JSONResponse(w, http.StatusOK, s)
}

// AdvanceStage handles POST /sessions/:id/advance
func (h *SessionHandler) AdvanceStage(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session_id is required")
		return
	}

	var req models.AdvanceStageRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	switch req.Stage {
	case models.StatusLive, models.StatusReveal, models.StatusComplete, models.StatusCancelled:
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "stage must be one of: live, reveal, complete, cancelled")
		return
	}

	s, tokenHash, err := h.loadSession("s.id = ?", sessionID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := h.authorize(r, s, tokenHash); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid control token or operator key")
		return
	}

	now := time.Now().UTC()
	session.Repair(s, now)

	if err := session.Apply(s, req.Stage, now); err != nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot advance to "+req.Stage+" from "+s.Status)
		return
	}

	if err := h.persistSession(s); err != nil {
		slog.Error("failed to persist session", "session_id", s.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("session advanced", "session_id", s.ID, "status", s.Status)

	middleware.JSONResponse(w, http.StatusOK, s)
}

// AttachReveal handles POST /sessions/:id/reveal
func (h *SessionHandler) AttachReveal(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session_id is required")
		return
	}

	var req models.AttachRevealRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ItemID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "item_id is required")
		return
	}

	s, tokenHash, err := h.loadSession("s.id = ?", sessionID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := h.authorize(r, s, tokenHash); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid control token or operator key")
		return
	}

	var reveal models.Reveal
	var imageURL sql.NullString
	err = h.db.QueryRow(`
		SELECT name, set_name, number, image_url FROM card WHERE item_id = ?
	`, req.ItemID).Scan(&reveal.Name, &reveal.Set, &reveal.Number, &imageURL)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Card not found")
		return
	}
	if err != nil {
		slog.Error("failed to query card", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	reveal.ImageURL = imageURL.String

	now := time.Now().UTC()
	session.Repair(s, now)

	if err := session.AttachReveal(s, reveal); err != nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Reveal can only be attached while the session is live")
		return
	}

	if err := h.persistSession(s); err != nil {
		slog.Error("failed to persist session", "session_id", s.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("reveal attached", "session_id", s.ID, "item_id", req.ItemID)

	middleware.JSONResponse(w, http.StatusOK, s)
}

// CancelSession handles POST /sessions/:id/cancel
func (h *SessionHandler) CancelSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session_id is required")
		return
	}

	s, tokenHash, err := h.loadSession("s.id = ?", sessionID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		slog.Error("failed to query session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := h.authorize(r, s, tokenHash); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid control token or operator key")
		return
	}

	now := time.Now().UTC()
	session.Repair(s, now)

	// Cancelling a finished session is a no-op, not an error.
	if err := session.Apply(s, models.StatusCancelled, now); err != nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Cannot cancel from "+s.Status)
		return
	}

	if err := h.persistSession(s); err != nil {
		slog.Error("failed to persist session", "session_id", s.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("session cancelled", "session_id", s.ID, "status", s.Status)

	middleware.JSONResponse(w, http.StatusOK, s)
}

// authorize accepts either the per-session control token or the
// location-scoped operator key.
func (h *SessionHandler) authorize(r *http.Request, s *models.KioskSession, tokenHash string) error {
	if token := r.Header.Get("X-Control-Token"); token != "" {
		return auth.VerifyControlToken(token, tokenHash)
	}
	if key := r.Header.Get("X-Operator-Key"); key != "" {
		return auth.ValidateOperatorKey(s.Location.ID, key, h.cfg.OperatorKeySalt)
	}
	return session.ErrUnauthorized
}

const sessionColumns = `
	s.id, s.code, s.status, s.pack_code, s.control_token_hash,
	s.countdown_ends_at, s.live_ends_at, s.reveal_ends_at,
	s.live_seconds, s.reveal_seconds,
	s.reveal_name, s.reveal_set, s.reveal_number, s.reveal_image_url,
	s.created_at,
	l.id, l.name, l.slug`

// loadSession fetches one session joined with its location. The where
// clause references the aliases s (kiosk_session) and l (location).
func (h *SessionHandler) loadSession(where string, args ...any) (*models.KioskSession, string, error) {
	row := h.db.QueryRow(`
		SELECT `+sessionColumns+`
		FROM kiosk_session s
		JOIN location l ON l.id = s.location_id
		WHERE `+where, args...)
	return scanSessionRow(row)
}

func scanSessionRow(row *sql.Row) (*models.KioskSession, string, error) {
	var s models.KioskSession
	var tokenHash string
	var countdownEnds, liveEnds, revealEnds sql.NullTime
	var revealName, revealSet, revealNumber, revealImage sql.NullString

	err := row.Scan(
		&s.ID, &s.Code, &s.Status, &s.PackCode, &tokenHash,
		&countdownEnds, &liveEnds, &revealEnds,
		&s.LiveSeconds, &s.RevealSeconds,
		&revealName, &revealSet, &revealNumber, &revealImage,
		&s.CreatedAt,
		&s.Location.ID, &s.Location.Name, &s.Location.Slug,
	)
	if err != nil {
		return nil, "", err
	}

	if countdownEnds.Valid {
		t := countdownEnds.Time.UTC()
		s.CountdownEndsAt = &t
	}
	if liveEnds.Valid {
		t := liveEnds.Time.UTC()
		s.LiveEndsAt = &t
	}
	if revealEnds.Valid {
		t := revealEnds.Time.UTC()
		s.RevealEndsAt = &t
	}
	if revealName.Valid {
		s.Reveal = &models.Reveal{
			Name:     revealName.String,
			Set:      revealSet.String,
			Number:   revealNumber.String,
			ImageURL: revealImage.String,
		}
	}
	s.CreatedAt = s.CreatedAt.UTC()

	return &s, tokenHash, nil
}

func (h *SessionHandler) persistSession(s *models.KioskSession) error {
	var revealName, revealSet, revealNumber, revealImage any
	if s.Reveal != nil {
		revealName = s.Reveal.Name
		revealSet = s.Reveal.Set
		revealNumber = s.Reveal.Number
		revealImage = s.Reveal.ImageURL
	}

	var liveEnds, revealEnds any
	if s.LiveEndsAt != nil {
		liveEnds = *s.LiveEndsAt
	}
	if s.RevealEndsAt != nil {
		revealEnds = *s.RevealEndsAt
	}

	_, err := h.db.Exec(`
		UPDATE kiosk_session SET
			status = ?,
			live_ends_at = ?,
			reveal_ends_at = ?,
			reveal_name = ?,
			reveal_set = ?,
			reveal_number = ?,
			reveal_image_url = ?,
			updated_at = ?
		WHERE id = ?
	`, s.Status, liveEnds, revealEnds,
		revealName, revealSet, revealNumber, revealImage,
		time.Now().UTC(), s.ID)
	return err
}
