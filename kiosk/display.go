// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kiosk

import (
	"context"
	"log/slog"
	"time"

	"riplive/models"
	"riplive/scancode"
	"riplive/session"
)

// SceneDriver switches encoder scenes and the outbound stream. Scene and
// stream failures are advisory: the rip continues on the server
// regardless of what the encoder is doing.
type SceneDriver interface {
	SetScene(ctx context.Context, name string) error
	StartStream(ctx context.Context) error
	StopStream(ctx context.Context) error
}

// Scenes names the encoder scene for each screen.
type Scenes struct {
	Attract string
	Live    string
	Reveal  string
}

// DisplayConfig configures one kiosk display loop.
type DisplayConfig struct {
	Slug         string
	PollInterval time.Duration

	// Stage window overrides sent when this kiosk starts a session.
	// Zero means the server default.
	CountdownSeconds int
	LiveSeconds      int

	Scenes Scenes
}

// Display runs a kiosk: it polls the snapshot, reacts to scans, nudges
// timer-driven advances, and keeps the encoder scene in step with the
// session status.
//
// All state lives in the single Run goroutine. Scans arrive over a
// channel; nothing else is shared.
type Display struct {
	cfg      DisplayConfig
	client   *Client
	store    RecoveryStore
	driver   SceneDriver
	renderer Renderer

	scans chan string
	now   func() time.Time

	session      *models.KioskSession
	controlToken string
	latch        *advanceLatch
}

func NewDisplay(client *Client, store RecoveryStore, driver SceneDriver, renderer Renderer, cfg DisplayConfig) *Display {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	return &Display{
		cfg:      cfg,
		client:   client,
		store:    store,
		driver:   driver,
		renderer: renderer,
		scans:    make(chan string, 8),
		now:      time.Now,
		latch:    newAdvanceLatch(),
	}
}

// Scan hands a raw scanner read to the display loop. Never blocks; a
// scan arriving while the queue is full is dropped (the customer will
// scan again).
func (d *Display) Scan(raw string) {
	select {
	case d.scans <- raw:
	default:
		slog.Warn("scan queue full, dropping scan")
	}
}

// Run drives the display until ctx is cancelled.
func (d *Display) Run(ctx context.Context) error {
	d.recover(ctx)
	d.poll(ctx)

	pollTicker := time.NewTicker(d.cfg.PollInterval)
	defer pollTicker.Stop()

	// The guard fires timer-driven advances between polls so stage
	// changes land on time rather than on the next poll.
	guardTicker := time.NewTicker(time.Second)
	defer guardTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pollTicker.C:
			d.poll(ctx)
		case <-guardTicker.C:
			d.autoAdvance(ctx)
		case raw := <-d.scans:
			d.handleScan(ctx, raw)
		}
	}
}

// recover rehydrates the session this kiosk was driving before a
// restart. A session that finished or vanished while the kiosk was down
// just clears the cache.
func (d *Display) recover(ctx context.Context) {
	if d.store == nil {
		return
	}
	entry, err := d.store.Load()
	if err != nil {
		slog.Warn("failed to load recovery entry", "error", err)
		return
	}
	if entry == nil {
		return
	}

	s, err := d.client.GetSession(ctx, entry.SessionID)
	if err != nil {
		if IsNotFound(err) {
			d.store.Clear()
		} else {
			slog.Warn("failed to fetch recovered session", "session_id", entry.SessionID, "error", err)
		}
		return
	}
	if models.IsTerminal(s.Status) {
		d.store.Clear()
		return
	}

	d.controlToken = entry.ControlToken
	d.setSession(ctx, s)
	slog.Info("recovered session", "session_id", s.ID, "status", s.Status)
}

func (d *Display) poll(ctx context.Context) {
	snap, err := d.client.Snapshot(ctx, d.cfg.Slug)
	if err != nil {
		// Keep showing the last known state; the next poll retries.
		slog.Warn("snapshot poll failed", "error", err)
		return
	}
	d.setSession(ctx, snap.Session)
}

// setSession reconciles the observed session with local state, driving
// scenes, stream, recovery cache, and render.
func (d *Display) setSession(ctx context.Context, s *models.KioskSession) {
	switch {
	case s == nil && d.session == nil:
		return

	case s == nil:
		// The session ended or was cancelled elsewhere.
		slog.Info("session ended", "session_id", d.session.ID)
		d.session = nil
		d.controlToken = ""
		d.latch.reset()
		if d.store != nil {
			d.store.Clear()
		}
		d.applyScene(ctx, d.cfg.Scenes.Attract)
		d.stopStream(ctx)
		d.render()
		return

	case d.session == nil || d.session.ID != s.ID:
		// A different session than the one we were tracking. If this
		// kiosk did not start it, there is no token; timer advances are
		// then left to server-side read repair.
		if d.session != nil {
			d.controlToken = ""
		}
		d.session = s
		d.latch.reset()
		d.saveRecovery()
		d.applyScene(ctx, d.sceneFor(s.Status))
		d.startStream(ctx)
		d.render()
		return
	}

	statusChanged := d.session.Status != s.Status
	d.session = s
	if statusChanged {
		// Statuses never repeat within a session, so held latches are
		// for transitions that already happened.
		d.latch.reset()
		if models.IsTerminal(s.Status) {
			d.controlToken = ""
			d.session = nil
			if d.store != nil {
				d.store.Clear()
			}
			d.applyScene(ctx, d.cfg.Scenes.Attract)
			d.stopStream(ctx)
		} else {
			d.saveRecovery()
			d.applyScene(ctx, d.sceneFor(s.Status))
		}
	}
	d.render()
}

// autoAdvance requests the timer-driven transition due now, at most once
// per (session, stage). Only fires when this kiosk holds the control
// token; otherwise server-side read repair covers it on the next poll.
func (d *Display) autoAdvance(ctx context.Context) {
	if d.session == nil || d.controlToken == "" {
		return
	}

	target, _ := session.Evaluate(d.session, d.now().UTC())
	if target == "" {
		return
	}
	if !d.latch.tryAcquire(d.session.ID, target) {
		return
	}

	s, err := d.client.Advance(ctx, d.session.ID, target, d.controlToken)
	if err != nil {
		// Transient failure; release the latch so the next tick retries.
		slog.Warn("auto advance failed", "session_id", d.session.ID, "target", target, "error", err)
		d.latch.release(d.session.ID, target)
		return
	}
	d.setSession(ctx, s)
}

func (d *Display) handleScan(ctx context.Context, raw string) {
	code := scancode.Normalize(raw)
	if code == "" {
		return
	}

	switch scancode.Classify(code) {
	case scancode.KindPack:
		d.handlePackScan(ctx, code)
	case scancode.KindCard:
		d.handleCardScan(ctx, code)
	default:
		slog.Info("unrecognized scan", "code", code)
		d.notice("That code was not recognized. Scan the pack or card barcode.")
	}
}

func (d *Display) handlePackScan(ctx context.Context, code string) {
	if d.session != nil {
		slog.Info("pack scan rejected, session already running",
			"code", code, "session_id", d.session.ID)
		d.notice("A rip is already running. Wait for it to finish.")
		return
	}

	resp, err := d.client.StartSession(ctx, models.StartSessionRequest{
		PackCode:         code,
		LocationSlug:     d.cfg.Slug,
		CountdownSeconds: d.cfg.CountdownSeconds,
		LiveSeconds:      d.cfg.LiveSeconds,
	})
	if err != nil {
		if IsConflict(err) {
			slog.Warn("pack already in an active session", "code", code)
			d.notice("That pack is already in a session. Ask an operator for help.")
		} else {
			slog.Error("failed to start session", "code", code, "error", err)
			d.notice("Could not start the rip. Try scanning again.")
		}
		return
	}

	slog.Info("session started", "session_id", resp.Session.ID, "pack_code", code)
	d.controlToken = resp.ControlToken
	d.setSession(ctx, &resp.Session)
}

func (d *Display) handleCardScan(ctx context.Context, code string) {
	if d.session == nil {
		slog.Info("card scan rejected, no session", "code", code)
		d.notice("Scan a pack first to start a rip.")
		return
	}
	if d.controlToken == "" {
		slog.Info("card scan ignored, kiosk does not hold the control token", "code", code)
		return
	}

	card, err := d.client.GetCard(ctx, code)
	if err != nil {
		if IsNotFound(err) {
			slog.Warn("scanned card not linked to inventory", "code", code)
			d.notice("That card is not in inventory yet. Try another scan.")
		} else {
			slog.Error("failed to resolve card", "code", code, "error", err)
			d.notice("Could not look up the card. Try scanning again.")
		}
		return
	}

	s, err := d.client.AttachReveal(ctx, d.session.ID, card.ItemID, d.controlToken)
	if err != nil {
		slog.Warn("failed to attach reveal",
			"session_id", d.session.ID, "item_id", card.ItemID, "error", err)
		d.notice("Could not attach the card. Try scanning again.")
		return
	}

	slog.Info("reveal attached", "session_id", s.ID, "card", card.Name)
	d.setSession(ctx, s)
}

func (d *Display) sceneFor(status string) string {
	switch status {
	case models.StatusCountdown, models.StatusLive:
		return d.cfg.Scenes.Live
	case models.StatusReveal:
		return d.cfg.Scenes.Reveal
	default:
		return d.cfg.Scenes.Attract
	}
}

func (d *Display) applyScene(ctx context.Context, name string) {
	if d.driver == nil || name == "" {
		return
	}
	if err := d.driver.SetScene(ctx, name); err != nil {
		slog.Warn("failed to switch scene", "scene", name, "error", err)
	}
}

func (d *Display) startStream(ctx context.Context) {
	if d.driver == nil {
		return
	}
	if err := d.driver.StartStream(ctx); err != nil {
		slog.Warn("failed to start stream", "error", err)
	}
}

func (d *Display) stopStream(ctx context.Context) {
	if d.driver == nil {
		return
	}
	if err := d.driver.StopStream(ctx); err != nil {
		slog.Warn("failed to stop stream", "error", err)
	}
}

func (d *Display) saveRecovery() {
	if d.store == nil || d.session == nil || d.controlToken == "" {
		return
	}
	err := d.store.Save(RecoveryEntry{
		SessionID:    d.session.ID,
		ControlToken: d.controlToken,
		PackCode:     d.session.PackCode,
		Status:       d.session.Status,
		SavedAt:      d.now().UTC(),
	})
	if err != nil {
		slog.Warn("failed to save recovery entry", "error", err)
	}
}

func (d *Display) notice(message string) {
	if d.renderer == nil {
		return
	}
	d.renderer.Notice(message)
}

func (d *Display) render() {
	if d.renderer == nil {
		return
	}
	d.renderer.Render(d.session, d.now().UTC())
}
