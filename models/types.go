// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Session status constants
const (
	StatusCountdown = "countdown"
	StatusLive      = "live"
	StatusReveal    = "reveal"
	StatusComplete  = "complete"
	StatusCancelled = "cancelled"
)

// Default stage window lengths in seconds
const (
	DefaultCountdownSeconds = 10
	DefaultLiveSeconds      = 60
	DefaultRevealSeconds    = 20
)

// IsTerminal reports whether a status accepts no further mutation.
func IsTerminal(status string) bool {
	return status == StatusComplete || status == StatusCancelled
}

// Request types

type StartSessionRequest struct {
	PackCode         string `json:"pack_code"`
	LocationID       string `json:"location_id,omitempty"`
	LocationSlug     string `json:"location_slug,omitempty"`
	CountdownSeconds int    `json:"countdown_seconds,omitempty"`
	LiveSeconds      int    `json:"live_seconds,omitempty"`
}

type AdvanceStageRequest struct {
	Stage string `json:"stage"`
}

type AttachRevealRequest struct {
	ItemID string `json:"item_id"`
}

type LinkCardRequest struct {
	ItemID   string `json:"item_id,omitempty"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Set      string `json:"set"`
	Number   string `json:"number"`
	ImageURL string `json:"image_url,omitempty"`
}

type CreateLocationRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Response types

type StartSessionResponse struct {
	Session      KioskSession `json:"session"`
	ControlToken string       `json:"control_token"`
}

type DisplaySnapshot struct {
	Location Location      `json:"location"`
	Session  *KioskSession `json:"session,omitempty"`
}

type CardResponse struct {
	ItemID   string `json:"item_id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Set      string `json:"set"`
	Number   string `json:"number"`
	ImageURL string `json:"image_url,omitempty"`
}

type CreateLocationResponse struct {
	Location    Location `json:"location"`
	OperatorKey string   `json:"operator_key"`
}

// Domain types

type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Reveal is the card payload attached once the pulled card is identified.
type Reveal struct {
	Name     string `json:"name"`
	Set      string `json:"set"`
	Number   string `json:"number"`
	ImageURL string `json:"image_url,omitempty"`
}

type KioskSession struct {
	ID              string     `json:"id"`
	Code            string     `json:"code"`
	Status          string     `json:"status"`
	PackCode        string     `json:"pack_code"`
	CountdownEndsAt *time.Time `json:"countdown_ends_at,omitempty"`
	LiveEndsAt      *time.Time `json:"live_ends_at,omitempty"`
	RevealEndsAt    *time.Time `json:"reveal_ends_at,omitempty"`
	LiveSeconds     int        `json:"live_seconds"`
	RevealSeconds   int        `json:"reveal_seconds"`
	Reveal          *Reveal    `json:"reveal,omitempty"`
	Location        Location   `json:"location"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
