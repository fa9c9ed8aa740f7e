// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"errors"
	"time"

	"riplive/models"
)

var (
	// ErrConflict means an active session already exists for the pack or location.
	ErrConflict = errors.New("an active session already exists")
	// ErrInvalidState means the transition or reveal-attach is not valid from the current status.
	ErrInvalidState = errors.New("not valid in current session state")
	// ErrUnauthorized means the control token or operator key did not match.
	ErrUnauthorized = errors.New("missing or invalid credential")
	// ErrNotFound means the session, card, or location does not exist.
	ErrNotFound = errors.New("not found")
)

// Transition is a single allowed edge in the session lifecycle.
type Transition struct {
	From string
	To   string
}

// The lifecycle is monotonic along countdown -> live -> reveal -> complete,
// with cancelled reachable from any non-terminal status.
var transitions = []Transition{
	{From: models.StatusCountdown, To: models.StatusLive},
	{From: models.StatusLive, To: models.StatusReveal},
	{From: models.StatusReveal, To: models.StatusComplete},

	{From: models.StatusCountdown, To: models.StatusCancelled},
	{From: models.StatusLive, To: models.StatusCancelled},
	{From: models.StatusReveal, To: models.StatusCancelled},
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to string) bool {
	for _, tr := range transitions {
		if tr.From == from && tr.To == to {
			return true
		}
	}
	return false
}

// Apply validates and applies a stage advance at time `at`, mutating the
// session's status and timers.
//
// Idempotence: advancing to the current status, or any advance on a
// session already in a terminal status, is a no-op and never an error.
func Apply(s *models.KioskSession, target string, at time.Time) error {
	if s.Status == target {
		return nil
	}
	if models.IsTerminal(s.Status) {
		return nil
	}
	if !CanTransition(s.Status, target) {
		return ErrInvalidState
	}

	switch target {
	case models.StatusLive:
		ends := at.Add(time.Duration(s.LiveSeconds) * time.Second)
		s.LiveEndsAt = &ends
	case models.StatusReveal:
		ends := at.Add(time.Duration(s.RevealSeconds) * time.Second)
		s.RevealEndsAt = &ends
	}

	s.Status = target
	return nil
}

// Evaluate returns the timer-driven transition due at `now`, if any, and
// the effective time at which it fires. The effective time is the expiry
// timestamp itself, not `now`, so that a session read long after its
// windows lapsed repairs through the whole chain with truthful timers.
//
// A live window that lapses with no reveal payload attached cancels the
// session rather than revealing nothing.
func Evaluate(s *models.KioskSession, now time.Time) (target string, at time.Time) {
	switch s.Status {
	case models.StatusCountdown:
		if s.CountdownEndsAt != nil && !now.Before(*s.CountdownEndsAt) {
			return models.StatusLive, *s.CountdownEndsAt
		}
	case models.StatusLive:
		if s.LiveEndsAt != nil && !now.Before(*s.LiveEndsAt) {
			if s.Reveal != nil {
				return models.StatusReveal, *s.LiveEndsAt
			}
			return models.StatusCancelled, *s.LiveEndsAt
		}
	case models.StatusReveal:
		if s.RevealEndsAt != nil && !now.Before(*s.RevealEndsAt) {
			return models.StatusComplete, *s.RevealEndsAt
		}
	}
	return "", time.Time{}
}

// Repair applies every timer-driven transition due at `now` in order.
// Returns true if the session changed.
func Repair(s *models.KioskSession, now time.Time) bool {
	changed := false
	for {
		target, at := Evaluate(s, now)
		if target == "" {
			return changed
		}
		if err := Apply(s, target, at); err != nil {
			// Evaluate only proposes legal edges.
			return changed
		}
		changed = true
	}
}

// AttachReveal binds the identified card to the session. Only valid while
// the session is live. A second attach while still live replaces the
// payload (a mis-scan corrected before the window closes).
func AttachReveal(s *models.KioskSession, r models.Reveal) error {
	if s.Status != models.StatusLive {
		return ErrInvalidState
	}
	s.Reveal = &r
	return nil
}
