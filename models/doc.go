// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - StartSessionRequest: pack_code, location, optional window lengths
  - AdvanceStageRequest: target stage
  - AttachRevealRequest: item_id of the identified card
  - CreateLocationRequest: name, slug

# Response Types

Types for JSON responses:

  - StartSessionResponse: session, control_token (returned exactly once)
  - DisplaySnapshot: location plus current session or null
  - CardResponse: inventory link for a scanned card code
  - CreateLocationResponse: location, operator_key
  - ErrorResponse: error, message

# Domain Types

  - KioskSession: one rip session with its stage timers and reveal payload
  - Location: physical kiosk site (id, name, slug)
  - Reveal: card payload attached during the live window

# Constants

Status values (monotonic, cancelled reachable from any non-terminal):

	StatusCountdown = "countdown"
	StatusLive      = "live"
	StatusReveal    = "reveal"
	StatusComplete  = "complete"
	StatusCancelled = "cancelled"

Absence of a session is the display-side standby state; it has no
server-side representation.
*/
package models
