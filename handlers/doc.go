// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers implements the HTTP API for running rip sessions.

# Handler groups

  - SessionHandler: session lifecycle (start, read, advance, reveal, cancel)
  - DisplayHandler: the public snapshot each kiosk polls
  - CardHandler: card inventory links resolved from scanned codes
  - LocationHandler: location registration and operator keys

# Authorization

Mutating session endpoints accept either the X-Control-Token issued when
the session started or the X-Operator-Key for the session's location.
Reads are public: the session code printed on the receipt is the only
thing a customer needs to follow their rip.

# Read repair

Every session read runs the timer-driven transitions that came due since
the last write and persists the result. Stage windows therefore expire
correctly even if no kiosk polled while they lapsed, and the repaired
timers reflect when each window actually ended rather than when the
repair ran.

# Status codes

  - 400: malformed body or missing field
  - 401: bad control token or operator key
  - 404: unknown session, location, or card code
  - 409: active-session conflict, or an advance not legal from the
    current status
*/
package handlers
