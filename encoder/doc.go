// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package encoder maintains the single logical connection from a kiosk
process to its on-premises streaming encoder's control socket.

# Protocol

The encoder speaks a JSON envelope protocol over a websocket: Hello /
Identify / Identified handshake (with salted SHA-256 challenge auth when
a password is set), then request/response pairs correlated by request id,
with push events arriving at any time.

# Lifecycle

	disabled -> (terminal, no URL configured)
	disconnected -> connecting -> connected <-> streaming
	                     any of those -> error

Connection loss is observed asynchronously by the read loop: the state
resets, the scene cache clears, and registered OnStateChange handlers
fire.

# Idempotency Discipline

Every operation is safe to call redundantly:

  - Connect: concurrent callers share one in-flight attempt
  - SetScene: no-op when the cached scene already matches
  - StartStream: an "output already active" rejection is success
  - StopStream: an "output not active" rejection is success

# Failure Policy

Connect retries, bounded and with a fixed delay, only when the failure
classifies as identification/authentication; transport failures surface
immediately. Every operation here is advisory to the session lifecycle:
rip sessions progress on their own timers regardless of encoder health.
*/
package encoder
