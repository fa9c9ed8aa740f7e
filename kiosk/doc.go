// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package kiosk runs one on-site display against the session store.

# Event loop

Display.Run is a single goroutine owning all kiosk state. It multiplexes
three inputs: the snapshot poll, a one-second guard tick that fires
timer-driven advances between polls, and scanner reads delivered through
Scan. Serializing everything through one loop means no locks and no
stale in-flight results to discard.

# Scan routing

Raw scanner input is normalized (scancode.Normalize) and routed by
prefix: pack codes start a session, card codes resolve inventory and
attach the reveal, anything else is ignored.

# Advance latch

Each timer-driven advance fires at most once per (session, stage). The
server treats duplicate advances as no-ops anyway, so the latch is about
not hammering the API, not about correctness.

# Recovery

The active session ID and control token are cached in a local JSON file
(atomic write-rename). On startup the kiosk re-fetches that session and
resumes driving it if it is still active.

# Encoder

Scene switches and stream control go through a SceneDriver (the encoder
connection manager in production). Encoder failures never block or fail
the session lifecycle.
*/
package kiosk
