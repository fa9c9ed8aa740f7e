// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session implements the authoritative lifecycle of one rip session.

# Lifecycle

	countdown -> live -> reveal -> complete
	     \         \        \
	      +---------+--------+--> cancelled

complete and cancelled are terminal: any further advance is a no-op, never
an error.

# Manual Advances

Apply validates one edge and sets the timer for the entered stage:

	err := session.Apply(s, models.StatusLive, time.Now())

# Timer-Driven Transitions

Evaluate reports the transition a lapsed timer makes due; Repair applies
the whole due chain. The effective time of an automatic transition is the
expiry timestamp that triggered it, so a session read hours late carries
truthful timers all the way to its terminal state:

	if session.Repair(s, time.Now()) {
		// persist the repaired session
	}

A live window that lapses with no reveal payload cancels the session.

# Reveal Attachment

AttachReveal is only legal while live; everywhere else it fails with
ErrInvalidState and leaves the session untouched.
*/
package session
