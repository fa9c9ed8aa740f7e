// Copyright (c) 2026 Riplive.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kiosk

// advanceLatch tracks which timer-driven advances this kiosk has already
// requested, keyed by session and target stage. Statuses never repeat
// within a session, so a latch stays held until the session's observed
// status actually changes, at which point earlier latches are moot and
// the set resets. No mutex: the display loop is the only goroutine that
// touches it.
type advanceLatch struct {
	sessionID string
	fired     map[string]bool
}

func newAdvanceLatch() *advanceLatch {
	return &advanceLatch{fired: make(map[string]bool)}
}

// tryAcquire returns true the first time a (session, stage) advance is
// requested; repeats are suppressed until reset.
func (l *advanceLatch) tryAcquire(sessionID, stage string) bool {
	if sessionID != l.sessionID {
		l.sessionID = sessionID
		l.fired = make(map[string]bool)
	}
	if l.fired[stage] {
		return false
	}
	l.fired[stage] = true
	return true
}

// release frees one held latch so a failed advance can retry on the
// next tick.
func (l *advanceLatch) release(sessionID, stage string) {
	if sessionID == l.sessionID {
		delete(l.fired, stage)
	}
}

// reset clears held latches after the observed status changed. The next
// stage's advance may then fire once.
func (l *advanceLatch) reset() {
	l.fired = make(map[string]bool)
}
