// Package alert contains the pure business logic for the escalating
// alert (wanted) level. No I/O, only pure functions over ActorState.
package alert

import "github.com/example/vigil/internal/models"

// MaxLevel caps the escalation ladder.
const MaxLevel = 5

// Raise escalates the actor's alert by the given number of levels and
// extends the expiry by penalty milliseconds. An already-active alert is
// extended from its current expiry rather than restarted from now, so
// repeated violations stack.
func Raise(a *models.ActorState, levels int, penalty int64, reason string, now int64) {
	if levels <= 0 {
		return
	}

	base := now
	if a.AlertActive(now) {
		base = a.AlertExpireTime
	} else {
		// Stale expired alert still on the row: start fresh.
		a.AlertLevel = 0
	}

	a.AlertLevel += levels
	if a.AlertLevel > MaxLevel {
		a.AlertLevel = MaxLevel
	}
	a.AlertExpireTime = base + penalty
	a.AlertReason = reason
	a.TotalViolations++
}

// Apprehend clears the alert explicitly, as on arrest, and credits the
// arresting side's lifetime count on the target's record.
func Apprehend(a *models.ActorState) {
	a.ClearAlert()
}

// Expired reports whether a stored alert has lapsed and the row should be
// reconciled before its level is trusted.
func Expired(a *models.ActorState, now int64) bool {
	return a.AlertLevel > 0 && now >= a.AlertExpireTime
}
