// Package pursuit contains the pure business logic for pursuit
// lifecycle decisions. No I/O, only pure functions.
package pursuit

import (
	"fmt"

	"github.com/example/vigil/internal/models"
)

// End reasons recorded on the terminal transition.
const (
	ReasonCaught    = "caught"
	ReasonEscaped   = "escaped"
	ReasonExpired   = "expired"
	ReasonAbandoned = "abandoned"
	ReasonLogout    = "logout"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// ValidEndReason reports whether reason is one of the recorded terminal
// reasons.
func ValidEndReason(reason string) bool {
	switch reason {
	case ReasonCaught, ReasonEscaped, ReasonExpired, ReasonAbandoned, ReasonLogout:
		return true
	}
	return false
}

// CanStart evaluates whether an enforcer may open a pursuit of a target.
func CanStart(enforcer, target *models.ActorState) GuardResult {
	if enforcer.ActorID == target.ActorID {
		return GuardResult{Allowed: false, Reason: "an actor cannot pursue itself"}
	}
	if !enforcer.OnDuty {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("%s is not on duty", enforcer.DisplayName)}
	}
	if target.BeingPursued {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s is already being pursued by %s", target.DisplayName, target.PursuerID),
		}
	}
	return GuardResult{Allowed: true}
}

// CanEnd evaluates whether a pursuit may take its terminal transition.
func CanEnd(rec *models.PursuitRecord, reason string) GuardResult {
	if !rec.Active {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("pursuit %s already ended (%s)", rec.PursuitID, rec.EndReason)}
	}
	if !ValidEndReason(reason) {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("unknown end reason %q", reason)}
	}
	return GuardResult{Allowed: true}
}

// ShouldExpire is the expiry decision for the maintenance-side sweep: an
// active pursuit whose duration budget has elapsed should be ended with
// ReasonExpired. The row stays active until the owner acts on this.
func ShouldExpire(rec *models.PursuitRecord, now int64) bool {
	return rec.Active && rec.Expired(now)
}
