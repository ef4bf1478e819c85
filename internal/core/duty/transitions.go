// Package duty contains the pure business logic for the duty session
// state machine. No I/O, only pure functions.
package duty

import "fmt"

// State is a position in the duty state machine.
type State string

const (
	// OffDuty is the resting state.
	OffDuty State = "off_duty"
	// Transitioning is the short-lived guard state between duty states.
	// Movement is disallowed while transitioning.
	Transitioning State = "transitioning"
	// OnDuty is the active enforcement state.
	OnDuty State = "on_duty"
)

// Transition captures an in-flight duty change: where the actor came from
// and where it is headed. Interrupting reverts to Prior.
type Transition struct {
	Prior  State
	Target State
}

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

// CanBegin evaluates whether an actor in the given state may start the
// transition into duty.
func CanBegin(cur State) GuardResult {
	switch cur {
	case OffDuty:
		return GuardResult{Allowed: true}
	case Transitioning:
		return GuardResult{Allowed: false, Reason: "duty change already in progress"}
	default:
		return GuardResult{Allowed: false, Reason: "already on duty"}
	}
}

// CanEnd evaluates whether an actor in the given state may start the
// transition out of duty.
func CanEnd(cur State) GuardResult {
	switch cur {
	case OnDuty:
		return GuardResult{Allowed: true}
	case Transitioning:
		return GuardResult{Allowed: false, Reason: "duty change already in progress"}
	default:
		return GuardResult{Allowed: false, Reason: "not on duty"}
	}
}

// Start returns the transition record for a state change from cur.
// Callers must have passed the matching guard first.
func Start(cur, target State) Transition {
	return Transition{Prior: cur, Target: target}
}

// Complete resolves a transition to its target state.
func Complete(t Transition) State {
	return t.Target
}

// Revert resolves an interrupted transition back to its prior state.
func Revert(t Transition) State {
	return t.Prior
}

// MovementAllowed reports whether an actor in the given state may move.
func MovementAllowed(cur State) bool {
	return cur != Transitioning
}

// FromOnDuty maps the persisted OnDuty flag back to a settled state.
// Transitioning is never persisted; a restart lands on a settled state.
func FromOnDuty(onDuty bool) State {
	if onDuty {
		return OnDuty
	}
	return OffDuty
}
