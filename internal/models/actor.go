// Package models contains the persisted aggregates and their in-memory
// invariants. All timestamps are unix milliseconds.
package models

// ActorState is the full enforcement state of one tracked actor.
// There is exactly one per actor, keyed by the immutable ActorID.
type ActorState struct {
	// Identity
	ActorID     string
	DisplayName string

	// Duty session
	OnDuty                 bool
	DutyStartTime          int64
	OffDutyCredit          int64
	GraceDebt              int64
	Rank                   string // empty means no rank assigned
	HasEarnedBaseCredit    bool
	HasBeenNotifiedExpired bool

	// Session counters, reset together at the start of each duty session
	Searches           int
	SuccessfulSearches int
	Arrests            int
	Kills              int
	Detections         int

	// Alert state
	AlertLevel      int
	AlertExpireTime int64
	AlertReason     string

	// Pursuit state
	BeingPursued     bool
	PursuerID        string
	PursuitStartTime int64

	// Lifetime statistics
	TotalArrests    int64
	TotalViolations int64
	TotalDutyTime   int64

	LastUpdated int64
}

// NewActorState returns the state recorded on first contact with an actor.
func NewActorState(actorID, displayName string) *ActorState {
	return &ActorState{
		ActorID:     actorID,
		DisplayName: displayName,
	}
}

// AlertActive reports whether the actor has a live, non-expired alert.
// An alert level with an expiry in the past is logically clear even if
// the row has not been rewritten yet.
func (a *ActorState) AlertActive(now int64) bool {
	return a.AlertLevel > 0 && now < a.AlertExpireTime
}

// EffectiveAlertLevel returns the alert level after lazy expiry: the
// stored level while the alert is active, zero once it has expired.
func (a *ActorState) EffectiveAlertLevel(now int64) int {
	if a.AlertActive(now) {
		return a.AlertLevel
	}
	return 0
}

// ClearAlert drops the alert state entirely.
func (a *ActorState) ClearAlert() {
	a.AlertLevel = 0
	a.AlertExpireTime = 0
	a.AlertReason = ""
}

// ReconcileAlert clears the alert fields if the alert has expired.
// Returns true if anything changed and the state should be persisted.
func (a *ActorState) ReconcileAlert(now int64) bool {
	if a.AlertLevel > 0 && now >= a.AlertExpireTime {
		a.ClearAlert()
		return true
	}
	return false
}

// SetPursuer marks the actor as pursued. BeingPursued and PursuerID move
// together; one is never set without the other.
func (a *ActorState) SetPursuer(pursuerID string, now int64) {
	a.BeingPursued = true
	a.PursuerID = pursuerID
	a.PursuitStartTime = now
}

// ClearPursuer clears all pursuit fields.
func (a *ActorState) ClearPursuer() {
	a.BeingPursued = false
	a.PursuerID = ""
	a.PursuitStartTime = 0
}

// ResetSessionCounters zeroes every per-session counter. Counters reset
// together, never individually.
func (a *ActorState) ResetSessionCounters() {
	a.Searches = 0
	a.SuccessfulSearches = 0
	a.Arrests = 0
	a.Kills = 0
	a.Detections = 0
}

// BeginDutySession stamps the session start and resets the counters.
func (a *ActorState) BeginDutySession(now int64) {
	a.OnDuty = true
	a.DutyStartTime = now
	a.HasBeenNotifiedExpired = false
	a.ResetSessionCounters()
}

// EndDutySession accumulates the elapsed session time into TotalDutyTime
// and leaves duty. Returns the elapsed session length in milliseconds.
func (a *ActorState) EndDutySession(now int64) int64 {
	elapsed := int64(0)
	if a.OnDuty && a.DutyStartTime > 0 && now > a.DutyStartTime {
		elapsed = now - a.DutyStartTime
	}
	a.TotalDutyTime += elapsed
	a.OnDuty = false
	a.DutyStartTime = 0
	return elapsed
}
