package models

// PursuitRecord is one timed chase between an enforcer and a target.
// Identity, participants, start time and the duration budget are fixed at
// creation; only the terminal transition mutates the record.
type PursuitRecord struct {
	PursuitID  string
	EnforcerID string
	TargetID   string
	StartTime  int64
	Duration   int64 // fixed budget in milliseconds
	CreatedAt  int64

	Active    bool
	EndReason string // set exactly once, when the pursuit ends
	EndTime   int64  // 0 until ended
}

// NewPursuitRecord starts a new active pursuit.
func NewPursuitRecord(pursuitID, enforcerID, targetID string, duration, now int64) *PursuitRecord {
	return &PursuitRecord{
		PursuitID:  pursuitID,
		EnforcerID: enforcerID,
		TargetID:   targetID,
		StartTime:  now,
		Duration:   duration,
		CreatedAt:  now,
		Active:     true,
	}
}

// End performs the terminal transition. It is idempotent: the first call
// records the reason and end time and returns true; any later call leaves
// both untouched and returns false.
func (p *PursuitRecord) End(reason string, now int64) bool {
	if !p.Active {
		return false
	}
	p.Active = false
	p.EndReason = reason
	if now <= p.StartTime {
		now = p.StartTime + 1
	}
	p.EndTime = now
	return true
}

// Expired reports whether the duration budget has elapsed. An expired
// pursuit stays Active until the owning manager explicitly ends it; the
// expiry decision belongs to the caller, not the store.
func (p *PursuitRecord) Expired(now int64) bool {
	return now-p.StartTime >= p.Duration
}

// Remaining returns the unspent portion of the duration budget, zero once
// the budget is exhausted.
func (p *PursuitRecord) Remaining(now int64) int64 {
	left := p.Duration - (now - p.StartTime)
	if left < 0 {
		return 0
	}
	return left
}
