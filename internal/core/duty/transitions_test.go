package duty

import "testing"

func TestGuards(t *testing.T) {
	tests := []struct {
		name    string
		guard   func(State) GuardResult
		cur     State
		allowed bool
	}{
		{"begin from off duty", CanBegin, OffDuty, true},
		{"begin while on duty", CanBegin, OnDuty, false},
		{"begin mid-transition", CanBegin, Transitioning, false},
		{"end from on duty", CanEnd, OnDuty, true},
		{"end while off duty", CanEnd, OffDuty, false},
		{"end mid-transition", CanEnd, Transitioning, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.guard(tt.cur)
			if got.Allowed != tt.allowed {
				t.Errorf("Allowed = %v, want %v (%s)", got.Allowed, tt.allowed, got.Reason)
			}
			if tt.allowed && got.Error() != nil {
				t.Errorf("Error() = %v for allowed result", got.Error())
			}
			if !tt.allowed && got.Error() == nil {
				t.Error("Error() = nil for denied result")
			}
		})
	}
}

func TestTransitionResolution(t *testing.T) {
	tr := Start(OffDuty, OnDuty)

	if got := Complete(tr); got != OnDuty {
		t.Errorf("Complete = %v, want OnDuty", got)
	}
	if got := Revert(tr); got != OffDuty {
		t.Errorf("Revert = %v, want OffDuty", got)
	}
}

func TestMovementAllowed(t *testing.T) {
	if MovementAllowed(Transitioning) {
		t.Error("movement allowed mid-transition")
	}
	if !MovementAllowed(OnDuty) || !MovementAllowed(OffDuty) {
		t.Error("movement blocked in a settled state")
	}
}

func TestFromOnDuty(t *testing.T) {
	if FromOnDuty(true) != OnDuty {
		t.Error("true should map to OnDuty")
	}
	if FromOnDuty(false) != OffDuty {
		t.Error("false should map to OffDuty")
	}
}
