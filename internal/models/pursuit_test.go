package models

import "testing"

func TestPursuitRecord_End(t *testing.T) {
	t.Run("first end records reason and time", func(t *testing.T) {
		p := NewPursuitRecord("P1", "E1", "T1", 300000, 1000)

		if !p.End("caught", 2000) {
			t.Fatal("first End returned false")
		}
		if p.Active {
			t.Error("still active after End")
		}
		if p.EndReason != "caught" || p.EndTime != 2000 {
			t.Errorf("terminal fields = (%q, %d), want (caught, 2000)", p.EndReason, p.EndTime)
		}
	})

	t.Run("later ends change nothing", func(t *testing.T) {
		p := NewPursuitRecord("P1", "E1", "T1", 300000, 1000)
		p.End("caught", 2000)

		if p.End("escaped", 9999) {
			t.Error("second End returned true")
		}
		if p.EndReason != "caught" || p.EndTime != 2000 {
			t.Errorf("terminal fields changed: (%q, %d)", p.EndReason, p.EndTime)
		}
	})

	t.Run("end time always lands after start time", func(t *testing.T) {
		p := NewPursuitRecord("P1", "E1", "T1", 300000, 1000)
		p.End("abandoned", 1000)
		if p.EndTime <= p.StartTime {
			t.Errorf("EndTime = %d, want > StartTime %d", p.EndTime, p.StartTime)
		}
	})
}

func TestPursuitRecord_Budget(t *testing.T) {
	p := NewPursuitRecord("P1", "E1", "T1", 1000, 5000)

	if p.Expired(5999) {
		t.Error("expired before the budget elapsed")
	}
	if !p.Expired(6000) {
		t.Error("not expired once the budget elapsed")
	}

	if got := p.Remaining(5400); got != 600 {
		t.Errorf("Remaining = %d, want 600", got)
	}
	if got := p.Remaining(9000); got != 0 {
		t.Errorf("Remaining = %d, want 0 after exhaustion", got)
	}
}
