package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/vigil/internal/app"
	"github.com/example/vigil/internal/clock"
	"github.com/example/vigil/internal/config"
	"github.com/example/vigil/internal/models"
	"github.com/example/vigil/internal/ports/secondary"
	"github.com/example/vigil/internal/store"
)

func newTestStore(t *testing.T, clk clock.Clock) *store.StateStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vigil.db")
	s, err := store.Open(store.Options{Path: path, Clock: clk})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newActorService(t *testing.T, clk clock.Clock, policy config.DutyKillPolicy) (*app.ActorService, *store.StateStore) {
	t.Helper()
	st := newTestStore(t, clk)
	return app.NewActorService(st, clk, policy), st
}

func TestActorService_Ensure(t *testing.T) {
	clk := clock.NewFake(time.UnixMilli(1_000_000))
	svc, _ := newActorService(t, clk, config.KillPolicyLogOnly)
	ctx := context.Background()

	t.Run("creates the row on first contact", func(t *testing.T) {
		a, err := svc.Ensure(ctx, "A1", "Kane")
		if err != nil {
			t.Fatalf("Ensure failed: %v", err)
		}
		if a.ActorID != "A1" || a.DisplayName != "Kane" {
			t.Errorf("got %+v", a)
		}
	})

	t.Run("writes a changed display name through", func(t *testing.T) {
		if _, err := svc.Ensure(ctx, "A1", "Marshal Kane"); err != nil {
			t.Fatalf("Ensure failed: %v", err)
		}
		st, err := svc.Status(ctx, "A1")
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if st.DisplayName != "Marshal Kane" {
			t.Errorf("DisplayName = %q, want Marshal Kane", st.DisplayName)
		}
	})
}

func TestActorService_DutyCycle(t *testing.T) {
	clk := clock.NewFake(time.UnixMilli(1_000_000))
	svc, st := newActorService(t, clk, config.KillPolicyLogOnly)
	ctx := context.Background()

	svc.Ensure(ctx, "A1", "Kane")

	t.Run("begin, transition, on duty", func(t *testing.T) {
		if err := svc.BeginDuty(ctx, "A1"); err != nil {
			t.Fatalf("BeginDuty failed: %v", err)
		}
		if svc.MovementAllowed("A1") {
			t.Error("movement allowed mid-transition")
		}
		if err := svc.BeginDuty(ctx, "A1"); err == nil {
			t.Error("second BeginDuty allowed mid-transition")
		}

		if err := svc.CompleteTransition(ctx, "A1"); err != nil {
			t.Fatalf("CompleteTransition failed: %v", err)
		}
		if !svc.MovementAllowed("A1") {
			t.Error("movement still blocked after transition settled")
		}

		a, _ := st.LoadActor("A1").Await(ctx)
		if !a.OnDuty || a.DutyStartTime != clock.Millis(clk.Now()) {
			t.Errorf("session not started: %+v", a)
		}
	})

	t.Run("end accrues session time and logs the event", func(t *testing.T) {
		clk.Advance(30 * time.Minute)

		if err := svc.EndDuty(ctx, "A1"); err != nil {
			t.Fatalf("EndDuty failed: %v", err)
		}
		if err := svc.CompleteTransition(ctx, "A1"); err != nil {
			t.Fatalf("CompleteTransition failed: %v", err)
		}

		a, _ := st.LoadActor("A1").Await(ctx)
		if a.OnDuty {
			t.Error("still on duty")
		}
		want := (30 * time.Minute).Milliseconds()
		if a.TotalDutyTime != want {
			t.Errorf("TotalDutyTime = %d, want %d", a.TotalDutyTime, want)
		}

		events, _ := st.LoadStats("A1", 0).Await(ctx)
		if len(events) != 1 || events[0].StatType != secondary.StatDutySession {
			t.Errorf("events = %+v, want one duty_session", events)
		}
		if events[0].StatValue != want {
			t.Errorf("session length = %d, want %d", events[0].StatValue, want)
		}
	})

	t.Run("guards settle states", func(t *testing.T) {
		if err := svc.EndDuty(ctx, "A1"); err == nil {
			t.Error("EndDuty allowed while off duty")
		}
		if err := svc.CompleteTransition(ctx, "A1"); err == nil {
			t.Error("CompleteTransition allowed with no transition in flight")
		}
	})

	t.Run("abort reverts to the prior state", func(t *testing.T) {
		svc.BeginDuty(ctx, "A1")
		if got := svc.AbortTransition("A1"); got != "off_duty" {
			t.Errorf("reverted to %q, want off_duty", got)
		}
		if !svc.MovementAllowed("A1") {
			t.Error("movement still blocked after abort")
		}
	})
}

func TestActorService_Alerts(t *testing.T) {
	clk := clock.NewFake(time.UnixMilli(1_000_000))
	svc, st := newActorService(t, clk, config.KillPolicyLogOnly)
	ctx := context.Background()

	svc.Ensure(ctx, "A1", "Kane")

	t.Run("raise and view", func(t *testing.T) {
		if _, err := svc.RaiseAlert(ctx, "A1", 2, time.Minute, "theft"); err != nil {
			t.Fatalf("RaiseAlert failed: %v", err)
		}

		status, err := svc.Status(ctx, "A1")
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if !status.Wanted || status.AlertLevel != 2 || status.AlertReason != "theft" {
			t.Errorf("status = %+v", status)
		}
		if status.AlertEndsIn != time.Minute {
			t.Errorf("AlertEndsIn = %s, want 1m", status.AlertEndsIn)
		}
	})

	t.Run("view clears lazily, row stays", func(t *testing.T) {
		clk.Advance(2 * time.Minute)

		status, _ := svc.Status(ctx, "A1")
		if status.Wanted || status.AlertLevel != 0 {
			t.Errorf("status = %+v, want clear", status)
		}
		a, _ := st.LoadActor("A1").Await(ctx)
		if a.AlertLevel != 2 {
			t.Errorf("stored level = %d, want 2 (Status must not rewrite)", a.AlertLevel)
		}
	})

	t.Run("reconcile persists the cleared state", func(t *testing.T) {
		if _, err := svc.Reconcile(ctx, "A1"); err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		a, _ := st.LoadActor("A1").Await(ctx)
		if a.AlertLevel != 0 || a.AlertReason != "" {
			t.Errorf("row not reconciled: %+v", a)
		}
	})
}

func TestActorService_RecordArrest(t *testing.T) {
	clk := clock.NewFake(time.UnixMilli(1_000_000))
	svc, st := newActorService(t, clk, config.KillPolicyLogOnly)
	ctx := context.Background()

	svc.Ensure(ctx, "E1", "Enforcer")
	svc.Ensure(ctx, "T1", "Runner")
	svc.RaiseAlert(ctx, "T1", 3, time.Hour, "theft")

	if err := svc.RecordArrest(ctx, "E1", "T1"); err != nil {
		t.Fatalf("RecordArrest failed: %v", err)
	}

	enforcer, _ := st.LoadActor("E1").Await(ctx)
	if enforcer.Arrests != 1 || enforcer.TotalArrests != 1 {
		t.Errorf("enforcer counters = (%d, %d), want (1, 1)", enforcer.Arrests, enforcer.TotalArrests)
	}

	target, _ := st.LoadActor("T1").Await(ctx)
	if target.AlertLevel != 0 {
		t.Errorf("target alert = %d, want 0 after apprehension", target.AlertLevel)
	}

	events, _ := st.LoadStats("E1", 0).Await(ctx)
	if len(events) != 1 || events[0].StatType != secondary.StatArrest {
		t.Errorf("events = %+v, want one arrest", events)
	}
}

func TestActorService_RecordKill(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, policy config.DutyKillPolicy, bothOnDuty bool) (*app.ActorService, *store.StateStore) {
		clk := clock.NewFake(time.UnixMilli(1_000_000))
		svc, st := newActorService(t, clk, policy)

		killer := models.NewActorState("K1", "Killer")
		victim := models.NewActorState("V1", "Victim")
		if bothOnDuty {
			killer.OnDuty = true
			victim.OnDuty = true
		}
		st.SaveActor(killer).Await(ctx)
		st.SaveActor(victim).Await(ctx)
		return svc, st
	}

	t.Run("off-duty killer gets a two-level alert", func(t *testing.T) {
		svc, st := setup(t, config.KillPolicyLogOnly, false)
		if err := svc.RecordKill(ctx, "K1", "V1", time.Hour); err != nil {
			t.Fatalf("RecordKill failed: %v", err)
		}

		killer, _ := st.LoadActor("K1").Await(ctx)
		if killer.AlertLevel != 2 || killer.Kills != 1 {
			t.Errorf("killer = %+v, want alert 2 and 1 kill", killer)
		}
	})

	t.Run("log_only records the kill without an alert", func(t *testing.T) {
		svc, st := setup(t, config.KillPolicyLogOnly, true)
		if err := svc.RecordKill(ctx, "K1", "V1", time.Hour); err != nil {
			t.Fatalf("RecordKill failed: %v", err)
		}

		killer, _ := st.LoadActor("K1").Await(ctx)
		if killer.AlertLevel != 0 || killer.Kills != 1 {
			t.Errorf("killer = %+v, want no alert and 1 kill", killer)
		}
	})

	t.Run("penalize raises one level", func(t *testing.T) {
		svc, st := setup(t, config.KillPolicyPenalize, true)
		if err := svc.RecordKill(ctx, "K1", "V1", time.Hour); err != nil {
			t.Fatalf("RecordKill failed: %v", err)
		}

		killer, _ := st.LoadActor("K1").Await(ctx)
		if killer.AlertLevel != 1 {
			t.Errorf("alert = %d, want 1", killer.AlertLevel)
		}
	})

	t.Run("ignore records nothing", func(t *testing.T) {
		svc, st := setup(t, config.KillPolicyIgnore, true)
		if err := svc.RecordKill(ctx, "K1", "V1", time.Hour); err != nil {
			t.Fatalf("RecordKill failed: %v", err)
		}

		killer, _ := st.LoadActor("K1").Await(ctx)
		if killer.Kills != 0 {
			t.Errorf("Kills = %d, want 0 (ignored kill must not persist)", killer.Kills)
		}
		events, _ := st.LoadStats("K1", 0).Await(ctx)
		if len(events) != 0 {
			t.Errorf("events = %+v, want none", events)
		}
	})
}

func TestActorService_RecordSearchAndDetection(t *testing.T) {
	clk := clock.NewFake(time.UnixMilli(1_000_000))
	svc, st := newActorService(t, clk, config.KillPolicyLogOnly)
	ctx := context.Background()

	svc.Ensure(ctx, "A1", "Kane")

	if err := svc.RecordSearch(ctx, "A1", false); err != nil {
		t.Fatalf("RecordSearch failed: %v", err)
	}
	if err := svc.RecordSearch(ctx, "A1", true); err != nil {
		t.Fatalf("RecordSearch failed: %v", err)
	}
	if err := svc.RecordDetection(ctx, "A1"); err != nil {
		t.Fatalf("RecordDetection failed: %v", err)
	}

	a, _ := st.LoadActor("A1").Await(ctx)
	if a.Searches != 2 || a.SuccessfulSearches != 1 || a.Detections != 1 {
		t.Errorf("counters = (%d, %d, %d), want (2, 1, 1)", a.Searches, a.SuccessfulSearches, a.Detections)
	}
}

func TestActorService_Purge(t *testing.T) {
	clk := clock.NewFake(time.UnixMilli(1_000_000))
	svc, st := newActorService(t, clk, config.KillPolicyLogOnly)
	ctx := context.Background()

	svc.Ensure(ctx, "A1", "Kane")
	st.SaveCacheEntry("A1", []byte("blob")).Await(ctx)

	if err := svc.Purge(ctx, "A1"); err != nil {
		t.Fatalf("Purge failed: %v", err)
	}

	a, _ := st.LoadActor("A1").Await(ctx)
	if a != nil {
		t.Error("actor survived purge")
	}
	entry, _ := st.LoadCacheEntry("A1").Await(ctx)
	if entry != nil {
		t.Error("cache entry survived purge")
	}
}
