// Package app contains the application services that own the lifecycle
// rules layered on top of the store. Services check aggregates out of the
// store, mutate them through the core rules and hand them back for
// persistence; no two managers share a mutable aggregate.
package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/vigil/internal/clock"
	"github.com/example/vigil/internal/config"
	"github.com/example/vigil/internal/core/alert"
	"github.com/example/vigil/internal/core/duty"
	"github.com/example/vigil/internal/models"
	"github.com/example/vigil/internal/ports/secondary"
	"github.com/example/vigil/internal/store"
)

// ActorStatus is the caller-visible view of an actor after lazy alert
// reconciliation. Wanted is false once the alert expiry has passed, even
// if the stored row still holds a positive level.
type ActorStatus struct {
	ActorID     string
	DisplayName string
	OnDuty      bool
	Wanted      bool
	AlertLevel  int
	AlertReason string
	AlertEndsIn time.Duration
	Pursued     bool
	PursuerID   string
}

// ActorService owns duty sessions, alert levels and session accounting.
type ActorService struct {
	store      *store.StateStore
	clk        clock.Clock
	killPolicy config.DutyKillPolicy

	mu          sync.Mutex
	transitions map[string]duty.Transition
}

// NewActorService creates a new ActorService.
func NewActorService(st *store.StateStore, clk clock.Clock, killPolicy config.DutyKillPolicy) *ActorService {
	return &ActorService{
		store:       st,
		clk:         clk,
		killPolicy:  killPolicy,
		transitions: make(map[string]duty.Transition),
	}
}

func (s *ActorService) now() int64 {
	return clock.Millis(s.clk.Now())
}

// Ensure loads the actor, creating the row on first contact. A changed
// display name is written through so name lookup stays current.
func (s *ActorService) Ensure(ctx context.Context, actorID, displayName string) (*models.ActorState, error) {
	a, err := s.store.LoadActor(actorID).Await(ctx)
	if err != nil {
		return nil, err
	}
	if a == nil {
		a = models.NewActorState(actorID, displayName)
		if _, err := s.store.SaveActor(a).Await(ctx); err != nil {
			return nil, err
		}
		return a, nil
	}
	if displayName != "" && a.DisplayName != displayName {
		a.DisplayName = displayName
		if _, err := s.store.SaveActor(a).Await(ctx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// DutyState returns the actor's current duty state, including any
// in-flight transition.
func (s *ActorService) DutyState(a *models.ActorState) duty.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transitions[a.ActorID]; ok {
		return duty.Transitioning
	}
	return duty.FromOnDuty(a.OnDuty)
}

// BeginDuty starts the transition into a duty session.
func (s *ActorService) BeginDuty(ctx context.Context, actorID string) error {
	return s.startTransition(ctx, actorID, duty.OnDuty, duty.CanBegin)
}

// EndDuty starts the transition out of the duty session.
func (s *ActorService) EndDuty(ctx context.Context, actorID string) error {
	return s.startTransition(ctx, actorID, duty.OffDuty, duty.CanEnd)
}

func (s *ActorService) startTransition(ctx context.Context, actorID string, target duty.State, guard func(duty.State) duty.GuardResult) error {
	a, err := s.store.LoadActor(actorID).Await(ctx)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("unknown actor: %s", actorID)
	}

	cur := s.DutyState(a)
	if err := guard(cur).Error(); err != nil {
		return err
	}

	s.mu.Lock()
	s.transitions[actorID] = duty.Start(cur, target)
	s.mu.Unlock()
	return nil
}

// CompleteTransition settles an in-flight duty transition: entering duty
// stamps the session start and resets the counters; leaving accrues the
// elapsed time into the lifetime total and logs the session length.
func (s *ActorService) CompleteTransition(ctx context.Context, actorID string) error {
	s.mu.Lock()
	t, ok := s.transitions[actorID]
	delete(s.transitions, actorID)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no duty change in progress for %s", actorID)
	}

	a, err := s.store.LoadActor(actorID).Await(ctx)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("unknown actor: %s", actorID)
	}

	now := s.now()
	switch duty.Complete(t) {
	case duty.OnDuty:
		a.BeginDutySession(now)
	case duty.OffDuty:
		elapsed := a.EndDutySession(now)
		// The session length event is advisory; a failed append does
		// not lose the session accounting on the actor row.
		if _, err := s.store.RecordStat(actorID, secondary.StatDutySession, elapsed).Await(ctx); err != nil {
			log.Printf("failed to record duty session for %s: %v", actorID, err)
		}
	}

	_, err = s.store.SaveActor(a).Await(ctx)
	return err
}

// AbortTransition reverts an interrupted transition to its prior state.
// The aggregate was not yet mutated, so nothing is persisted.
func (s *ActorService) AbortTransition(actorID string) duty.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transitions[actorID]
	if !ok {
		return ""
	}
	delete(s.transitions, actorID)
	return duty.Revert(t)
}

// MovementAllowed reports whether the actor may move right now.
func (s *ActorService) MovementAllowed(actorID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, transitioning := s.transitions[actorID]
	return !transitioning
}

// RaiseAlert escalates the actor's alert level, extending an active
// alert's expiry rather than restarting it.
func (s *ActorService) RaiseAlert(ctx context.Context, actorID string, levels int, penalty time.Duration, reason string) (*models.ActorState, error) {
	a, err := s.store.LoadActor(actorID).Await(ctx)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("unknown actor: %s", actorID)
	}

	alert.Raise(a, levels, penalty.Milliseconds(), reason, s.now())
	if _, err := s.store.SaveActor(a).Await(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// ClearAlert clears the alert explicitly, as on apprehension.
func (s *ActorService) ClearAlert(ctx context.Context, actorID string) error {
	a, err := s.store.LoadActor(actorID).Await(ctx)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("unknown actor: %s", actorID)
	}

	alert.Apprehend(a)
	_, err = s.store.SaveActor(a).Await(ctx)
	return err
}

// Reconcile writes back the cleared alert state of an actor whose alert
// has lapsed. The store never auto-clears rows; this is the explicit
// reconciliation callers run before relying on stored levels.
func (s *ActorService) Reconcile(ctx context.Context, actorID string) (*models.ActorState, error) {
	a, err := s.store.LoadActor(actorID).Await(ctx)
	if err != nil || a == nil {
		return a, err
	}
	if a.ReconcileAlert(s.now()) {
		if _, err := s.store.SaveActor(a).Await(ctx); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Status returns the caller-visible view of an actor with lazy alert
// expiry applied. The stored row is left untouched.
func (s *ActorService) Status(ctx context.Context, actorID string) (*ActorStatus, error) {
	a, err := s.store.LoadActor(actorID).Await(ctx)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, nil
	}

	now := s.now()
	st := &ActorStatus{
		ActorID:     a.ActorID,
		DisplayName: a.DisplayName,
		OnDuty:      a.OnDuty,
		Wanted:      a.AlertActive(now),
		AlertLevel:  a.EffectiveAlertLevel(now),
		Pursued:     a.BeingPursued,
		PursuerID:   a.PursuerID,
	}
	if st.Wanted {
		st.AlertReason = a.AlertReason
		st.AlertEndsIn = time.Duration(a.AlertExpireTime-now) * time.Millisecond
	}
	return st, nil
}

// RecordSearch increments the session search counters and appends the
// performance events.
func (s *ActorService) RecordSearch(ctx context.Context, actorID string, successful bool) error {
	a, err := s.store.LoadActor(actorID).Await(ctx)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("unknown actor: %s", actorID)
	}

	a.Searches++
	statType := secondary.StatSearch
	if successful {
		a.SuccessfulSearches++
		statType = secondary.StatSuccessfulSearch
	}

	if _, err := s.store.SaveActor(a).Await(ctx); err != nil {
		return err
	}
	_, err = s.store.RecordStat(actorID, statType, 1).Await(ctx)
	return err
}

// RecordDetection increments the session detection counter.
func (s *ActorService) RecordDetection(ctx context.Context, actorID string) error {
	a, err := s.store.LoadActor(actorID).Await(ctx)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("unknown actor: %s", actorID)
	}

	a.Detections++
	if _, err := s.store.SaveActor(a).Await(ctx); err != nil {
		return err
	}
	_, err = s.store.RecordStat(actorID, secondary.StatDetection, 1).Await(ctx)
	return err
}

// RecordArrest credits the enforcer, clears the target's alert and
// persists both aggregates in one atomic batch.
func (s *ActorService) RecordArrest(ctx context.Context, enforcerID, targetID string) error {
	enforcer, err := s.store.LoadActor(enforcerID).Await(ctx)
	if err != nil {
		return err
	}
	target, err := s.store.LoadActor(targetID).Await(ctx)
	if err != nil {
		return err
	}
	if enforcer == nil || target == nil {
		return fmt.Errorf("unknown actor in arrest %s -> %s", enforcerID, targetID)
	}

	enforcer.Arrests++
	enforcer.TotalArrests++
	alert.Apprehend(target)

	if _, err := s.store.SaveBatch([]*models.ActorState{enforcer, target}).Await(ctx); err != nil {
		return err
	}
	_, err = s.store.RecordStat(enforcerID, secondary.StatArrest, 1).Await(ctx)
	return err
}

// RecordKill applies the configured policy for a kill. A kill between
// two on-duty enforcers follows the duty_kill_policy hook; the default
// records the event without an alert effect.
func (s *ActorService) RecordKill(ctx context.Context, killerID, victimID string, penalty time.Duration) error {
	killer, err := s.store.LoadActor(killerID).Await(ctx)
	if err != nil {
		return err
	}
	victim, err := s.store.LoadActor(victimID).Await(ctx)
	if err != nil {
		return err
	}
	if killer == nil || victim == nil {
		return fmt.Errorf("unknown actor in kill %s -> %s", killerID, victimID)
	}

	killer.Kills++

	dutyOnDuty := killer.OnDuty && victim.OnDuty
	switch {
	case dutyOnDuty && s.killPolicy == config.KillPolicyIgnore:
		return nil
	case dutyOnDuty && s.killPolicy == config.KillPolicyLogOnly:
		log.Printf("duty-vs-duty kill: %s killed %s (no alert effect)", killerID, victimID)
	case dutyOnDuty && s.killPolicy == config.KillPolicyPenalize:
		alert.Raise(killer, 1, penalty.Milliseconds(), "duty kill", s.now())
	case !killer.OnDuty:
		alert.Raise(killer, 2, penalty.Milliseconds(), "kill", s.now())
	}

	if _, err := s.store.SaveActor(killer).Await(ctx); err != nil {
		return err
	}
	_, err = s.store.RecordStat(killerID, secondary.StatKill, 1).Await(ctx)
	return err
}

// Purge removes an actor's row and, via cascade, its cache entry. This
// is the only deletion path for actor state.
func (s *ActorService) Purge(ctx context.Context, actorID string) error {
	_, err := s.store.DeleteActor(actorID).Await(ctx)
	return err
}
