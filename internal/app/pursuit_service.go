package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/vigil/internal/clock"
	"github.com/example/vigil/internal/core/pursuit"
	"github.com/example/vigil/internal/models"
	"github.com/example/vigil/internal/store"
)

// PursuitService owns the pursuit lifecycle: opening a chase, the
// terminal transition and the implicit-expiry sweep. The pursuit record
// and the target's pursuit fields are kept consistent here; the store
// only guarantees per-aggregate durability.
type PursuitService struct {
	store    *store.StateStore
	clk      clock.Clock
	duration time.Duration
}

// NewPursuitService creates a new PursuitService. duration is the fixed
// budget given to new pursuits.
func NewPursuitService(st *store.StateStore, clk clock.Clock, duration time.Duration) *PursuitService {
	return &PursuitService{store: st, clk: clk, duration: duration}
}

func (s *PursuitService) now() int64 {
	return clock.Millis(s.clk.Now())
}

// Start opens a pursuit of target by enforcer and flags the target's
// actor state. The pursuit id is generated.
func (s *PursuitService) Start(ctx context.Context, enforcerID, targetID string) (*models.PursuitRecord, error) {
	enforcer, err := s.store.LoadActor(enforcerID).Await(ctx)
	if err != nil {
		return nil, err
	}
	target, err := s.store.LoadActor(targetID).Await(ctx)
	if err != nil {
		return nil, err
	}
	if enforcer == nil || target == nil {
		return nil, fmt.Errorf("unknown actor in pursuit %s -> %s", enforcerID, targetID)
	}

	if err := pursuit.CanStart(enforcer, target).Error(); err != nil {
		return nil, err
	}

	now := s.now()
	rec := models.NewPursuitRecord(uuid.New().String(), enforcerID, targetID, s.duration.Milliseconds(), now)
	target.SetPursuer(enforcerID, now)

	if _, err := s.store.SavePursuit(rec).Await(ctx); err != nil {
		return nil, err
	}
	if _, err := s.store.SaveActor(target).Await(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

// End performs the terminal transition for a pursuit and clears the
// target's pursuit fields. Ending an already-ended pursuit is rejected
// by the guard; the stored reason and end time never change again.
func (s *PursuitService) End(ctx context.Context, pursuitID, reason string) (*models.PursuitRecord, error) {
	rec, err := s.store.LoadPursuit(pursuitID).Await(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("unknown pursuit: %s", pursuitID)
	}

	if err := pursuit.CanEnd(rec, reason).Error(); err != nil {
		return nil, err
	}

	rec.End(reason, s.now())
	if _, err := s.store.SavePursuit(rec).Await(ctx); err != nil {
		return nil, err
	}

	target, err := s.store.LoadActor(rec.TargetID).Await(ctx)
	if err != nil {
		return rec, err
	}
	if target != nil && target.BeingPursued && target.PursuerID == rec.EnforcerID {
		target.ClearPursuer()
		if _, err := s.store.SaveActor(target).Await(ctx); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// ExpireOverdue ends every active pursuit whose duration budget has
// elapsed, returning the number ended. The rows stayed active until this
// sweep acted on the expiry decision.
func (s *PursuitService) ExpireOverdue(ctx context.Context) (int, error) {
	active, err := s.store.LoadActivePursuits().Await(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	ended := 0
	for _, rec := range active {
		if !pursuit.ShouldExpire(rec, now) {
			continue
		}
		if _, err := s.End(ctx, rec.PursuitID, pursuit.ReasonExpired); err != nil {
			return ended, err
		}
		ended++
	}
	return ended, nil
}

// IsBeingPursued reports whether the actor has an active pursuit against
// it.
func (s *PursuitService) IsBeingPursued(ctx context.Context, actorID string) (bool, error) {
	rec, err := s.store.LoadPursuitByTarget(actorID).Await(ctx)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// ByEnforcer returns the enforcer's active pursuit, nil if none.
func (s *PursuitService) ByEnforcer(ctx context.Context, enforcerID string) (*models.PursuitRecord, error) {
	return s.store.LoadPursuitByEnforcer(enforcerID).Await(ctx)
}

// ByTarget returns the active pursuit of a target, nil if none.
func (s *PursuitService) ByTarget(ctx context.Context, targetID string) (*models.PursuitRecord, error) {
	return s.store.LoadPursuitByTarget(targetID).Await(ctx)
}

// Active returns all active pursuits.
func (s *PursuitService) Active(ctx context.Context) ([]*models.PursuitRecord, error) {
	return s.store.LoadActivePursuits().Await(ctx)
}
