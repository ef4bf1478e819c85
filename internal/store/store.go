package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/example/vigil/internal/adapters/sqlite"
	"github.com/example/vigil/internal/clock"
	"github.com/example/vigil/internal/db"
	"github.com/example/vigil/internal/models"
	"github.com/example/vigil/internal/ports/secondary"
)

// jobQueueSize bounds the number of operations waiting for a worker.
const jobQueueSize = 256

// Options configures a StateStore.
type Options struct {
	// Path of the SQLite database file.
	Path string
	// Workers is the fixed worker pool size. The pool throttles request
	// fan-out; SQLite serializes writers on the shared connection.
	Workers int
	// PursuitRetention is how long terminated pursuit rows are kept.
	PursuitRetention time.Duration
	// CacheTTL is the auxiliary cache entry lifetime.
	CacheTTL time.Duration
	// Clock is the time source; defaults to the system clock.
	Clock clock.Clock
}

// Stats is a point-in-time snapshot of store contents. The three counts
// are read separately and are not transactionally consistent; the
// snapshot is advisory only.
type Stats struct {
	Actors         int
	ActivePursuits int
	CachedEntries  int
	SizeBytes      int64
}

// MaintenanceReport summarizes one maintenance pass. Step failures are
// recorded and logged, not fatal to the pass, except a lost connection,
// which skips the remaining steps.
type MaintenanceReport struct {
	PursuitsDeleted int
	CacheEvicted    int
	Compacted       bool
	Errors          []error
}

// StateStore is the sole authority for durable reads and writes of actor
// state, pursuit records and the auxiliary cache. All operations run on
// the worker pool and resolve through futures; callers that must observe
// their own writes chain on the write's future before reading.
type StateStore struct {
	path     string
	conn     *sql.DB
	actors   secondary.ActorRepository
	pursuits secondary.PursuitRepository
	cache    secondary.CacheRepository
	stats    secondary.StatRepository
	clk      clock.Clock

	retention time.Duration
	cacheTTL  time.Duration

	jobs chan func()
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// Open initializes the store: ensures the data directory exists, opens
// the single process-lifetime connection, applies pragmas, creates the
// schema and runs migrations, then starts the worker pool. Idempotent in
// effect; call it once at startup. Failures are fatal to the host.
func Open(opts Options) (*StateStore, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.PursuitRetention <= 0 {
		opts.PursuitRetention = 24 * time.Hour
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 7 * 24 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}

	conn, err := db.Open(opts.Path)
	if err != nil {
		return nil, &InitError{Err: err}
	}

	if err := db.InitSchema(conn); err != nil {
		conn.Close()
		// Migration failures keep their own identity; the process must
		// not start against a half-migrated schema either way.
		return nil, err
	}

	s := &StateStore{
		path:      opts.Path,
		conn:      conn,
		actors:    sqlite.NewActorRepository(conn),
		pursuits:  sqlite.NewPursuitRepository(conn),
		cache:     sqlite.NewCacheRepository(conn),
		stats:     sqlite.NewStatRepository(conn),
		clk:       opts.Clock,
		retention: opts.PursuitRetention,
		cacheTTL:  opts.CacheTTL,
		jobs:      make(chan func(), jobQueueSize),
	}

	for i := 0; i < opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	return s, nil
}

func (s *StateStore) worker() {
	defer s.wg.Done()
	for job := range s.jobs {
		job()
	}
}

// submit queues op on the worker pool and returns its future. There is
// no cross-operation ordering guarantee beyond future chaining.
func submit[T any](s *StateStore, op func(ctx context.Context) (T, error)) *Future[T] {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return failedFuture[T](ErrNotInitialized)
	}
	f := newFuture[T]()
	s.jobs <- func() {
		v, err := op(context.Background())
		if err != nil {
			f.reject(err)
			return
		}
		f.resolve(v)
	}
	s.mu.Unlock()
	return f
}

func (s *StateStore) now() int64 {
	return clock.Millis(s.clk.Now())
}

// Now returns the store clock's current time in unix milliseconds.
func (s *StateStore) Now() int64 {
	return s.now()
}

// SaveActor upserts the actor by id, overwriting all mutable fields and
// stamping LastUpdated.
func (s *StateStore) SaveActor(state *models.ActorState) *Future[struct{}] {
	return submit(s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, writeErr("save actor", s.actors.Save(ctx, state, s.now()))
	})
}

// LoadActor resolves to the actor or nil when not found.
func (s *StateStore) LoadActor(actorID string) *Future[*models.ActorState] {
	return submit(s, func(ctx context.Context) (*models.ActorState, error) {
		a, err := s.actors.GetByID(ctx, actorID)
		return a, readErr("load actor", err)
	})
}

// LoadActorByName resolves to the actor matching the display name
// case-insensitively, or nil when not found.
func (s *StateStore) LoadActorByName(name string) *Future[*models.ActorState] {
	return submit(s, func(ctx context.Context) (*models.ActorState, error) {
		a, err := s.actors.GetByName(ctx, name)
		return a, readErr("load actor by name", err)
	})
}

// LoadAllActors resolves to every actor ordered by display name.
func (s *StateStore) LoadAllActors() *Future[[]*models.ActorState] {
	return submit(s, func(ctx context.Context) ([]*models.ActorState, error) {
		all, err := s.actors.List(ctx)
		return all, readErr("load all actors", err)
	})
}

// DeleteActor removes the actor row; its cache entry cascades.
func (s *StateStore) DeleteActor(actorID string) *Future[struct{}] {
	return submit(s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, writeErr("delete actor", s.actors.Delete(ctx, actorID))
	})
}

// SaveBatch upserts all given actors atomically: either all rows reflect
// the new state or none do. Statement order is the input order.
func (s *StateStore) SaveBatch(states []*models.ActorState) *Future[struct{}] {
	return submit(s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, writeErr("save batch", s.actors.SaveBatch(ctx, states, s.now()))
	})
}

// LoadBatch resolves to the actors matching the given ids; missing ids
// are absent from the result. The read is not transactional.
func (s *StateStore) LoadBatch(actorIDs []string) *Future[[]*models.ActorState] {
	return submit(s, func(ctx context.Context) ([]*models.ActorState, error) {
		got, err := s.actors.GetBatch(ctx, actorIDs)
		return got, readErr("load batch", err)
	})
}

// SavePursuit upserts a pursuit record.
func (s *StateStore) SavePursuit(rec *models.PursuitRecord) *Future[struct{}] {
	return submit(s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, writeErr("save pursuit", s.pursuits.Save(ctx, rec))
	})
}

// LoadPursuit resolves to the pursuit or nil when not found.
func (s *StateStore) LoadPursuit(pursuitID string) *Future[*models.PursuitRecord] {
	return submit(s, func(ctx context.Context) (*models.PursuitRecord, error) {
		p, err := s.pursuits.GetByID(ctx, pursuitID)
		return p, readErr("load pursuit", err)
	})
}

// LoadActivePursuits resolves to all pursuits still marked active.
func (s *StateStore) LoadActivePursuits() *Future[[]*models.PursuitRecord] {
	return submit(s, func(ctx context.Context) ([]*models.PursuitRecord, error) {
		all, err := s.pursuits.ListActive(ctx)
		return all, readErr("load active pursuits", err)
	})
}

// LoadPursuitByEnforcer resolves to the enforcer's active pursuit or nil.
func (s *StateStore) LoadPursuitByEnforcer(enforcerID string) *Future[*models.PursuitRecord] {
	return submit(s, func(ctx context.Context) (*models.PursuitRecord, error) {
		p, err := s.pursuits.GetActiveByEnforcer(ctx, enforcerID)
		return p, readErr("load pursuit by enforcer", err)
	})
}

// LoadPursuitByTarget resolves to the target's active pursuit or nil.
func (s *StateStore) LoadPursuitByTarget(targetID string) *Future[*models.PursuitRecord] {
	return submit(s, func(ctx context.Context) (*models.PursuitRecord, error) {
		p, err := s.pursuits.GetActiveByTarget(ctx, targetID)
		return p, readErr("load pursuit by target", err)
	})
}

// DeletePursuit removes a pursuit record.
func (s *StateStore) DeletePursuit(pursuitID string) *Future[struct{}] {
	return submit(s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, writeErr("delete pursuit", s.pursuits.Delete(ctx, pursuitID))
	})
}

// CleanupExpiredPursuits deletes terminated pursuits older than the
// retention window and resolves to the count deleted (0 is not an error).
func (s *StateStore) CleanupExpiredPursuits() *Future[int] {
	return submit(s, func(ctx context.Context) (int, error) {
		return s.cleanupPursuits(ctx)
	})
}

func (s *StateStore) cleanupPursuits(ctx context.Context) (int, error) {
	cutoff := s.now() - s.retention.Milliseconds()
	n, err := s.pursuits.DeleteEndedBefore(ctx, cutoff)
	return n, writeErr("cleanup expired pursuits", err)
}

// SaveCacheEntry upserts the opaque cache payload for an actor. The
// owning actor row must already exist.
func (s *StateStore) SaveCacheEntry(actorID string, payload []byte) *Future[struct{}] {
	return submit(s, func(ctx context.Context) (struct{}, error) {
		entry := &models.CacheEntry{ActorID: actorID, Payload: payload, CachedAt: s.now()}
		return struct{}{}, writeErr("save cache entry", s.cache.Save(ctx, entry))
	})
}

// LoadCacheEntry resolves to the entry or nil when not found.
func (s *StateStore) LoadCacheEntry(actorID string) *Future[*models.CacheEntry] {
	return submit(s, func(ctx context.Context) (*models.CacheEntry, error) {
		e, err := s.cache.Get(ctx, actorID)
		return e, readErr("load cache entry", err)
	})
}

// DeleteCacheEntry removes an actor's cache entry.
func (s *StateStore) DeleteCacheEntry(actorID string) *Future[struct{}] {
	return submit(s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, writeErr("delete cache entry", s.cache.Delete(ctx, actorID))
	})
}

// RecordStat appends one row to the performance event log.
func (s *StateStore) RecordStat(actorID, statType string, value int64) *Future[struct{}] {
	return submit(s, func(ctx context.Context) (struct{}, error) {
		event := &secondary.StatEvent{
			ActorID:    actorID,
			StatType:   statType,
			StatValue:  value,
			RecordedAt: s.now(),
		}
		return struct{}{}, writeErr("record stat", s.stats.Record(ctx, event))
	})
}

// LoadStats resolves to an actor's performance events, newest first.
func (s *StateStore) LoadStats(actorID string, limit int) *Future[[]*secondary.StatEvent] {
	return submit(s, func(ctx context.Context) ([]*secondary.StatEvent, error) {
		events, err := s.stats.ListByActor(ctx, actorID, limit)
		return events, readErr("load stats", err)
	})
}

// RunMaintenance composes expired-pursuit cleanup, cache eviction,
// storage compaction and a schema-version re-stamp. Step failures are
// logged and do not abort later steps, except that compaction is skipped
// once a step fails fatally (connection loss).
func (s *StateStore) RunMaintenance() *Future[MaintenanceReport] {
	return submit(s, func(ctx context.Context) (MaintenanceReport, error) {
		var report MaintenanceReport
		fatal := false

		n, err := s.cleanupPursuits(ctx)
		if err != nil {
			log.Printf("maintenance: pursuit cleanup failed: %v", err)
			report.Errors = append(report.Errors, err)
			fatal = fatal || isFatal(err)
		}
		report.PursuitsDeleted = n

		cutoff := s.now() - s.cacheTTL.Milliseconds()
		evicted, err := s.cache.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			err = writeErr("cache eviction", err)
			log.Printf("maintenance: cache eviction failed: %v", err)
			report.Errors = append(report.Errors, err)
			fatal = fatal || isFatal(err)
		}
		report.CacheEvicted = evicted

		if !fatal {
			if _, err := s.conn.ExecContext(ctx, "VACUUM"); err != nil {
				err = writeErr("compaction", err)
				log.Printf("maintenance: compaction failed: %v", err)
				report.Errors = append(report.Errors, err)
			} else {
				report.Compacted = true
			}
		}

		if err := db.RestampVersion(s.conn); err != nil {
			log.Printf("maintenance: version re-stamp failed: %v", err)
			report.Errors = append(report.Errors, err)
		}

		return report, nil
	})
}

// Statistics resolves to a point-in-time content snapshot. The counts
// are not mutually consistent; they are advisory only.
func (s *StateStore) Statistics() *Future[Stats] {
	return submit(s, func(ctx context.Context) (Stats, error) {
		var st Stats
		var err error

		if st.Actors, err = s.actors.Count(ctx); err != nil {
			return st, readErr("count actors", err)
		}
		if st.ActivePursuits, err = s.pursuits.CountActive(ctx); err != nil {
			return st, readErr("count pursuits", err)
		}
		if st.CachedEntries, err = s.cache.Count(ctx); err != nil {
			return st, readErr("count cache entries", err)
		}

		if info, err := os.Stat(s.path); err == nil {
			st.SizeBytes = info.Size()
		}

		return st, nil
	})
}

// CreateBackup copies the database file to path, creating parent
// directories as needed. The copy is uncoordinated with writers; request
// it during a quiet period or accept best-effort consistency.
func (s *StateStore) CreateBackup(path string) *Future[string] {
	return submit(s, func(ctx context.Context) (string, error) {
		src, err := os.Open(s.path)
		if err != nil {
			return "", &BackupError{Path: path, Err: fmt.Errorf("source unavailable: %w", err)}
		}
		defer src.Close()

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return "", &BackupError{Path: path, Err: err}
		}

		dst, err := os.Create(path)
		if err != nil {
			return "", &BackupError{Path: path, Err: err}
		}
		defer dst.Close()

		if _, err := io.Copy(dst, src); err != nil {
			return "", &BackupError{Path: path, Err: err}
		}
		return path, nil
	})
}

// Close drains the worker pool and releases the connection. Operations
// issued afterwards fail with ErrNotInitialized.
func (s *StateStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()

	s.wg.Wait()
	return s.conn.Close()
}
