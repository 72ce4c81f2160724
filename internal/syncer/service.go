// Package syncer runs the fetch, reconcile and snapshot pipeline and keeps the
// sync run log.
//
// A sync is two calls. StartSync records an "in_progress" run and returns at
// once; ExecuteSync does the work and always leaves the run in a terminal
// status. Trigger combines the concurrency guard, StartSync and handing the
// run to a Dispatcher for background execution.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/academic-program/reporting-api/internal/database/snapshots"
	syncdb "github.com/academic-program/reporting-api/internal/database/sync"
	"github.com/academic-program/reporting-api/internal/database/universities"
	"github.com/academic-program/reporting-api/internal/entities"
)

// ErrSyncInProgress is returned by Trigger when another run is still in progress.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrRunNotFound is returned by ExecuteSync for an unknown run ID.
var ErrRunNotFound = errors.New("sync run not found")

// Source provides the active universities of the external tracker.
type Source interface {
	FetchActiveUniversities(ctx context.Context) ([]entities.University, error)
}

// Job identifies one started run waiting for execution.
type Job struct {
	RunID          uint
	CreateSnapshot bool
}

// Dispatcher hands a started run to background execution. Dispatch must not
// block on the run itself.
type Dispatcher interface {
	Dispatch(ctx context.Context, job Job) error
}

// Observer is notified once per finished run.
type Observer interface {
	ObserveRun(run entities.SyncRun, duration time.Duration, universities int)
}

// Status describes the current and last completed sync.
type Status struct {
	IsSyncing      bool                 `json:"is_syncing"`
	LastSyncAt     *time.Time           `json:"last_sync_at"`
	LastSyncStatus *entities.SyncStatus `json:"last_sync_status"`
	LastSyncTasks  *int                 `json:"last_sync_tasks"`
}

// Options configures a Service.
type Options struct {
	// StaleAfter is the age after which an "in_progress" run is considered
	// abandoned. Zero disables reclaiming.
	StaleAfter time.Duration
	Observer   Observer
	Now        func() time.Time
}

// Service orchestrates sync runs.
type Service struct {
	db           *gorm.DB
	source       Source
	runs         *syncdb.Repository
	universities *universities.Repository
	snapshots    *snapshots.Repository

	dispatcher Dispatcher
	observer   Observer
	staleAfter time.Duration
	now        func() time.Time

	// triggerMu serializes the guard check with run creation inside one process.
	triggerMu sync.Mutex
}

// NewService creates a sync service writing to db and reading from source.
func NewService(db *gorm.DB, source Source, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		db:           db,
		source:       source,
		runs:         syncdb.NewRepositoryWithClock(db, now),
		universities: universities.NewRepository(db),
		snapshots:    snapshots.NewRepository(db),
		observer:     opts.Observer,
		staleAfter:   opts.StaleAfter,
		now:          now,
	}
}

// SetDispatcher sets the background executor used by Trigger. The task queue
// needs the service to build its processor, so it is attached after construction.
func (s *Service) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// StartSync records a new "in_progress" run and returns its ID.
func (s *Service) StartSync(kind entities.SyncType) (uint, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("unknown sync type %q", kind)
	}
	run, err := s.runs.Start(kind)
	if err != nil {
		return 0, fmt.Errorf("failed to create sync run: %w", err)
	}
	log.Printf("University sync: started %s run #%d", kind, run.ID)
	return run.ID, nil
}

// IsSyncInProgress reports whether any run is "in_progress".
func (s *Service) IsSyncInProgress() (bool, error) {
	return s.runs.IsInProgress()
}

// Trigger starts a run of the given kind and dispatches it for background
// execution. Returns ErrSyncInProgress when a run is already in progress.
func (s *Service) Trigger(ctx context.Context, kind entities.SyncType, createSnapshot bool) (uint, error) {
	if s.dispatcher == nil {
		return 0, errors.New("sync dispatcher not configured")
	}

	s.triggerMu.Lock()
	if _, err := s.ReclaimStale(); err != nil {
		s.triggerMu.Unlock()
		return 0, err
	}

	running, err := s.IsSyncInProgress()
	if err != nil {
		s.triggerMu.Unlock()
		return 0, fmt.Errorf("failed to check sync status: %w", err)
	}
	if running {
		s.triggerMu.Unlock()
		return 0, ErrSyncInProgress
	}

	runID, err := s.StartSync(kind)
	s.triggerMu.Unlock()
	if err != nil {
		return 0, err
	}

	job := Job{RunID: runID, CreateSnapshot: createSnapshot}
	if err := s.dispatcher.Dispatch(ctx, job); err != nil {
		msg := fmt.Sprintf("failed to dispatch sync: %v", err)
		s.finishFailed(runID, msg)
		return 0, errors.New(msg)
	}

	return runID, nil
}

// ExecuteSync runs the pipeline for a started run. Every failure, including a
// panic, is recorded on the run as "failed"; the returned error only reports it
// to the caller.
func (s *Service) ExecuteSync(ctx context.Context, runID uint, createSnapshot bool) (err error) {
	run, err := s.runs.Get(runID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: #%d", ErrRunNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("failed to load sync run #%d: %w", runID, err)
	}
	if run.Status != entities.SyncStatusInProgress {
		return fmt.Errorf("%w: #%d is %s", syncdb.ErrRunFinished, runID, run.Status)
	}

	startTime := time.Now()
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("sync panicked: %v", r)
			log.Printf("University sync: run #%d %s", runID, msg)
			s.finishFailed(runID, msg)
			s.observe(runID, startTime, 0)
			err = errors.New(msg)
		}
	}()

	log.Printf("University sync: run #%d fetching universities", runID)
	fetched, err := s.source.FetchActiveUniversities(ctx)
	if err != nil {
		log.Printf("University sync: run #%d failed to fetch: %v", runID, err)
		s.finishFailed(runID, err.Error())
		s.observe(runID, startTime, 0)
		return err
	}

	result, err := s.apply(run, fetched, createSnapshot)
	if err != nil {
		log.Printf("University sync: run #%d failed to apply: %v", runID, err)
		s.finishFailed(runID, err.Error())
		s.observe(runID, startTime, 0)
		return err
	}

	log.Printf("University sync: run #%d synced %d universities (%d new, %d updated, %d removed) in %v",
		runID, len(fetched), result.Inserted, result.Updated, result.Deleted,
		time.Since(startTime).Round(time.Millisecond))
	s.observe(runID, startTime, len(fetched))
	return nil
}

// apply reconciles current state, writes today's snapshot and finalizes the
// run in one transaction.
func (s *Service) apply(run *entities.SyncRun, fetched []entities.University, createSnapshot bool) (*universities.ReconcileResult, error) {
	var result *universities.ReconcileResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := s.now()

		var err error
		result, err = s.universities.WithTx(tx).Reconcile(fetched, now)
		if err != nil {
			return fmt.Errorf("failed to reconcile universities: %w", err)
		}
		if len(fetched) == 0 {
			log.Printf("University sync: run #%d fetched nothing, keeping current state", run.ID)
		}

		if createSnapshot {
			date := now.Format(entities.DateLayout)
			if _, err := s.snapshots.WithTx(tx).ReplaceForDate(date, fetched); err != nil {
				return fmt.Errorf("failed to write snapshot for %s: %w", date, err)
			}
		}

		return s.runs.WithTx(tx).Finish(run.ID, entities.SyncStatusSuccess, len(fetched), "")
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) finishFailed(runID uint, msg string) {
	err := s.runs.Finish(runID, entities.SyncStatusFailed, 0, msg)
	if errors.Is(err, syncdb.ErrRunFinished) {
		log.Printf("University sync: run #%d was already finished, keeping its status", runID)
		return
	}
	if err != nil {
		log.Printf("University sync: failed to mark run #%d as failed: %v", runID, err)
	}
}

func (s *Service) observe(runID uint, startTime time.Time, count int) {
	if s.observer == nil {
		return
	}
	run, err := s.runs.Get(runID)
	if err != nil {
		return
	}
	s.observer.ObserveRun(*run, time.Since(startTime), count)
}

// Status returns whether a sync is running and the outcome of the last completed run.
func (s *Service) Status() (*Status, error) {
	running, err := s.runs.IsInProgress()
	if err != nil {
		return nil, err
	}

	status := &Status{IsSyncing: running}

	last, err := s.runs.LastCompleted()
	if err != nil {
		return nil, err
	}
	if last != nil {
		lastStatus := last.Status
		tasks := last.TasksSynced
		status.LastSyncAt = last.CompletedAt
		status.LastSyncStatus = &lastStatus
		status.LastSyncTasks = &tasks
	}

	return status, nil
}

// History returns up to limit runs, newest first.
func (s *Service) History(limit int) ([]entities.SyncRun, error) {
	return s.runs.History(limit)
}

// ReclaimStale fails runs left "in_progress" longer than the stale threshold.
func (s *Service) ReclaimStale() (int64, error) {
	if s.staleAfter <= 0 {
		return 0, nil
	}
	reclaimed, err := s.runs.ReclaimStale(s.staleAfter)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale runs: %w", err)
	}
	if reclaimed > 0 {
		log.Printf("University sync: marked %d stale run(s) as failed", reclaimed)
	}
	return reclaimed, nil
}

// RunOnce starts and executes a run synchronously.
func (s *Service) RunOnce(ctx context.Context, kind entities.SyncType, createSnapshot bool) (*entities.SyncRun, error) {
	if _, err := s.ReclaimStale(); err != nil {
		return nil, err
	}

	running, err := s.IsSyncInProgress()
	if err != nil {
		return nil, err
	}
	if running {
		return nil, ErrSyncInProgress
	}

	runID, err := s.StartSync(kind)
	if err != nil {
		return nil, err
	}

	if err := s.ExecuteSync(ctx, runID, createSnapshot); err != nil {
		log.Printf("University sync: run #%d finished with error: %v", runID, err)
	}
	return s.runs.Get(runID)
}
