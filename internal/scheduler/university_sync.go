package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/academic-program/reporting-api/internal/entities"
	"github.com/academic-program/reporting-api/internal/syncer"
)

// Triggerer starts a background sync run.
type Triggerer interface {
	Trigger(ctx context.Context, kind entities.SyncType, createSnapshot bool) (uint, error)
}

// UniversitySyncScheduler triggers a scheduled sync with snapshot every few hours.
type UniversitySyncScheduler struct {
	sync  Triggerer
	hours int

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewUniversitySyncScheduler creates a scheduler firing every hours hours.
func NewUniversitySyncScheduler(syncService Triggerer, hours int) *UniversitySyncScheduler {
	return &UniversitySyncScheduler{
		sync:  syncService,
		hours: hours,
		cron:  cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
	}
}

// Schedule returns the cron spec for the configured interval.
func (s *UniversitySyncScheduler) Schedule() string {
	return fmt.Sprintf("@every %dh", s.hours)
}

// Start registers the sync job and starts the cron loop. Cancelling ctx stops it.
func (s *UniversitySyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.hours <= 0 {
		return fmt.Errorf("invalid sync interval %d hours", s.hours)
	}

	entryID, err := s.cron.AddFunc(s.Schedule(), func() {
		s.runSync()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("University sync scheduler: started with schedule '%s'. Next run: %v",
		s.Schedule(), s.cron.Entry(entryID).Next)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop waits for a running job to return and stops the scheduler.
func (s *UniversitySyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.cron.Remove(s.entryID)
	s.isRunning = false
	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	log.Printf("University sync scheduler: stopped")
}

// RunNow triggers a scheduled sync immediately, outside the cron loop.
func (s *UniversitySyncScheduler) RunNow() {
	go s.runSync()
}

// IsRunning returns whether the scheduler is active
func (s *UniversitySyncScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next sync will occur, or nil when stopped.
func (s *UniversitySyncScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entry := s.cron.Entry(s.entryID)
	if !entry.Valid() || entry.Next.IsZero() {
		return nil
	}
	next := entry.Next.UTC()
	return &next
}

func (s *UniversitySyncScheduler) runSync() {
	runID, err := s.sync.Trigger(context.Background(), entities.SyncTypeScheduled, true)
	if errors.Is(err, syncer.ErrSyncInProgress) {
		log.Printf("University sync scheduler: skipped (sync already in progress)")
		return
	}
	if err != nil {
		log.Printf("University sync scheduler: failed to trigger sync: %v", err)
		return
	}
	log.Printf("University sync scheduler: triggered run #%d", runID)
}
