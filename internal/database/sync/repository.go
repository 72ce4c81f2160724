// Package sync provides database operations for the sync run log.
//
// Runs are append-only: Start creates a row in "in_progress", Finish moves it
// to a terminal status exactly once. Rows are never deleted.
//
// # Usage
//
//	repo := sync.NewRepository(db)
//	run, err := repo.Start(entities.SyncTypeManual)
//	...
//	err = repo.Finish(run.ID, entities.SyncStatusSuccess, 42, "")
package sync

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/academic-program/reporting-api/internal/entities"
)

// ErrRunFinished is returned by Finish for a run that already has a terminal status.
var ErrRunFinished = errors.New("sync run already finished")

// Repository handles all sync run database operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new sync run repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: utcNow}
}

// NewRepositoryWithClock creates a repository that reads time from now.
func NewRepositoryWithClock(db *gorm.DB, now func() time.Time) *Repository {
	return &Repository{db: db, now: now}
}

// WithTx returns a repository bound to tx that shares this repository's clock.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, now: r.now}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// Start creates a new run in "in_progress" state.
func (r *Repository) Start(syncType entities.SyncType) (*entities.SyncRun, error) {
	run := &entities.SyncRun{
		SyncType:  syncType,
		Status:    entities.SyncStatusInProgress,
		StartedAt: r.now(),
	}
	if err := r.db.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Get loads a run by ID. Returns gorm.ErrRecordNotFound when absent.
func (r *Repository) Get(id uint) (*entities.SyncRun, error) {
	var run entities.SyncRun
	if err := r.db.First(&run, id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// Finish records the terminal status, synced count and completion time of a
// run that is still "in_progress". A run reclaimed as stale keeps its status.
func (r *Repository) Finish(id uint, status entities.SyncStatus, tasksSynced int, errorMsg string) error {
	updates := map[string]any{
		"status":       status,
		"tasks_synced": tasksSynced,
		"completed_at": r.now(),
	}
	if errorMsg != "" {
		updates["error_message"] = errorMsg
	}
	result := r.db.Model(&entities.SyncRun{}).
		Where("id = ? AND status = ?", id, entities.SyncStatusInProgress).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.Get(id); err != nil {
			return err
		}
		return ErrRunFinished
	}
	return nil
}

// IsInProgress reports whether any run is currently "in_progress".
func (r *Repository) IsInProgress() (bool, error) {
	var count int64
	err := r.db.Model(&entities.SyncRun{}).
		Where("status = ?", entities.SyncStatusInProgress).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LastCompleted returns the most recently completed (success or failed) run,
// or nil when no run has finished yet.
func (r *Repository) LastCompleted() (*entities.SyncRun, error) {
	var run entities.SyncRun
	err := r.db.Where("status IN ?", []entities.SyncStatus{entities.SyncStatusSuccess, entities.SyncStatusFailed}).
		Order("completed_at DESC").
		Order("id DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// History returns up to limit runs, newest start time first.
func (r *Repository) History(limit int) ([]entities.SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}
	var runs []entities.SyncRun
	err := r.db.Order("started_at DESC").Order("id DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// ReclaimStale marks "in_progress" runs that started before now-olderThan as
// failed. A crash mid-sync would otherwise leave the guard blocked forever.
func (r *Repository) ReclaimStale(olderThan time.Duration) (int64, error) {
	now := r.now()
	result := r.db.Model(&entities.SyncRun{}).
		Where("status = ? AND started_at < ?", entities.SyncStatusInProgress, now.Add(-olderThan)).
		Updates(map[string]any{
			"status":        entities.SyncStatusFailed,
			"error_message": "sync was interrupted",
			"completed_at":  now,
		})
	return result.RowsAffected, result.Error
}
