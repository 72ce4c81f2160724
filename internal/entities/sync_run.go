package entities

import (
	"time"
)

type SyncType string

const (
	SyncTypeManual    SyncType = "manual"
	SyncTypeScheduled SyncType = "scheduled"
)

// Valid reports whether t is a known sync type.
func (t SyncType) Valid() bool {
	return t == SyncTypeManual || t == SyncTypeScheduled
}

type SyncStatus string

const (
	SyncStatusInProgress SyncStatus = "in_progress"
	SyncStatusSuccess    SyncStatus = "success"
	SyncStatusFailed     SyncStatus = "failed"
)

// SyncRun is an append-only log entry for one execution of the sync pipeline.
type SyncRun struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SyncType     SyncType   `gorm:"size:20;not null" json:"sync_type"`
	Status       SyncStatus `gorm:"size:20;not null;index" json:"status"`
	TasksSynced  int        `gorm:"not null;default:0" json:"tasks_synced"`
	ErrorMessage *string    `gorm:"type:text" json:"error_message"`
	StartedAt    time.Time  `gorm:"index" json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

func (SyncRun) TableName() string {
	return "sync_log"
}
