package http

import (
	"context"
	"time"

	"github.com/academic-program/reporting-api/internal/database/universities"
	"github.com/academic-program/reporting-api/internal/entities"
	"github.com/academic-program/reporting-api/internal/metrics"
	"github.com/academic-program/reporting-api/internal/syncer"
)

// This file consolidates the interfaces HTTP controllers depend on.
// Each controller takes only the methods it calls.

// MetricsReader computes the read-only dashboard metrics.
type MetricsReader interface {
	Today() time.Time
	Current() (*metrics.Current, error)
	Timeline(start, end time.Time) (*metrics.Timeline, error)
	Growth(periodDays int) (*metrics.Growth, error)
	HardwareDistribution() (map[string]int, error)
}

// UniversityStore provides read access to the current-state mirror.
type UniversityStore interface {
	List(filter universities.ListFilter) ([]entities.UniversityCurrent, error)
	GetByExternalID(externalID string) (*entities.UniversityCurrent, error)
}

// UniversityHistoryReader provides per-university snapshot history.
type UniversityHistoryReader interface {
	UniversityHistory(externalID string, limit int) ([]entities.UniversityHistoryEntry, error)
}

// SyncService starts sync runs and reports on them.
type SyncService interface {
	Trigger(ctx context.Context, kind entities.SyncType, createSnapshot bool) (uint, error)
	Status() (*syncer.Status, error)
	History(limit int) ([]entities.SyncRun, error)
}

// NextRunProvider reports when the next scheduled sync fires.
type NextRunProvider interface {
	NextRun() *time.Time
}
