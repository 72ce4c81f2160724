package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/academic-program/reporting-api/internal/asana"
	"github.com/academic-program/reporting-api/internal/database/snapshots"
	"github.com/academic-program/reporting-api/internal/database/universities"
	"github.com/academic-program/reporting-api/internal/http"
	"github.com/academic-program/reporting-api/internal/metrics"
	"github.com/academic-program/reporting-api/internal/scheduler"
	"github.com/academic-program/reporting-api/internal/syncer"
	"github.com/academic-program/reporting-api/internal/tasks"
	"github.com/academic-program/reporting-api/internal/telemetry"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.UniversityStore = (*universities.Repository)(nil)
var _ http.UniversityHistoryReader = (*snapshots.Repository)(nil)
var _ http.MetricsReader = (*metrics.Service)(nil)

// =============================================================================
// External Source
// =============================================================================

var _ syncer.Source = (*asana.Source)(nil)
var _ asana.TaskLister = (*asana.Client)(nil)

// =============================================================================
// Sync Execution
// =============================================================================

var _ syncer.Dispatcher = (*tasks.Dispatcher)(nil)
var _ syncer.Dispatcher = (*syncer.GoDispatcher)(nil)
var _ tasks.SyncExecutor = (*syncer.Service)(nil)
var _ syncer.Observer = (*telemetry.SyncMetrics)(nil)

// =============================================================================
// HTTP and Scheduling
// =============================================================================

var _ http.SyncService = (*syncer.Service)(nil)
var _ http.NextRunProvider = (*scheduler.UniversitySyncScheduler)(nil)
var _ http.TaskStatusReader = (*tasks.Client)(nil)
var _ scheduler.Triggerer = (*syncer.Service)(nil)
