package http

import (
	"net/http"

	"github.com/academic-program/reporting-api/internal/database"
	"github.com/academic-program/reporting-api/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database     *database.Database
	Metrics      MetricsReader
	Universities UniversityStore
	Snapshots    UniversityHistoryReader
	Sync         SyncService

	// Scheduler exposes the next scheduled sync (optional)
	Scheduler NextRunProvider

	// Prometheus exposition handler mounted at /metrics (optional)
	PrometheusHandler http.Handler

	// Task queue client (optional)
	TaskClient *tasks.Client

	// Allowed CORS origins
	CORSOrigins []string

	// Demo mode rejects every write request
	DemoMode bool

	// Application info
	Version string
}
