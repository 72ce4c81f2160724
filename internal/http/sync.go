package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/academic-program/reporting-api/internal/entities"
	"github.com/academic-program/reporting-api/internal/syncer"
)

const (
	defaultSyncHistoryLimit = 10
	maxSyncHistoryLimit     = 100
)

type SyncTriggerResponse struct {
	SyncID  uint   `json:"sync_id"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type SyncStatusResponse struct {
	syncer.Status
	NextScheduledSyncAt *time.Time `json:"next_scheduled_sync_at"`
}

type SyncHistoryResponse struct {
	History []entities.SyncRun `json:"history"`
}

// SyncController triggers sync runs and reports on them.
type SyncController struct {
	sync      SyncService
	scheduler NextRunProvider
}

// NewSyncController creates a SyncController. scheduler may be nil when
// scheduled sync is disabled.
func NewSyncController(sync SyncService, scheduler NextRunProvider) *SyncController {
	return &SyncController{sync: sync, scheduler: scheduler}
}

// Trigger handles POST /api/v1/sync/trigger?create_snapshot
// The run executes in the background; the response carries its ID for polling.
func (sc *SyncController) Trigger(c *gin.Context) {
	createSnapshot, ok := parseBoolQuery(c, "create_snapshot", true)
	if !ok {
		return
	}

	runID, err := sc.sync.Trigger(c.Request.Context(), entities.SyncTypeManual, createSnapshot)
	if errors.Is(err, syncer.ErrSyncInProgress) {
		respondConflict(c, "Sync already in progress")
		return
	}
	if err != nil {
		respondInternalError(c, err, "trigger sync")
		return
	}

	c.JSON(http.StatusOK, SyncTriggerResponse{
		SyncID:  runID,
		Message: "Sync started",
		Status:  string(entities.SyncStatusInProgress),
	})
}

// Status handles GET /api/v1/sync/status
func (sc *SyncController) Status(c *gin.Context) {
	status, err := sc.sync.Status()
	if err != nil {
		respondInternalError(c, err, "sync status")
		return
	}

	response := SyncStatusResponse{Status: *status}
	if sc.scheduler != nil {
		response.NextScheduledSyncAt = sc.scheduler.NextRun()
	}

	c.JSON(http.StatusOK, response)
}

// History handles GET /api/v1/sync/history?limit
func (sc *SyncController) History(c *gin.Context) {
	limit, ok := parseIntQuery(c, "limit", defaultSyncHistoryLimit, 1, maxSyncHistoryLimit)
	if !ok {
		return
	}

	runs, err := sc.sync.History(limit)
	if err != nil {
		respondInternalError(c, err, "sync history")
		return
	}
	if runs == nil {
		runs = []entities.SyncRun{}
	}

	c.JSON(http.StatusOK, SyncHistoryResponse{History: runs})
}
