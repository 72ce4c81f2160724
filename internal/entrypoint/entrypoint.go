package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/academic-program/reporting-api/internal/asana"
	"github.com/academic-program/reporting-api/internal/config"
	"github.com/academic-program/reporting-api/internal/database"
	"github.com/academic-program/reporting-api/internal/database/snapshots"
	"github.com/academic-program/reporting-api/internal/database/universities"
	"github.com/academic-program/reporting-api/internal/entities"
	http_controllers "github.com/academic-program/reporting-api/internal/http"
	"github.com/academic-program/reporting-api/internal/metrics"
	"github.com/academic-program/reporting-api/internal/scheduler"
	"github.com/academic-program/reporting-api/internal/syncer"
	"github.com/academic-program/reporting-api/internal/tasks"
	"github.com/academic-program/reporting-api/internal/telemetry"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// SetupLogging sends the standard logger and gin's request log to stderr and,
// when cfg.File is set, to a size-rotated file as well. The returned closer
// releases the file.
func SetupLogging(cfg config.Logging) io.Closer {
	if cfg.File == "" {
		return closerFunc(func() error { return nil })
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotated))
	gin.DefaultWriter = io.MultiWriter(os.Stdout, rotated)
	gin.DefaultErrorWriter = io.MultiWriter(os.Stderr, rotated)

	log.Printf("Logging to %s (max %d MB, %d backups, %d days)", cfg.File, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	return rotated
}

// NewSource builds the Asana-backed university source from configuration.
func NewSource(cfg config.Asana) *asana.Source {
	if cfg.AccessToken == "" {
		log.Printf("WARNING: Asana access token is not set. Syncs will fail until 'ASANA_ACCESS_TOKEN' is configured.")
	}
	if cfg.ProjectGID == "" {
		log.Printf("WARNING: Asana project is not set. Syncs will fail until 'ASANA_PROJECT_GID' is configured.")
	}

	mapping := asana.NewFieldMapping(
		cfg.FieldResearchersCount,
		cfg.FieldStudentsCount,
		cfg.FieldHardwareTypes,
		cfg.FieldPointOfContact,
	)
	return asana.NewSource(asana.NewClient(cfg.BaseURL, cfg.AccessToken), cfg.ProjectGID, mapping)
}

// NewSyncService wires the orchestrator over db and the configured source.
// observer may be nil.
func NewSyncService(cfg *config.Config, db *database.Database, observer syncer.Observer) *syncer.Service {
	return syncer.NewService(db.DB, NewSource(cfg.Asana), syncer.Options{
		StaleAfter: cfg.Sync.StaleAfter,
		Observer:   observer,
	})
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop producing work (scheduler, task queue) before closing the listener
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	logCloser := SetupLogging(cfg.Logging)
	defer logCloser.Close()

	log.Printf("Starting Academic Program Reporting API v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	syncMetrics := telemetry.NewSyncMetrics()
	syncService := NewSyncService(cfg, db, syncMetrics)

	// Runs left in_progress by a previous crash would block every trigger
	if _, err := syncService.ReclaimStale(); err != nil {
		log.Printf("WARNING: %v", err)
	}

	// Initialize task queue if enabled; otherwise runs execute on goroutines
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var goDispatcher *syncer.GoDispatcher
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewSyncUniversitiesQueue(syncService))
		syncService.SetDispatcher(tasks.NewDispatcher(taskClient))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	} else {
		log.Printf("Task queue disabled, sync runs execute in-process")
		goDispatcher = syncer.NewGoDispatcher(syncService)
		syncService.SetDispatcher(goDispatcher)
	}

	if cfg.HTTP.DemoMode {
		log.Printf("Demo mode enabled: write requests are rejected and scheduled syncs are off")
	}

	var syncScheduler *scheduler.UniversitySyncScheduler
	if cfg.Sync.ScheduleEnabled && !cfg.HTTP.DemoMode {
		syncScheduler = StartScheduler(context.Background(), cfg.Sync, syncService)
	} else {
		log.Printf("University sync scheduler: disabled")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:          db,
		Metrics:           metrics.NewService(db.DB),
		Universities:      universities.NewRepository(db.DB),
		Snapshots:         snapshots.NewRepository(db.DB),
		Sync:              syncService,
		PrometheusHandler: syncMetrics.Handler(),
		TaskClient:        taskClient,
		CORSOrigins:       cfg.HTTP.CORSOrigins,
		DemoMode:          cfg.HTTP.DemoMode,
		Version:           version,
	}
	if syncScheduler != nil {
		routerCfg.Scheduler = syncScheduler
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if syncScheduler != nil {
			syncScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		if goDispatcher != nil {
			waitOrTimeout(ctx, goDispatcher.Wait)
		}
	}

	Serve(router, cfg, onShutdown)
}

// StartScheduler starts the periodic sync and, when cfg.RunOnStartup is set,
// triggers one run right away. It returns nil when the scheduler cannot start.
func StartScheduler(ctx context.Context, cfg config.Sync, trigger scheduler.Triggerer) *scheduler.UniversitySyncScheduler {
	s := scheduler.NewUniversitySyncScheduler(trigger, cfg.ScheduleHours)
	if err := s.Start(ctx); err != nil {
		log.Printf("WARNING: failed to start sync scheduler: %v", err)
		return nil
	}
	if cfg.RunOnStartup {
		log.Printf("University sync scheduler: running initial sync")
		s.RunNow()
	}
	return s
}

// RunSyncOnce executes one sync synchronously, outside the HTTP server.
func RunSyncOnce(ctx context.Context, cfg *config.Config, kind entities.SyncType, createSnapshot bool) (*entities.SyncRun, error) {
	logCloser := SetupLogging(cfg.Logging)
	defer logCloser.Close()

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	return NewSyncService(cfg, db, nil).RunOnce(ctx, kind, createSnapshot)
}

// waitOrTimeout runs wait and returns when it does or when ctx is done.
func waitOrTimeout(ctx context.Context, wait func()) {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Printf("Shutdown timeout reached with a sync still running")
	}
}
