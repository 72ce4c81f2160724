package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Asana
		Database
		Sync
		Tasks
		Logging
	}

	HTTP struct {
		Port        int32
		Host        string
		CORSOrigins []string
		DemoMode    bool // read-only API over a seeded database
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Asana struct {
		AccessToken string
		ProjectGID  string
		BaseURL     string

		// Custom field GIDs, resolved once into typed field specs by the asana package.
		FieldResearchersCount string
		FieldStudentsCount    string
		FieldHardwareTypes    string
		FieldPointOfContact   string
	}

	Database struct {
		Path string
	}

	Sync struct {
		ScheduleEnabled bool
		ScheduleHours   int
		RunOnStartup    bool          // trigger one scheduled sync as soon as the scheduler starts
		StaleAfter      time.Duration // in_progress runs older than this are reclaimed as failed
	}

	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}

	Logging struct {
		File       string // empty = stderr only
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
)

// SplitOrigins turns a comma-separated origin list into a trimmed slice.
func SplitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// NewConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real env vars win.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("cors_origins", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("demo_mode", false)

	// Asana defaults
	v.SetDefault("asana_access_token", "")
	v.SetDefault("asana_project_gid", "")
	v.SetDefault("asana_base_url", DefaultAsanaBaseURL)
	v.SetDefault("asana_field_researchers_count", "")
	v.SetDefault("asana_field_students_count", "")
	v.SetDefault("asana_field_hardware_types", "")
	v.SetDefault("asana_field_point_of_contact", "")

	v.SetDefault("database_path", DefaultDatabasePath)

	// Sync defaults
	v.SetDefault("enable_scheduled_sync", true)
	v.SetDefault("sync_schedule_hours", 24)
	v.SetDefault("sync_on_startup", false)
	v.SetDefault("stale_sync_after", "2h")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "25h")
	v.SetDefault("task_cleanup_interval", "1h")

	// Log rotation defaults (only used when LOG_FILE is set)
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 50)
	v.SetDefault("log_max_backups", 5)
	v.SetDefault("log_max_age_days", 28)

	return &Config{
		HTTP: HTTP{
			Port:        v.GetInt32("PORT"),
			Host:        v.GetString("HOST"),
			CORSOrigins: SplitOrigins(v.GetString("CORS_ORIGINS")),
			DemoMode:    v.GetBool("DEMO_MODE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Asana: Asana{
			AccessToken:           v.GetString("ASANA_ACCESS_TOKEN"),
			ProjectGID:            v.GetString("ASANA_PROJECT_GID"),
			BaseURL:               v.GetString("ASANA_BASE_URL"),
			FieldResearchersCount: v.GetString("ASANA_FIELD_RESEARCHERS_COUNT"),
			FieldStudentsCount:    v.GetString("ASANA_FIELD_STUDENTS_COUNT"),
			FieldHardwareTypes:    v.GetString("ASANA_FIELD_HARDWARE_TYPES"),
			FieldPointOfContact:   v.GetString("ASANA_FIELD_POINT_OF_CONTACT"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Sync: Sync{
			ScheduleEnabled: v.GetBool("ENABLE_SCHEDULED_SYNC"),
			ScheduleHours:   v.GetInt("SYNC_SCHEDULE_HOURS"),
			RunOnStartup:    v.GetBool("SYNC_ON_STARTUP"),
			StaleAfter:      v.GetDuration("STALE_SYNC_AFTER"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Logging: Logging{
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
	}
}
