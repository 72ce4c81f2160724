package tasks

import (
	"log"
	"time"
)

// Config tunes the sync task queue.
type Config struct {
	Workers int

	// ReleaseAfter returns a claimed task to the queue when its worker has not
	// finished it in time. Never below SyncTaskDeadline, so a live run is not
	// picked up by a second worker.
	ReleaseAfter time.Duration

	CleanupInterval time.Duration

	// RetentionDuration is how long finished tasks stay queryable.
	RetentionDuration time.Duration
}

// DefaultConfig returns the queue settings used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		Workers:           1,
		ReleaseAfter:      SyncTaskDeadline + time.Hour,
		CleanupInterval:   time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = def.ReleaseAfter
	} else if c.ReleaseAfter <= SyncTaskDeadline {
		log.Printf("Task queue: release-after %v is below the sync task deadline, using %v", c.ReleaseAfter, def.ReleaseAfter)
		c.ReleaseAfter = def.ReleaseAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = def.CleanupInterval
	}
	if c.RetentionDuration <= 0 {
		c.RetentionDuration = def.RetentionDuration
	}
	return c
}
