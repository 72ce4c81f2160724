package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/academic-program/reporting-api/internal/config"
	"github.com/academic-program/reporting-api/internal/entities"
	"github.com/academic-program/reporting-api/internal/entrypoint"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	NoSnapshot bool
	Type       string
	DBPath     string
}

// SyncRunner executes one sync run synchronously.
type SyncRunner func(ctx context.Context, cfg *config.Config, kind entities.SyncType, createSnapshot bool) (*entities.SyncRun, error)

// NewSyncCommand creates the sync command.
func NewSyncCommand() *cobra.Command {
	return newSyncCommand(config.NewConfig, entrypoint.RunSyncOnce)
}

func newSyncCommand(loadConfig func() *config.Config, run SyncRunner) *cobra.Command {
	opts := &SyncOptions{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync from Asana and exit",
		Long: `Fetch the active universities from Asana, reconcile the current state and
write today's snapshot, without starting the HTTP server.

The run is recorded in the sync history like any triggered run. The command
fails when another sync is already in progress.

Example:
  reporting-api sync
  reporting-api sync --no-snapshot --type scheduled`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := entities.SyncType(opts.Type)
			if !kind.Valid() {
				return fmt.Errorf("invalid type %q: must be %q or %q", opts.Type, entities.SyncTypeManual, entities.SyncTypeScheduled)
			}

			cfg := loadConfig()
			if opts.DBPath != "" {
				cfg.Database.Path = opts.DBPath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := run(ctx, cfg, kind, !opts.NoSnapshot)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sync run #%d: %s, %d universities synced\n", result.ID, result.Status, result.TasksSynced)
			if result.Status != entities.SyncStatusSuccess {
				msg := "unknown error"
				if result.ErrorMessage != nil {
					msg = *result.ErrorMessage
				}
				return fmt.Errorf("sync failed: %s", msg)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.NoSnapshot, "no-snapshot", false, "skip writing today's snapshot")
	cmd.Flags().StringVar(&opts.Type, "type", string(entities.SyncTypeManual), "sync type recorded in the history (manual|scheduled)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "override DATABASE_PATH")

	return cmd
}
