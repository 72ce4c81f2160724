package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/academic-program/reporting-api/internal/config"
	"github.com/academic-program/reporting-api/internal/entrypoint"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
}

// NewRootCommand creates the root command. Without a subcommand it starts the
// HTTP server, same as "serve".
func NewRootCommand(build BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "reporting-api",
		Short:         "Academic program reporting API",
		Long:          "Mirrors the university tracking project from Asana and serves dashboard metrics over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint.Run(config.NewConfig(), build.Version)
			return nil
		},
	}

	cmd.AddCommand(NewServeCommand(build))
	cmd.AddCommand(NewSyncCommand())
	cmd.AddCommand(NewVersionCommand(build))

	return cmd
}

// NewServeCommand creates the serve command.
func NewServeCommand(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default if no command given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint.Run(config.NewConfig(), build.Version)
			return nil
		},
	}
}

// NewVersionCommand creates the version command.
func NewVersionCommand(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reporting-api %s (commit %s)\n", build.Version, build.Commit)
		},
	}
}
