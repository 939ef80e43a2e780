package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/liberica-installer/internal/service/cleaner"
)

var (
	cleanAge time.Duration
	cleanAll bool

	// cleanCmd prunes stale artifacts from the cache directory.
	cleanCmd = &cobra.Command{
		Use:   "clean",
		Short: "Remove stale downloads and catalog snapshots",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return cleaner.Run(ctx, &cleaner.Options{
				ConfigPath: configPath,
				Age:        cleanAge,
				All:        cleanAll,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	cleanCmd.Flags().DurationVar(&cleanAge, "age", 0,
		"retention window, overrides the configured one, e.g. 168h")
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false,
		"remove every cached artifact regardless of age")

	rootCmd.AddCommand(cleanCmd)
}
