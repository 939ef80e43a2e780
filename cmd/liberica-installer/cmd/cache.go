package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/liberica-installer/internal/service/cache"
)

var (
	cacheRefresh bool
	cacheOffline bool

	// cacheCmd reports the state of the catalog snapshot cache.
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Show the catalog snapshot cache state",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return cache.Run(ctx, &cache.Options{
				ConfigPath: configPath,
				Refresh:    cacheRefresh,
				Offline:    cacheOffline,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	cacheCmd.Flags().BoolVar(&cacheRefresh, "refresh", false,
		"fetch a new catalog snapshot before reporting")
	cacheCmd.Flags().BoolVar(&cacheOffline, "offline", false,
		"use only cached catalog data, never fetch")

	rootCmd.AddCommand(cacheCmd)
}
