package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/liberica-installer/internal/domain/release"
	"github.com/oshokin/liberica-installer/internal/service/releases"
)

var (
	releasesVersion     string
	releasesFeature     int
	releasesOS          string
	releasesArch        string
	releasesPackageType string
	releasesBundleType  string
	releasesRefresh     bool
	releasesOffline     bool

	// releasesCmd lists the catalog releases, filtered to this machine by default.
	releasesCmd = &cobra.Command{
		Use:   "releases",
		Short: "List JDK releases from the vendor catalog",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return releases.Run(ctx, &releases.Options{
				ConfigPath:     configPath,
				Version:        releasesVersion,
				FeatureVersion: releasesFeature,
				OS:             releasesOS,
				Architecture:   releasesArch,
				PackageType:    releasesPackageType,
				BundleType:     releasesBundleType,
				Refresh:        releasesRefresh,
				Offline:        releasesOffline,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	platform := release.CurrentPlatform()

	releasesCmd.Flags().StringVar(&releasesVersion, "version", "",
		"show only this exact version")
	releasesCmd.Flags().IntVar(&releasesFeature, "feature-version", 0,
		"show only this feature release, e.g. 21")
	releasesCmd.Flags().StringVar(&releasesOS, "os", platform.OS,
		"operating system filter, empty matches all")
	releasesCmd.Flags().StringVar(&releasesArch, "arch", platform.Architecture,
		"architecture filter, empty matches all")
	releasesCmd.Flags().StringVar(&releasesPackageType, "package-type", platform.Extension,
		"package type filter, empty matches all")
	releasesCmd.Flags().StringVar(&releasesBundleType, "bundle-type", "jdk",
		"bundle type filter (jdk, jre), empty matches all")
	releasesCmd.Flags().BoolVar(&releasesRefresh, "refresh", false,
		"fetch the catalog even when a fresh snapshot exists")
	releasesCmd.Flags().BoolVar(&releasesOffline, "offline", false,
		"use only cached catalog data, never fetch")

	rootCmd.AddCommand(releasesCmd)
}
