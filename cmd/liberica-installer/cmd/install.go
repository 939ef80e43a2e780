package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/liberica-installer/internal/service/installer"
)

var (
	installFolderName string
	installDir        string
	installURL        string
	installForce      bool
	installOffline    bool

	// installCmd downloads, verifies and installs a single release.
	installCmd = &cobra.Command{
		Use:   "install [version]",
		Short: "Download and install a JDK release",
		Long: "Resolve a release against the vendor catalog (or use an explicit\n" +
			"archive URL), download and verify its archive and install it under\n" +
			"the configured root. Example: liberica-installer install 25.0.1+13",
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &installer.Options{
				ConfigPath: configPath,
				FolderName: installFolderName,
				InstallDir: installDir,
				URL:        installURL,
				Force:      installForce,
				Offline:    installOffline,
			}
			if len(args) > 0 {
				options.Version = args[0]
			}

			return installer.Run(ctx, options)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	installCmd.Flags().StringVar(&installFolderName, "folder-name", "",
		"destination folder name, derived from the version by default")
	installCmd.Flags().StringVar(&installDir, "install-dir", "",
		"installation root, overrides the configured one")
	installCmd.Flags().StringVar(&installURL, "url", "",
		"explicit archive URL, bypasses catalog resolution")
	installCmd.Flags().BoolVar(&installForce, "force", false,
		"replace the destination folder when it already exists")
	installCmd.Flags().BoolVar(&installOffline, "offline", false,
		"use only cached catalog data, never fetch")

	rootCmd.AddCommand(installCmd)
}
