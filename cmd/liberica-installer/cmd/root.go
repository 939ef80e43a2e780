package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/liberica-installer/internal/config"
	"github.com/oshokin/liberica-installer/internal/logger"
	"github.com/oshokin/liberica-installer/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// logLevel is the minimum severity of printed messages.
	logLevel string

	// rootCmd represents the base command shared by every subcommand.
	rootCmd = &cobra.Command{
		Use:   "liberica-installer",
		Short: "Download and install JDK releases",
		Long: "liberica-installer resolves JDK releases against the vendor catalog,\n" +
			"downloads and verifies their archives and installs them under a common root.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
	}
)

// Execute runs the liberica-installer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c",
		config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l",
		logger.Level().String(), "logging level (debug, info, warn, error, fatal)")
}
