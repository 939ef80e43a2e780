package cleaner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/liberica-installer/internal/config"
	"github.com/oshokin/liberica-installer/internal/logger"
	"github.com/oshokin/liberica-installer/internal/repository/catalog"
	"github.com/oshokin/liberica-installer/internal/service/installer"
)

// Options are inputs accepted by the cleanup entry point.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// Age overrides the configured retention window. Zero keeps the configured value.
	Age time.Duration
	// All removes every cached artifact regardless of age.
	All bool
}

// Run prunes stale artifacts from the cache directory: downloaded archives,
// catalog snapshots and scratch directories left behind by crashed runs.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "cleaner")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	age := cfg.CleanupAge
	if opts.Age > 0 {
		age = opts.Age
	}

	cutoff := time.Now().Add(-age)
	if opts.All {
		cutoff = time.Now()
	}

	removed := pruneDownloads(ctx, filepath.Join(cfg.CacheDir, installer.DownloadsDirName), cutoff)
	removed += pruneScratch(ctx, cfg.CacheDir)
	removed += catalog.NewCache(cfg.CacheDir, cfg.KeepCaches).Prune(cutoff)

	logger.InfoKV(ctx, "Cleanup completed", "removed", removed, "cache_dir", cfg.CacheDir)

	return nil
}

// pruneDownloads removes archives older than the cutoff.
func pruneDownloads(ctx context.Context, dir string, cutoff time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.WarnKV(ctx, "Unable to read downloads directory", "path", dir, "error", err)
		}

		return 0
	}

	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err = os.Remove(path); err != nil {
			logger.WarnKV(ctx, "Unable to remove cached archive", "path", path, "error", err)

			continue
		}

		logger.DebugKV(ctx, "Removed cached archive", "path", path)

		removed++
	}

	return removed
}

// pruneScratch removes extraction directories orphaned by crashed runs.
// Age does not matter here: a scratch directory with no marker next to it
// belongs to no live install.
func pruneScratch(ctx context.Context, cacheDir string) int {
	if _, err := os.Stat(filepath.Join(cacheDir, installer.MarkerFilename)); err == nil {
		// An install is running; its scratch directory is live.
		return 0
	}

	matches, err := filepath.Glob(filepath.Join(cacheDir, installer.ScratchDirPattern+"*"))
	if err != nil {
		return 0
	}

	removed := 0

	for _, path := range matches {
		if err = os.RemoveAll(path); err != nil {
			logger.WarnKV(ctx, "Unable to remove scratch directory", "path", path, "error", err)

			continue
		}

		removed++
	}

	return removed
}
