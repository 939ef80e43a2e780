package installer

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/liberica-installer/internal/config"
	"github.com/oshokin/liberica-installer/internal/domain/release"
	"github.com/oshokin/liberica-installer/internal/logger"
	"github.com/oshokin/liberica-installer/internal/repository/catalog"
)

// Options are inputs accepted by the installer entry point.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// Version is the release to install, e.g. "25.0.1+13".
	Version string
	// FolderName overrides the install folder derived from the version.
	FolderName string
	// InstallDir overrides the configured installation root.
	InstallDir string
	// URL is an explicit archive URL, bypassing release resolution.
	URL string
	// Force replaces an existing destination folder.
	Force bool
	// Offline forbids catalog fetches; only cached data is used.
	Offline bool
}

// runner holds the mutable state and helpers for a single install execution.
// Callers go through Run(ctx, *Options).
type runner struct {
	cfg      *config.Config     // Installer settings loaded from YAML.
	opts     *Options           // CLI inputs for this run.
	catalog  catalog.Repository // Release catalog source.
	platform release.Platform   // Vendor tokens for the running machine.

	resolved     *release.Release // Matching catalog entry, nil for direct URLs.
	downloadURL  string           // Where the archive is fetched from.
	checksum     []byte           // Expected SHA1, nil when unknown.
	expectedSize int64            // Expected archive size, 0 when unknown.
	folderName   string           // Destination folder under the install root.
	archivePath  string           // Downloaded archive in the cache.
	scratchDir   string           // Temporary extraction directory.
	markerPath   string           // Lock marker guarding against parallel runs.
	destination  string           // Final install path.
}

// Run executes the install pipeline and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "installer")

	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer r.cleanup(ctx)

	if err = r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Install failed", "error", err)
		return err
	}

	logger.InfoKV(ctx, "Install completed", "path", r.destination)

	return nil
}

// newRunner loads settings, prepares the cache layout and writes the lock
// marker guarding against concurrent runs.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	if strings.TrimSpace(opts.Version) == "" && opts.URL == "" {
		return nil, errVersionRequired
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.InstallDir != "" {
		cfg.InstallDir = opts.InstallDir
	}

	if opts.Offline {
		cfg.Offline = true
	}

	r := &runner{
		cfg:      cfg,
		opts:     opts,
		catalog:  catalog.NewResolver(cfg),
		platform: release.CurrentPlatform(),
	}
	r.markerPath = filepath.Join(cfg.CacheDir, MarkerFilename)

	if err = os.MkdirAll(filepath.Join(cfg.CacheDir, DownloadsDirName), config.DefaultDirPermissions); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	if IsInstallerRunningNow(ctx, r.markerPath) {
		return nil, errInstallerAlreadyRunning
	}

	marker, err := os.Create(r.markerPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	if err = marker.Close(); err != nil {
		_ = os.Remove(r.markerPath)

		return nil, fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	return r, nil
}

// run executes the pipeline for this runner instance:
// 1) Resolve the release (catalog match or deterministic direct URL).
// 2) Download the archive into the cache, verifying its checksum.
// 3) Extract it into a scratch directory.
// 4) Move the extracted tree into the destination folder.
// 5) Refresh the `latest` symlink.
// The scratch directory and lock marker are removed by cleanup regardless
// of the outcome.
func (r *runner) run(ctx context.Context) error {
	if err := r.resolveRelease(ctx); err != nil {
		return err
	}

	if err := r.downloadArchive(ctx); err != nil {
		return err
	}

	if err := r.extractArchive(ctx); err != nil {
		return err
	}

	if err := r.installTree(ctx); err != nil {
		return err
	}

	r.refreshLatestSymlink(ctx)

	return nil
}

// resolveRelease picks the download URL and the destination folder name.
// A catalog match carries the published size and SHA1; otherwise the
// deterministic vendor URL is constructed from the version.
func (r *runner) resolveRelease(ctx context.Context) error {
	r.folderName = strings.TrimSpace(r.opts.FolderName)

	if r.opts.URL != "" {
		r.downloadURL = r.opts.URL

		if r.folderName == "" {
			if r.opts.Version != "" {
				r.folderName = release.FolderName(r.opts.Version)
			} else {
				r.folderName = trimArchiveExtension(release.FilenameFromURL(r.opts.URL))
			}
		}

		logger.InfoKV(ctx, "Using explicit archive URL", "url", r.downloadURL)

		return nil
	}

	if r.folderName == "" {
		r.folderName = release.FolderName(r.opts.Version)
	}

	query := release.Query{
		Version:      r.opts.Version,
		OS:           r.platform.OS,
		Architecture: r.platform.Architecture,
		PackageType:  r.platform.Extension,
		BundleType:   "jdk",
	}

	releases, err := r.catalog.Releases(ctx, false)
	if err != nil {
		logger.WarnKV(ctx, "Catalog unavailable, falling back to the direct URL",
			"error", err)
	} else if match := r.pickRelease(releases, query); match != nil {
		r.resolved = match
		r.downloadURL = match.DownloadURL
		r.expectedSize = match.Size
		r.decodeChecksum(ctx, match.SHA1)

		logger.InfoKV(ctx, "Resolved release from catalog",
			"version", match.Version, "file", match.Filename, "lts", match.LTS)

		return nil
	} else {
		logger.WarnKV(ctx, "Release not found in catalog, falling back to the direct URL",
			"version", r.opts.Version)
	}

	r.downloadURL = release.DirectURL("", r.opts.Version, r.platform)

	logger.InfoKV(ctx, "Constructed download URL", "url", r.downloadURL)

	return nil
}

// pickRelease returns the first query match with the right bitness.
func (r *runner) pickRelease(releases []release.Release, query release.Query) *release.Release {
	for _, candidate := range release.Filter(releases, query) {
		if candidate.Bitness == r.platform.Bitness && candidate.DownloadURL != "" {
			return &candidate
		}
	}

	return nil
}

// decodeChecksum stores the expected digest; a malformed one only disables verification.
func (r *runner) decodeChecksum(ctx context.Context, hexDigest string) {
	if hexDigest == "" {
		return
	}

	checksum, err := hex.DecodeString(hexDigest)
	if err != nil {
		logger.WarnKV(ctx, "Ignoring malformed catalog checksum", "sha1", hexDigest)

		return
	}

	r.checksum = checksum
}

// trimArchiveExtension strips known archive suffixes from a file name.
func trimArchiveExtension(filename string) string {
	for _, suffix := range []string{".tar.gz", ".tgz", ".zip"} {
		if trimmed, found := strings.CutSuffix(filename, suffix); found {
			return trimmed
		}
	}

	return filename
}

// cleanup removes temporary artifacts and the running marker.
// Failures here are logged, never fatal.
func (r *runner) cleanup(ctx context.Context) {
	if r.scratchDir != "" {
		if err := os.RemoveAll(r.scratchDir); err != nil {
			logger.WarnKV(ctx, "Unable to remove scratch directory",
				"path", r.scratchDir, "error", err)
		}
	}

	if _, err := os.Stat(r.markerPath); err == nil {
		if err = os.Remove(r.markerPath); err != nil {
			logger.WarnKV(ctx, "Unable to remove install marker",
				"path", r.markerPath, "error", err)
		}
	}
}
