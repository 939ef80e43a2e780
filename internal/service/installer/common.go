package installer

import (
	"context"
	"crypto"
	"crypto/sha1" //nolint:gosec // The vendor publishes SHA1 digests for its archives.
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/liberica-installer/internal/logger"
)

const (
	// MarkerFilename marks that an install is running right now to avoid parallel execution.
	MarkerFilename = "liberica-installer-marker.bin"

	// DownloadsDirName is the downloads folder inside the cache directory.
	DownloadsDirName = "downloads"

	// ScratchDirPattern names the temporary extraction directories.
	ScratchDirPattern = "scratch-"

	// markerLifetime is the period after which a stale install marker may be reclaimed.
	markerLifetime = 30 * time.Minute

	// partFileSuffix marks a download in progress, kept between runs for resumption.
	partFileSuffix = ".part"

	// DefaultChecksumFunction matches the digests published in the vendor catalog.
	DefaultChecksumFunction crypto.Hash = crypto.SHA1

	// downloadFileMode is used for archives placed into the downloads cache.
	downloadFileMode os.FileMode = 0o644
)

// Error kinds surfaced by the install pipeline. Wrapped causes stay
// reachable through errors.Is/errors.As.
var (
	// ErrDownload covers network failures, error statuses and checksum mismatches.
	ErrDownload = errors.New("download failed")
	// ErrExtract covers corrupt and unsupported archives.
	ErrExtract = errors.New("archive extraction failed")
	// ErrFilesystem covers destination conflicts and local I/O failures.
	ErrFilesystem = errors.New("filesystem operation failed")

	errInstallerAlreadyRunning = errors.New("the installer is already running")
	errDestinationConflict     = errors.New("destination folder already exists, use --force to replace it")
	errVersionRequired         = errors.New("a version or an explicit archive URL must be provided")
)

// IsInstallerRunningNow checks presence of a marker file and attempts recovery
// when it was left behind by a crashed run. A marker younger than its lifetime
// always wins; an older one is reclaimed only when no other installer process
// is alive.
func IsInstallerRunningNow(ctx context.Context, markerPath string) bool {
	logger.Debug(ctx, "Checking for the presence of an install marker")

	fileInfo, err := os.Stat(markerPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false
		}

		logger.Infof(ctx, "Unable to read install marker: %v", err)

		return false
	}

	if time.Since(fileInfo.ModTime()) <= markerLifetime {
		return true
	}

	logger.Info(ctx, "The install marker is too old, attempting cleanup")

	if anotherInstallerAlive() {
		return true
	}

	logger.InfoKV(ctx, "Removing stale install marker", "modified", fileInfo.ModTime())

	if err = os.Remove(markerPath); err != nil {
		return true
	}

	return false
}

// anotherInstallerAlive reports whether a second process with our executable
// name is running. When the process list cannot be inspected the marker is
// assumed to be owned by a live run.
func anotherInstallerAlive() bool {
	executablePath, err := os.Executable()
	if err != nil {
		return true
	}

	executableName := filepath.Base(executablePath)

	processList, err := ps.Processes()
	if err != nil {
		return true
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == executableName {
			return true
		}
	}

	return false
}

// FileSHA1 returns the digest of a file using DefaultChecksumFunction.
func FileSHA1(path string) ([]byte, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := sha1.New() //nolint:gosec // See DefaultChecksumFunction.
	if _, err = io.Copy(hasher, file); err != nil {
		return nil, err
	}

	return hasher.Sum(nil), nil
}
