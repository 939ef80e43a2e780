package installer

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/liberica-installer/internal/config"
)

// testConfig writes a settings file pointing the cache and the install root
// at per-test directories.
func testConfig(t *testing.T) (string, *config.Config) {
	t.Helper()

	cfg := config.Default()
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	cfg.InstallDir = filepath.Join(t.TempDir(), "java")
	cfg.Timeout = 5 * time.Second

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path, cfg
}

// buildArchive produces a gzipped tarball with the given files, mirroring
// the vendor archive layout of a single top-level folder.
func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buffer bytes.Buffer

	gz := gzip.NewWriter(&buffer)
	tw := tar.NewWriter(gz)

	for name, contents := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o755,
			Size: int64(len(contents)),
		}))

		_, err := tw.Write([]byte(contents))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	return buffer.Bytes()
}

func archiveServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)

	return server
}

// TestRunInstallFromURL walks the full pipeline with an explicit archive URL:
// download, extract, move into place and refresh the latest symlink.
func TestRunInstallFromURL(t *testing.T) {
	t.Parallel()

	configPath, cfg := testConfig(t)

	payload := buildArchive(t, map[string]string{
		"jdk-25.0.1+13/bin/java": "#!/bin/sh\necho java\n",
		"jdk-25.0.1+13/release":  "JAVA_VERSION=\"25.0.1\"\n",
	})
	server := archiveServer(t, payload)

	err := Run(context.Background(), &Options{
		ConfigPath: configPath,
		Version:    "25.0.1+13",
		URL:        server.URL + "/bellsoft-jdk25.0.1+13-linux-amd64.tar.gz",
	})
	require.NoError(t, err)

	destination := filepath.Join(cfg.InstallDir, "jdk-25.0.1")

	contents, err := os.ReadFile(filepath.Join(destination, "bin", "java"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "echo java")

	// Temporary artifacts are gone.
	scratches, err := filepath.Glob(filepath.Join(cfg.CacheDir, ScratchDirPattern+"*"))
	require.NoError(t, err)
	require.Empty(t, scratches)

	require.NoFileExists(t, filepath.Join(cfg.CacheDir, MarkerFilename))

	// The archive stays cached for future runs.
	require.FileExists(t, filepath.Join(cfg.CacheDir, DownloadsDirName,
		"bellsoft-jdk25.0.1+13-linux-amd64.tar.gz"))

	if runtime.GOOS != "windows" {
		target, err := os.Readlink(filepath.Join(cfg.InstallDir, "latest"))
		require.NoError(t, err)
		require.Equal(t, "jdk-25.0.1", target)
	}
}

// TestRunResumesPartialDownload picks up a leftover part file with a Range
// request instead of refetching from scratch.
func TestRunResumesPartialDownload(t *testing.T) {
	t.Parallel()

	configPath, cfg := testConfig(t)

	payload := buildArchive(t, map[string]string{
		"jdk-25.0.1+13/bin/java": "#!/bin/sh\necho java\n",
	})
	half := len(payload) / 2

	var sawRange bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Range") == fmt.Sprintf("bytes=%d-", half) {
			sawRange = true

			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write(payload[half:])

			return
		}

		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)

	// Leftover from an interrupted run.
	downloads := filepath.Join(cfg.CacheDir, DownloadsDirName)
	require.NoError(t, os.MkdirAll(downloads, 0o755))

	archiveName := "bellsoft-jdk25.0.1+13-linux-amd64.tar.gz"
	partPath := filepath.Join(downloads, archiveName+partFileSuffix)
	require.NoError(t, os.WriteFile(partPath, payload[:half], 0o644))

	err := Run(context.Background(), &Options{
		ConfigPath: configPath,
		Version:    "25.0.1+13",
		URL:        server.URL + "/" + archiveName,
	})
	require.NoError(t, err)
	require.True(t, sawRange)

	require.FileExists(t, filepath.Join(cfg.InstallDir, "jdk-25.0.1", "bin", "java"))
	require.NoFileExists(t, partPath)

	// The assembled archive matches the full payload.
	cached, err := os.ReadFile(filepath.Join(downloads, archiveName))
	require.NoError(t, err)
	require.Equal(t, payload, cached)
}

// TestRunDownloadError leaves the install root untouched when the fetch fails.
func TestRunDownloadError(t *testing.T) {
	t.Parallel()

	configPath, cfg := testConfig(t)

	err := Run(context.Background(), &Options{
		ConfigPath: configPath,
		Version:    "25.0.1+13",
		URL:        "http://127.0.0.1:1/bellsoft-jdk25.0.1+13-linux-amd64.tar.gz",
	})
	require.ErrorIs(t, err, ErrDownload)

	require.NoDirExists(t, cfg.InstallDir)
	require.NoFileExists(t, filepath.Join(cfg.CacheDir, MarkerFilename))
}

// TestRunExtractError rejects a payload that is not an archive.
func TestRunExtractError(t *testing.T) {
	t.Parallel()

	configPath, cfg := testConfig(t)
	server := archiveServer(t, []byte("certainly not an archive"))

	err := Run(context.Background(), &Options{
		ConfigPath: configPath,
		URL:        server.URL + "/bellsoft-jdk25.0.1+13-linux-amd64.tar.gz",
	})
	require.ErrorIs(t, err, ErrExtract)

	require.NoDirExists(t, cfg.InstallDir)

	scratches, err := filepath.Glob(filepath.Join(cfg.CacheDir, ScratchDirPattern+"*"))
	require.NoError(t, err)
	require.Empty(t, scratches)
}

// TestRunDestinationConflict refuses to replace an existing folder unless forced.
func TestRunDestinationConflict(t *testing.T) {
	t.Parallel()

	configPath, cfg := testConfig(t)

	destination := filepath.Join(cfg.InstallDir, "jdk-25.0.1")
	require.NoError(t, os.MkdirAll(destination, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(destination, "stale"), []byte("old"), 0o644))

	payload := buildArchive(t, map[string]string{
		"jdk-25.0.1+13/bin/java": "binary",
	})
	server := archiveServer(t, payload)

	opts := &Options{
		ConfigPath: configPath,
		Version:    "25.0.1+13",
		URL:        server.URL + "/bellsoft-jdk25.0.1+13-linux-amd64.tar.gz",
	}

	err := Run(context.Background(), opts)
	require.ErrorIs(t, err, ErrFilesystem)
	require.ErrorIs(t, err, errDestinationConflict)

	// The conflicting folder was not modified.
	require.FileExists(t, filepath.Join(destination, "stale"))

	opts.Force = true
	require.NoError(t, Run(context.Background(), opts))

	require.NoFileExists(t, filepath.Join(destination, "stale"))
	require.FileExists(t, filepath.Join(destination, "bin", "java"))
}

// TestRunVersionRequired rejects a run without a version or an explicit URL.
func TestRunVersionRequired(t *testing.T) {
	t.Parallel()

	configPath, _ := testConfig(t)

	err := Run(context.Background(), &Options{ConfigPath: configPath})
	require.ErrorIs(t, err, errVersionRequired)
}

// TestPlaceDownloadChecksum verifies the archive digest during placement.
func TestPlaceDownloadChecksum(t *testing.T) {
	t.Parallel()

	_, cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.CacheDir, DownloadsDirName), 0o755))

	source := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(source, []byte("archive bytes"), 0o644))

	target := filepath.Join(cfg.CacheDir, DownloadsDirName, "payload.bin")

	r := &runner{cfg: cfg, checksum: bytes.Repeat([]byte{0xAB}, 20)}

	err := r.placeDownload(source, target)
	require.ErrorIs(t, err, ErrDownload)

	expected, err := FileSHA1(source)
	require.NoError(t, err)

	r.checksum = expected
	require.NoError(t, r.placeDownload(source, target))

	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "archive bytes", string(contents))
}

// TestIsInstallerRunningNow honors a young marker and reclaims a stale one.
func TestIsInstallerRunningNow(t *testing.T) {
	t.Parallel()

	markerPath := filepath.Join(t.TempDir(), MarkerFilename)

	require.False(t, IsInstallerRunningNow(context.Background(), markerPath))

	// A marker within its lifetime blocks the run even when no second
	// process is visible.
	require.NoError(t, os.WriteFile(markerPath, nil, 0o644))
	require.True(t, IsInstallerRunningNow(context.Background(), markerPath))
	require.FileExists(t, markerPath)

	// Once the lifetime has passed and no second process with our executable
	// name exists, the marker belongs to a crashed run and is reclaimed.
	expired := time.Now().Add(-2 * markerLifetime)
	require.NoError(t, os.Chtimes(markerPath, expired, expired))

	require.False(t, IsInstallerRunningNow(context.Background(), markerPath))
	require.NoFileExists(t, markerPath)
}

func TestTrimArchiveExtension(t *testing.T) {
	t.Parallel()

	require.Equal(t, "bellsoft-jdk25.0.1+13-linux-amd64",
		trimArchiveExtension("bellsoft-jdk25.0.1+13-linux-amd64.tar.gz"))
	require.Equal(t, "bundle", trimArchiveExtension("bundle.zip"))
	require.Equal(t, "bundle", trimArchiveExtension("bundle.tgz"))
	require.Equal(t, "plain-folder", trimArchiveExtension("plain-folder"))
}
