package installer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/liberica-installer/internal/domain/release"
	"github.com/oshokin/liberica-installer/internal/logger"
	"github.com/oshokin/liberica-installer/internal/version"
)

// downloadArchive fetches the archive into the downloads cache, reusing an
// already verified file when possible. The destination root is not touched.
func (r *runner) downloadArchive(ctx context.Context) error {
	filename := release.FilenameFromURL(r.downloadURL)
	if r.resolved != nil && r.resolved.Filename != "" {
		filename = r.resolved.Filename
	}

	target := filepath.Join(r.cfg.CacheDir, DownloadsDirName, filename)
	r.archivePath = target

	if r.reusableDownload(ctx, target) {
		return nil
	}

	// A part file from an interrupted run is resumed with a Range request.
	partPath := target + partFileSuffix

	var offset int64
	if info, err := os.Stat(partPath); err == nil {
		offset = info.Size()
	}

	logger.InfoKV(ctx, "Downloading archive", "url", r.downloadURL, "path", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.downloadURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	req.Header.Set("User-Agent", "liberica-installer/"+version.Short())

	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	httpClient := &http.Client{Timeout: r.cfg.Timeout}

	response, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	switch response.StatusCode {
	case http.StatusOK:
		// The server ignored the range; start over.
		offset = 0
	case http.StatusPartialContent:
		logger.InfoKV(ctx, "Resuming interrupted download", "path", partPath, "offset", offset)
	default:
		return fmt.Errorf("%w: %s: %s", ErrDownload, r.downloadURL, response.Status)
	}

	flags := os.O_WRONLY | os.O_CREATE
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	part, err := os.OpenFile(filepath.Clean(partPath), flags, downloadFileMode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	written, err := io.Copy(part, response.Body)

	closeErr := part.Close()

	// The part file stays behind so the next run can resume it.
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	if closeErr != nil {
		return fmt.Errorf("%w: %w", ErrFilesystem, closeErr)
	}

	total := offset + written
	if r.expectedSize > 0 && total != r.expectedSize {
		logger.WarnKV(ctx, "Archive size differs from catalog",
			"expected", r.expectedSize, "actual", total)
	}

	if err = r.placeDownload(partPath, target); err != nil {
		// Verification failed, so the accumulated bytes are worthless.
		_ = os.Remove(partPath)

		return err
	}

	_ = os.Remove(partPath)

	logger.InfoKV(ctx, "Archive downloaded", "path", target, "bytes", total)

	return nil
}

// reusableDownload reports whether an existing download may be served from
// the cache. Without a known size or checksum the file is fetched again.
func (r *runner) reusableDownload(ctx context.Context, target string) bool {
	info, err := os.Stat(target)
	if err != nil {
		return false
	}

	if r.expectedSize > 0 && info.Size() != r.expectedSize {
		return false
	}

	if r.cfg.VerifyChecksum && len(r.checksum) > 0 {
		actual, err := FileSHA1(target)
		if err != nil || !bytes.Equal(actual, r.checksum) {
			logger.WarnKV(ctx, "Existing download fails verification, refetching",
				"path", target)

			return false
		}

		logger.InfoKV(ctx, "Reusing verified download", "path", target)

		return true
	}

	if r.expectedSize > 0 {
		logger.InfoKV(ctx, "Reusing existing download", "path", target)

		return true
	}

	return false
}

// placeDownload moves the fetched bytes into the downloads cache atomically,
// verifying the catalog checksum when it is known. A mismatch leaves any
// previous archive in place.
func (r *runner) placeDownload(source, target string) error {
	data, err := os.Open(filepath.Clean(source))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	defer func() {
		_ = data.Close()
	}()

	// go-update replaces an existing target; seed an empty one on first download.
	if _, err = os.Stat(target); err != nil && os.IsNotExist(err) {
		seed, seedErr := os.Create(target)
		if seedErr != nil {
			return fmt.Errorf("%w: %w", ErrFilesystem, seedErr)
		}

		if seedErr = seed.Close(); seedErr != nil {
			return fmt.Errorf("%w: %w", ErrFilesystem, seedErr)
		}
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: downloadFileMode,
	}
	if r.cfg.VerifyChecksum && len(r.checksum) > 0 {
		options.Checksum = r.checksum
		options.Hash = DefaultChecksumFunction
	}

	if err = goupdate.Apply(data, options); err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	oldFileName := target + ".old"
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	return nil
}
