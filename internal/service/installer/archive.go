package installer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/codeclysm/extract/v4"

	"github.com/oshokin/liberica-installer/internal/config"
	"github.com/oshokin/liberica-installer/internal/logger"
)

// extractArchive unpacks the downloaded archive into a scratch directory
// inside the cache. The destination root stays untouched until the archive
// is fully extracted.
func (r *runner) extractArchive(ctx context.Context) error {
	scratch, err := os.MkdirTemp(r.cfg.CacheDir, ScratchDirPattern)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	r.scratchDir = scratch

	logger.InfoKV(ctx, "Extracting archive", "path", r.archivePath)

	archive, err := os.Open(filepath.Clean(r.archivePath))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	defer func() {
		_ = archive.Close()
	}()

	if err = extract.Archive(ctx, archive, scratch, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrExtract, err)
	}

	return nil
}

// installTree moves the extracted tree into the destination folder.
// A single top-level directory in the archive becomes the destination
// itself, matching the usual vendor archive layout.
func (r *runner) installTree(ctx context.Context) error {
	entries, err := os.ReadDir(r.scratchDir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	if len(entries) == 0 {
		return fmt.Errorf("%w: the archive is empty", ErrExtract)
	}

	r.destination = filepath.Join(r.cfg.InstallDir, r.folderName)

	if err = r.clearDestination(ctx); err != nil {
		return err
	}

	if err = os.MkdirAll(r.cfg.InstallDir, config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	logger.InfoKV(ctx, "Installing", "path", r.destination)

	if len(entries) == 1 && entries[0].IsDir() {
		return moveTree(filepath.Join(r.scratchDir, entries[0].Name()), r.destination)
	}

	if err = os.MkdirAll(r.destination, config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	for _, entry := range entries {
		source := filepath.Join(r.scratchDir, entry.Name())
		if err = moveTree(source, filepath.Join(r.destination, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}

// clearDestination enforces the conflict policy: an existing destination is
// an error unless the run was forced, in which case it is replaced.
func (r *runner) clearDestination(ctx context.Context) error {
	if _, err := os.Lstat(r.destination); err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	if !r.opts.Force {
		return fmt.Errorf("%w: %w: %s", ErrFilesystem, errDestinationConflict, r.destination)
	}

	logger.WarnKV(ctx, "Replacing existing destination", "path", r.destination)

	if err := os.RemoveAll(r.destination); err != nil {
		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	return nil
}

// moveTree renames source to target, falling back to a copy across filesystem
// boundaries (the cache often lives on tmpfs).
func moveTree(source, target string) error {
	if err := os.Rename(source, target); err == nil {
		return nil
	}

	if err := copyTree(source, target); err != nil {
		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	if err := os.RemoveAll(source); err != nil {
		return fmt.Errorf("%w: %w", ErrFilesystem, err)
	}

	return nil
}

// copyTree replicates a directory tree preserving modes and symlinks.
func copyTree(source, target string) error {
	return filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relative, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}

		destination := filepath.Join(target, relative)

		info, err := entry.Info()
		if err != nil {
			return err
		}

		switch {
		case entry.IsDir():
			return os.MkdirAll(destination, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, linkErr := os.Readlink(path)
			if linkErr != nil {
				return linkErr
			}

			return os.Symlink(link, destination)
		default:
			return copyFile(path, destination, info.Mode().Perm())
		}
	})
}

func copyFile(source, target string, mode os.FileMode) error {
	in, err := os.Open(filepath.Clean(source))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(filepath.Clean(target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}

// refreshLatestSymlink points <install root>/latest at the freshly installed
// folder. Windows is skipped since symlinks need elevated rights there.
// Failures are logged, never fatal.
func (r *runner) refreshLatestSymlink(ctx context.Context) {
	if runtime.GOOS == "windows" {
		return
	}

	link := filepath.Join(r.cfg.InstallDir, "latest")

	if info, err := os.Lstat(link); err == nil {
		removeErr := os.Remove(link)
		if removeErr != nil && info.IsDir() {
			removeErr = os.RemoveAll(link)
		}

		if removeErr != nil {
			logger.WarnKV(ctx, "Unable to replace latest symlink", "path", link, "error", removeErr)

			return
		}
	}

	// Relative target keeps the link valid when the root is moved or mounted elsewhere.
	if err := os.Symlink(r.folderName, link); err != nil {
		logger.WarnKV(ctx, "Unable to create latest symlink", "path", link, "error", err)

		return
	}

	logger.InfoKV(ctx, "Updated latest symlink", "path", link, "target", r.folderName)
}
