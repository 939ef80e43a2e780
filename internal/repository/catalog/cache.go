package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oshokin/liberica-installer/internal/config"
	"github.com/oshokin/liberica-installer/internal/domain/release"
)

const (
	// cacheFilePrefix and cacheFileSuffix frame dated catalog cache file names.
	cacheFilePrefix = "api-cache-"
	cacheFileSuffix = ".json"

	// cacheTimeLayout encodes the fetch time into the cache file name,
	// so lexical order equals chronological order.
	cacheTimeLayout = "20060102_150405"
)

// ErrNoCache is returned when no catalog cache file exists yet.
var ErrNoCache = errors.New("no catalog cache")

// Cache stores dated catalog snapshots as JSON files in a directory.
type Cache struct {
	// dir is the directory holding cache files.
	dir string
	// keep is how many snapshots survive pruning.
	keep int
}

// NewCache creates a snapshot store in the provided directory.
func NewCache(dir string, keep int) *Cache {
	if keep <= 0 {
		keep = config.DefaultKeepCaches
	}

	return &Cache{
		dir:  dir,
		keep: keep,
	}
}

// Entry describes one cached catalog snapshot.
type Entry struct {
	// Path is the cache file location.
	Path string
	// Age is how long ago the snapshot was written.
	Age time.Duration
}

// Newest returns the most recent snapshot or ErrNoCache.
func (c *Cache) Newest() (*Entry, error) {
	names, err := c.list()
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return nil, ErrNoCache
	}

	newest := filepath.Join(c.dir, names[0])

	info, err := os.Stat(newest)
	if err != nil {
		return nil, fmt.Errorf("stat cache file: %w", err)
	}

	return &Entry{
		Path: newest,
		Age:  time.Since(info.ModTime()),
	}, nil
}

// Load decodes a snapshot file.
func (c *Cache) Load(path string) ([]release.Release, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var releases []release.Release
	if err = json.Unmarshal(contents, &releases); err != nil {
		return nil, fmt.Errorf("decode cache file: %w", err)
	}

	return releases, nil
}

// Save writes a new dated snapshot and prunes snapshots beyond the retention count.
func (c *Cache) Save(releases []release.Release, now time.Time) (string, error) {
	if err := os.MkdirAll(c.dir, config.DefaultDirPermissions); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	data, err := json.MarshalIndent(releases, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode catalog: %w", err)
	}

	name := cacheFilePrefix + now.Format(cacheTimeLayout) + cacheFileSuffix
	path := filepath.Join(c.dir, name)

	if err = os.WriteFile(path, data, config.DefaultFilePermissions); err != nil {
		return "", fmt.Errorf("write cache file: %w", err)
	}

	c.prune()

	return path, nil
}

// Prune removes snapshots beyond the retention count that are older than
// cutoff. The count is at least one, so the newest snapshot always survives
// and offline mode keeps working. It returns the number of removed files.
func (c *Cache) Prune(cutoff time.Time) int {
	names, err := c.list()
	if err != nil {
		return 0
	}

	removed := 0

	for i, name := range names {
		if i < c.keep {
			continue
		}

		path := filepath.Join(c.dir, name)

		info, err := os.Stat(path)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		if os.Remove(path) == nil {
			removed++
		}
	}

	return removed
}

// prune enforces the retention count regardless of age. Failures are ignored:
// a stale snapshot is harmless and will be retried next save.
func (c *Cache) prune() {
	names, err := c.list()
	if err != nil {
		return
	}

	for i, name := range names {
		if i < c.keep {
			continue
		}

		_ = os.Remove(filepath.Join(c.dir, name))
	}
}

// list returns cache file names, newest first.
func (c *Cache) list() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() &&
			strings.HasPrefix(name, cacheFilePrefix) &&
			strings.HasSuffix(name, cacheFileSuffix) {
			names = append(names, name)
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	return names, nil
}
