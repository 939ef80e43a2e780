package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/liberica-installer/internal/config"
	"github.com/oshokin/liberica-installer/internal/domain/release"
	"github.com/oshokin/liberica-installer/internal/logger"
)

// DefaultMaxCacheAge is how long a catalog snapshot is served without refetching.
const DefaultMaxCacheAge = 24 * time.Hour

// errOfflineNoCache is returned in offline mode when no snapshot exists.
var errOfflineNoCache = errors.New("offline mode requires a cached catalog")

// Repository provides the release catalog regardless of where it comes from.
type Repository interface {
	Releases(ctx context.Context, refresh bool) ([]release.Release, error)
}

// Resolver combines the HTTP client with the snapshot cache:
// fresh snapshots short-circuit the network, offline mode requires one,
// and fetch failures fall back to a stale snapshot when available.
type Resolver struct {
	client  *Client
	cache   *Cache
	offline bool
	maxAge  time.Duration
}

// NewResolver builds a Resolver from installer settings.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{
		client:  NewClient(cfg.CatalogURL, cfg.Timeout),
		cache:   NewCache(cfg.CacheDir, cfg.KeepCaches),
		offline: cfg.Offline,
		maxAge:  DefaultMaxCacheAge,
	}
}

// Cache exposes the underlying snapshot store.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// Releases implements Repository.
func (r *Resolver) Releases(ctx context.Context, refresh bool) ([]release.Release, error) {
	newest, err := r.cache.Newest()
	if err != nil && !errors.Is(err, ErrNoCache) {
		return nil, err
	}

	if !refresh && newest != nil && newest.Age < r.maxAge {
		logger.InfoKV(ctx, "Using cached catalog",
			"path", newest.Path, "age", newest.Age.Round(time.Minute))

		return r.cache.Load(newest.Path)
	}

	if r.offline {
		if newest == nil {
			return nil, errOfflineNoCache
		}

		logger.InfoKV(ctx, "Offline mode, using cached catalog", "path", newest.Path)

		return r.cache.Load(newest.Path)
	}

	logger.Info(ctx, "Fetching release catalog")

	releases, err := r.client.Fetch(ctx)
	if err != nil {
		if newest != nil {
			logger.WarnKV(ctx, "Catalog fetch failed, falling back to stale cache",
				"error", err, "path", newest.Path)

			return r.cache.Load(newest.Path)
		}

		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	path, err := r.cache.Save(releases, time.Now())
	if err != nil {
		// The fetched data is still usable, so only warn.
		logger.WarnKV(ctx, "Unable to cache catalog", "error", err)
	} else {
		logger.InfoKV(ctx, "Catalog cached", "path", path, "entries", len(releases))
	}

	return releases, nil
}
