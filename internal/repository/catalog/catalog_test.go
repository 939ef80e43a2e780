package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/liberica-installer/internal/config"
	"github.com/oshokin/liberica-installer/internal/domain/release"
)

func testReleases() []release.Release {
	return []release.Release{
		{Version: "25.0.1+13", FeatureVersion: 25, OS: "linux", Architecture: "x86", Bitness: 64, PackageType: "tar.gz", BundleType: "jdk", Filename: "bellsoft-jdk25.0.1+13-linux-amd64.tar.gz"},
		{Version: "21.0.2+14", FeatureVersion: 21, OS: "linux", Architecture: "x86", Bitness: 64, PackageType: "tar.gz", BundleType: "jdk", LTS: true},
	}
}

func catalogServer(t *testing.T, hits *int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits != nil {
			*hits++
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"version":"25.0.1+13","featureVersion":25,"os":"linux",` +
			`"architecture":"x86","bitness":64,"packageType":"tar.gz","bundleType":"jdk",` +
			`"filename":"bellsoft-jdk25.0.1+13-linux-amd64.tar.gz","sha1":"","size":0,"LTS":false}]`))
	}))
	t.Cleanup(server.Close)

	return server
}

// TestClientFetch decodes a catalog payload and rejects error statuses.
func TestClientFetch(t *testing.T) {
	t.Parallel()

	server := catalogServer(t, nil)

	client := NewClient(server.URL, time.Second)

	releases, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, releases, 1)
	require.Equal(t, "25.0.1+13", releases[0].Version)
	require.Equal(t, 25, releases[0].FeatureVersion)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(failing.Close)

	_, err = NewClient(failing.URL, time.Second).Fetch(context.Background())
	require.ErrorIs(t, err, errBadHTTPStatus)
}

// TestCacheSaveNewestLoad round-trips snapshots and checks retention pruning.
func TestCacheSaveNewestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := NewCache(dir, 2)

	_, err := cache.Newest()
	require.ErrorIs(t, err, ErrNoCache)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		_, err = cache.Save(testReleases(), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	// Retention keeps only the two newest snapshots.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	newest, err := cache.Newest()
	require.NoError(t, err)
	require.Contains(t, newest.Path, "api-cache-20260801_120200")

	loaded, err := cache.Load(newest.Path)
	require.NoError(t, err)
	require.Equal(t, testReleases(), loaded)
}

// TestCachePrune drops aged snapshots beyond the retention count only.
func TestCachePrune(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache := NewCache(dir, 3)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	var paths []string

	for i := range 3 {
		path, err := cache.Save(testReleases(), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)

		paths = append(paths, path)
	}

	// Make the two oldest snapshots exceed any reasonable retention window.
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(paths[0], old, old))
	require.NoError(t, os.Chtimes(paths[1], old, old))

	cutoff := time.Now().Add(-24 * time.Hour)

	// Within the retention count nothing is removed, whatever the age.
	require.Zero(t, cache.Prune(cutoff))

	// Beyond it, only snapshots older than the cutoff go; the newest survives.
	removed := NewCache(dir, 1).Prune(cutoff)
	require.Equal(t, 2, removed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.FileExists(t, paths[2])
}

func resolverConfig(t *testing.T, catalogURL string) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.CatalogURL = catalogURL
	cfg.CacheDir = t.TempDir()
	cfg.Timeout = time.Second

	return cfg
}

// TestResolverFreshCache ensures a young snapshot short-circuits the network.
func TestResolverFreshCache(t *testing.T) {
	t.Parallel()

	hits := 0
	server := catalogServer(t, &hits)
	resolver := NewResolver(resolverConfig(t, server.URL))

	ctx := context.Background()

	_, err := resolver.Releases(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 1, hits)

	// Second call is served from the snapshot written by the first.
	_, err = resolver.Releases(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 1, hits)

	// Refresh forces a fetch.
	_, err = resolver.Releases(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 2, hits)
}

// TestResolverStaleFallback falls back to an expired snapshot when the fetch fails.
func TestResolverStaleFallback(t *testing.T) {
	t.Parallel()

	cfg := resolverConfig(t, "http://127.0.0.1:1/releases")
	resolver := NewResolver(cfg)

	// Seed an expired snapshot.
	path, err := resolver.Cache().Save(testReleases(), time.Now())
	require.NoError(t, err)

	old := time.Now().Add(-2 * DefaultMaxCacheAge)
	require.NoError(t, os.Chtimes(path, old, old))

	releases, err := resolver.Releases(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, testReleases(), releases)
}

// TestResolverOffline requires a snapshot in offline mode and accepts a stale one.
func TestResolverOffline(t *testing.T) {
	t.Parallel()

	cfg := resolverConfig(t, "http://127.0.0.1:1/releases")
	cfg.Offline = true
	resolver := NewResolver(cfg)

	_, err := resolver.Releases(context.Background(), false)
	require.ErrorIs(t, err, errOfflineNoCache)

	path, err := resolver.Cache().Save(testReleases(), time.Now())
	require.NoError(t, err)

	old := time.Now().Add(-2 * DefaultMaxCacheAge)
	require.NoError(t, os.Chtimes(path, old, old))

	releases, err := resolver.Releases(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, testReleases(), releases)
}
