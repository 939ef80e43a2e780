// Package catalog retrieves the vendor release catalog and persists dated
// JSON snapshots of it on disk. The Resolver decides between a fresh
// snapshot, a network fetch and a stale-snapshot fallback, and honors
// offline mode.
package catalog
