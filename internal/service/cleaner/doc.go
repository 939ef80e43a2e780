// Package cleaner prunes the cache directory: downloaded archives past the
// retention window, aged catalog snapshots and scratch directories orphaned
// by crashed install runs.
package cleaner
