// Package cache reports the state of the catalog snapshot cache and can
// force a refresh of it.
package cache
