// Package config defines installer settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the catalog endpoint, cache and install directories,
// timeouts and retention settings. A missing settings file yields defaults.
package config
