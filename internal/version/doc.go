// Package version exposes build metadata injected at link time and a helper
// to attach a cobra `version` subcommand to a root command.
package version
