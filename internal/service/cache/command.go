package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oshokin/liberica-installer/internal/config"
	"github.com/oshokin/liberica-installer/internal/logger"
	"github.com/oshokin/liberica-installer/internal/repository/catalog"
)

// Options are inputs accepted by the cache inspection entry point.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// Refresh fetches a new catalog snapshot before reporting.
	Refresh bool
	// Offline forbids catalog fetches; only cached data is used.
	Offline bool
	// Out receives the report. Defaults to standard output.
	Out io.Writer
}

// Run reports the state of the catalog snapshot cache and optionally
// refreshes it first.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "cache")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.Offline {
		cfg.Offline = true
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	resolver := catalog.NewResolver(cfg)

	if opts.Refresh {
		if _, err = resolver.Releases(ctx, true); err != nil {
			return err
		}
	}

	newest, err := resolver.Cache().Newest()
	if err != nil {
		if errors.Is(err, catalog.ErrNoCache) {
			fmt.Fprintf(out, "No catalog snapshots in %s\n", cfg.CacheDir)

			return nil
		}

		return err
	}

	releases, err := resolver.Cache().Load(newest.Path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Newest snapshot: %s\n", newest.Path)
	fmt.Fprintf(out, "Age:             %s\n", newest.Age.Round(time.Second))
	fmt.Fprintf(out, "Entries:         %d\n", len(releases))

	return nil
}
