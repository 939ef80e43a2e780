package releases

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/oshokin/liberica-installer/internal/config"
	"github.com/oshokin/liberica-installer/internal/domain/release"
	"github.com/oshokin/liberica-installer/internal/logger"
	"github.com/oshokin/liberica-installer/internal/repository/catalog"
)

// Options are inputs accepted by the release listing entry point.
// Empty filter fields match everything.
type Options struct {
	// ConfigPath is the optional path to settings YAML file.
	ConfigPath string
	// Version narrows the listing to an exact version string.
	Version string
	// FeatureVersion narrows the listing to a Java feature release, e.g. 21.
	FeatureVersion int
	// OS is the vendor operating system token (linux, macos, windows, ...).
	OS string
	// Architecture is the vendor CPU family token (x86, arm, ppc, ...).
	Architecture string
	// PackageType is the archive format (tar.gz, zip, ...).
	PackageType string
	// BundleType distinguishes jdk and jre bundles.
	BundleType string
	// Refresh forces a catalog fetch even when a fresh snapshot exists.
	Refresh bool
	// Offline forbids catalog fetches; only cached data is used.
	Offline bool
	// Out receives the rendered table. Defaults to standard output.
	Out io.Writer
}

// Run prints the catalog releases matching the options as a table.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "releases")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.Offline {
		cfg.Offline = true
	}

	if err = os.MkdirAll(cfg.CacheDir, config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("prepare cache directory: %w", err)
	}

	all, err := catalog.NewResolver(cfg).Releases(ctx, opts.Refresh)
	if err != nil {
		return err
	}

	matched := release.Filter(all, release.Query{
		Version:        opts.Version,
		FeatureVersion: opts.FeatureVersion,
		OS:             opts.OS,
		Architecture:   opts.Architecture,
		PackageType:    opts.PackageType,
		BundleType:     opts.BundleType,
	})
	if len(matched) == 0 {
		logger.Info(ctx, "No releases match the requested filters")

		return nil
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return render(out, matched)
}

// render writes the releases as an aligned table, newest first.
func render(out io.Writer, releases []release.Release) error {
	table := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(table, "VERSION\tOS\tARCH\tBITS\tTYPE\tLTS\tFILE")

	for _, r := range releases {
		lts := ""
		if r.LTS {
			lts = "yes"
		}

		fmt.Fprintf(table, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.Version, r.OS, r.Architecture, r.Bitness, r.PackageType, lts, r.Filename)
	}

	return table.Flush()
}
