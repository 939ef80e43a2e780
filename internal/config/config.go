package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the installer settings shared by all subcommands.
type Config struct {
	// CatalogURL is the vendor endpoint listing published releases.
	CatalogURL string `yaml:"catalog_url"`
	// CacheDir is the working directory for API caches, downloads and scratch space.
	CacheDir string `yaml:"cache_dir"`
	// InstallDir is the root directory release folders are installed into.
	InstallDir string `yaml:"install_dir"`
	// Timeout is the duration for catalog and download requests.
	Timeout time.Duration `yaml:"timeout"`
	// Offline forbids network access; only cached catalog data is used.
	Offline bool `yaml:"offline"`
	// VerifyChecksum enables SHA1 verification of downloaded archives.
	VerifyChecksum bool `yaml:"verify_checksum"`
	// KeepCaches is how many dated catalog cache files are retained.
	KeepCaches int `yaml:"keep_caches"`
	// CleanupAge is the age after which downloads and caches are pruned.
	CleanupAge time.Duration `yaml:"cleanup_age"`
}

const (
	// DefaultConfigFilename is the default filename for installer settings.
	DefaultConfigFilename = "liberica-installer-settings.yaml"

	// DefaultCatalogURL is the vendor release catalog endpoint.
	DefaultCatalogURL = "https://api.bell-sw.com/v1/liberica/releases"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Minute

	// DefaultKeepCaches is the default number of retained catalog caches.
	DefaultKeepCaches = 3

	// DefaultCleanupAge is the default retention window for cached files.
	DefaultCleanupAge = 7 * 24 * time.Hour

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// DefaultDirPermissions is the default permission for created directories.
	DefaultDirPermissions = 0o755
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
)

// Default returns a configuration populated with defaults.
func Default() *Config {
	return &Config{
		CatalogURL:     DefaultCatalogURL,
		CacheDir:       filepath.Join(os.TempDir(), "liberica-installer"),
		InstallDir:     defaultInstallDir(),
		Timeout:        DefaultTimeout,
		VerifyChecksum: true,
		KeepCaches:     DefaultKeepCaches,
		CleanupAge:     DefaultCleanupAge,
	}
}

// defaultInstallDir places releases under the user's home directory,
// falling back to a relative folder when the home cannot be resolved.
func defaultInstallDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Java"
	}

	return filepath.Join(home, "Java")
}

// Load reads configuration from the provided path and validates essential fields.
// A missing settings file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	cfg := Default()

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	defaults := Default()

	if cfg.CatalogURL == "" {
		cfg.CatalogURL = defaults.CatalogURL
	}

	if _, err := url.ParseRequestURI(cfg.CatalogURL); err != nil {
		return fmt.Errorf("invalid catalog URL: %w", err)
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = defaults.CacheDir
	}

	if cfg.InstallDir == "" {
		cfg.InstallDir = defaults.InstallDir
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	if cfg.KeepCaches <= 0 {
		cfg.KeepCaches = defaults.KeepCaches
	}

	if cfg.CleanupAge <= 0 {
		cfg.CleanupAge = defaults.CleanupAge
	}

	return nil
}
