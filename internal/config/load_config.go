package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/soda-framework/installer/internal/installer"
	"github.com/soda-framework/installer/internal/update"
)

// ProductName scopes the cache directory inside the system temp directory.
const ProductName = "soda-framework"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Release: "^0.9",
		Package: "soda-framework/cms",
		Framework: Framework{
			ArchiveURL:    installer.DefaultArchiveURL,
			ArchiveFormat: "zip",
		},
		Update: Update{
			Module:       "github.com/soda-framework/installer",
			Proxy:        update.DefaultProxy,
			CacheTTL:     update.DefaultGCMaxAge,
			CacheMaxSize: "1KiB",
			Timeout:      5 * time.Second,
		},
	}
}

// LoadConfig reads configFile over the defaults. An empty path returns the defaults.
func LoadConfig(configFile string) (Config, error) {
	cfg := Default()
	if configFile == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(configFile)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read %s: %w", configFile, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal %s: %w", configFile, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", configFile, err)
	}
	return cfg, nil
}

// Validate rejects configurations the installer cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Release == "" {
		errs = append(errs, errors.New("release must not be empty"))
	}
	if c.Package == "" {
		errs = append(errs, errors.New("package must not be empty"))
	}
	if !installer.SupportsFormat(c.Framework.ArchiveFormat) {
		errs = append(errs, fmt.Errorf("framework.archive_format %q is not one of %v", c.Framework.ArchiveFormat, installer.Formats))
	}
	if c.Update.Module == "" {
		errs = append(errs, errors.New("update.module must not be empty"))
	}
	if c.Update.CacheTTL <= 0 {
		errs = append(errs, errors.New("update.cache_ttl must be positive"))
	}
	if _, err := c.Update.CacheMaxBytes(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CacheMaxBytes parses CacheMaxSize ("1KiB", "4 kB", "1024").
func (u Update) CacheMaxBytes() (int64, error) {
	n, err := humanize.ParseBytes(u.CacheMaxSize)
	if err != nil {
		return 0, fmt.Errorf("update.cache_max_size %q: %w", u.CacheMaxSize, err)
	}
	return int64(n), nil
}

// CacheDir is the update cache location; it is not configurable.
func CacheDir() string {
	return filepath.Join(os.TempDir(), ProductName)
}
