// Package update detects whether a newer release of the installer itself
// has been published. Every failure degrades to "unknown"; nothing here may
// abort or hold up an installation.
package update

import (
	"context"
	"strings"
	"time"

	"github.com/soda-framework/installer/internal/logger"
	"github.com/soda-framework/installer/internal/semver"
)

// LatestKey is the cache key holding the newest known release.
const LatestKey = "latest-version"

// Defaults for the cache sweep performed when a Checker is built.
const (
	DefaultGCMaxAge   = 24 * time.Hour
	DefaultGCMaxBytes = 1024
)

// Cache is the key/value store the checker reads through.
type Cache interface {
	Read(key string) (string, bool)
	Write(key, value string) error
}

// collector is implemented by caches that support garbage collection.
type collector interface {
	GC(maxAge time.Duration, maxBytes int64) error
}

// Status compares the running release with the newest known one.
// Latest is empty when no newer release is known.
type Status struct {
	Current string
	Latest  string
}

// Outdated reports whether Latest is strictly newer than Current.
func (s Status) Outdated() bool {
	if s.Latest == "" {
		return false
	}
	latest, err := semver.ParseVersion(s.Latest)
	if err != nil {
		return false
	}
	current, err := semver.ParseVersion(s.Current)
	if err != nil {
		return false
	}
	return semver.Compare(latest, current) > 0
}

// Options configure a Checker. Cache may be nil to disable caching.
type Options struct {
	Module     string
	Cache      Cache
	Index      Index
	Manifest   Manifest
	GCMaxAge   time.Duration
	GCMaxBytes int64
}

// Checker looks up the newest installer release, cache first.
type Checker struct {
	module   string
	cache    Cache
	index    Index
	manifest Manifest
}

// New builds a Checker. When caching is enabled the cache is swept once here.
func New(opts Options) *Checker {
	if opts.Cache != nil {
		maxAge, maxBytes := opts.GCMaxAge, opts.GCMaxBytes
		if maxAge <= 0 {
			maxAge = DefaultGCMaxAge
		}
		if maxBytes <= 0 {
			maxBytes = DefaultGCMaxBytes
		}
		if gc, ok := opts.Cache.(collector); ok {
			if err := gc.GC(maxAge, maxBytes); err != nil {
				logger.Debug("[DEBUG] Cache garbage collection failed: %v\n", err)
			}
		}
	}

	manifest := opts.Manifest
	if manifest == nil {
		manifest = BuildInfoManifest{}
	}
	return &Checker{module: opts.Module, cache: opts.Cache, index: opts.Index, manifest: manifest}
}

// Run checks the installed release of the installer. The boolean is false
// when the installer's own version could not be determined.
func (c *Checker) Run(ctx context.Context) (Status, bool) {
	current, ok := c.manifest.InstalledVersion(c.module)
	if !ok {
		logger.Debug("[DEBUG] %s not found in the local manifest; skipping update check\n", c.module)
		return Status{}, false
	}
	return c.Check(ctx, current), true
}

// Check returns the newest release known for current, reading the cache
// first and querying the index only on a miss.
func (c *Checker) Check(ctx context.Context, current string) Status {
	status := Status{Current: current}

	if c.cache != nil {
		if latest, ok := c.cache.Read(LatestKey); ok {
			logger.Debug("[DEBUG] Latest installer release %s read from cache\n", latest)
			status.Latest = latest
			return status
		}
	}
	if c.index == nil {
		return status
	}

	newer, err := semver.ParseConstraint(">" + strings.TrimPrefix(current, "v"))
	if err != nil {
		logger.Debug("[DEBUG] Cannot compare installer release %q: %v\n", current, err)
		return status
	}

	latest, found, err := c.index.MostRecentSatisfying(ctx, c.module, newer)
	if err != nil {
		logger.Debug("[DEBUG] Update check failed: %v\n", err)
		return status
	}
	if !found {
		return status
	}

	status.Latest = latest.String()
	if c.cache != nil {
		if err := c.cache.Write(LatestKey, status.Latest); err != nil {
			logger.Debug("[DEBUG] Failed to cache latest release: %v\n", err)
		}
	}
	return status
}

// Report prints the out-of-date notice when status is outdated and says nothing otherwise.
func Report(status Status, module string) {
	if !status.Outdated() {
		return
	}
	logger.Alert("Your version of Soda Installer is out of date!")
	logger.Alert("Please update with " + logger.Emphasize("go install "+module+"@latest"))
	logger.Info("Your version: %s\n", logger.Emphasize(status.Current))
	logger.Info("Current version: %s\n", logger.Emphasize(status.Latest))
}
