package config

import "time"

// Config is the installer configuration: compiled defaults overlaid with an optional YAML file.
type Config struct {
	Release   string    `yaml:"release"`   // CMS release constraint installed when --release is not given
	Package   string    `yaml:"package"`   // Composer package required into the new project
	Framework Framework `yaml:"framework"` // Where framework release archives come from
	Update    Update    `yaml:"update"`    // Self-update check settings
}

// Framework describes where the base framework archives are fetched.
// - ArchiveURL: base URL the archive file name is appended to.
// - ArchiveFormat: archive extension, e.g. "zip" or "tar.gz".
type Framework struct {
	ArchiveURL    string `yaml:"archive_url"`
	ArchiveFormat string `yaml:"archive_format"`
}

// Update configures the installer's self-update check.
// - Module: module path of the installer as published to the module proxy.
// - Proxy: module proxy base URL.
// - CacheTTL: how long a looked-up latest version stays valid.
// - CacheMaxSize: cache footprint limit, e.g. "1KiB".
// - Timeout: upper bound for the remote query.
type Update struct {
	Module       string        `yaml:"module"`
	Proxy        string        `yaml:"proxy"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	CacheMaxSize string        `yaml:"cache_max_size"`
	Timeout      time.Duration `yaml:"timeout"`
}
