// Copyright 2026 The Modstash Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for modstash.
//
// Configuration is a single YAML file named explicitly by the caller
// (flag or MODSTASH_CONFIG environment variable). There is no
// automatic discovery — deterministic configuration with no hidden
// overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full modstash configuration.
type Config struct {
	// ContentRoot is the directory tree of JSON content files the
	// database hydrates from.
	ContentRoot string `yaml:"contentRoot"`

	// ChecksFile is the path to the precomputed hash manifest.
	ChecksFile string `yaml:"checksFile"`

	// ImagesRoot is the directory of image asset subdirectories.
	ImagesRoot string `yaml:"imagesRoot"`

	// Mods lists mod root directories to scan for bundle manifests.
	Mods []string `yaml:"mods"`

	// VerifiedMode enables hash-manifest validation during hydration.
	VerifiedMode bool `yaml:"verifiedMode"`

	// ImageOverrides remaps literal image file paths to replacement
	// paths at registration time.
	ImageOverrides map[string]string `yaml:"imageOverrides"`

	// CacheFile is where the bundle hash cache persists. Empty keeps
	// the cache memory-only.
	CacheFile string `yaml:"cacheFile"`

	// MinifyWorkers bounds the JSON minification pool. Zero selects
	// the CPU count.
	MinifyWorkers int `yaml:"minifyWorkers"`

	// QueueDepth is the command queue buffer. Zero selects the
	// default.
	QueueDepth int `yaml:"queueDepth"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks for required fields and obvious mistakes.
func (c *Config) Validate() error {
	if c.ContentRoot == "" {
		return fmt.Errorf("contentRoot is required")
	}
	if c.VerifiedMode && c.ChecksFile == "" {
		return fmt.Errorf("verifiedMode requires checksFile")
	}
	if c.MinifyWorkers < 0 {
		return fmt.Errorf("minifyWorkers must be >= 0")
	}
	if c.QueueDepth < 0 {
		return fmt.Errorf("queueDepth must be >= 0")
	}
	return nil
}
