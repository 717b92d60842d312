// Package config loads and manages dialogkeep configuration.
// Configuration source priority (highest to lowest):
// 1. CLI flags (--dir)
// 2. Environment variables (DIALOGKEEP_DIR)
// 3. Config file path specified via --config flag
// 4. ~/.config/dialogkeep/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration structure for dialogkeep.
type Config struct {
	// StorageDir is the directory holding all dialog record files.
	// A leading "~/" expands to the user's home directory.
	StorageDir string `yaml:"storage_dir"`

	// ListLimit is the default number of files a list operation inspects
	// when the caller does not pass a limit.
	ListLimit int `yaml:"list_limit"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StorageDir: defaultStorageDir(),
		ListLimit:  20,
	}
}

// defaultStorageDir matches the historical default: a saved_dialogs folder
// under the user's Documents directory.
func defaultStorageDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "saved_dialogs"
	}
	return filepath.Join(home, "Documents", "saved_dialogs")
}

// Load reads the config file and applies environment variable overrides.
// A missing file yields the defaults; an invalid one is an error.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			configPath = filepath.Join(home, ".config", "dialogkeep", "config.yaml")
		}
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.StorageDir == "" {
		cfg.StorageDir = defaultStorageDir()
	}
	cfg.StorageDir = expandHome(cfg.StorageDir)
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 20
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DIALOGKEEP_DIR"); v != "" {
		cfg.StorageDir = v
	}
}

// expandHome expands a leading "~/" to the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}
