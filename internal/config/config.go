// Package config loads backdrops settings from YAML and environment
// variables, and implements the settings store the rest of the module reads
// roots and tags from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete backdrops configuration.
type Config struct {
	Version       int               `yaml:"version" json:"version"`
	Paths         PathsConfig       `yaml:"paths" json:"paths"`
	ExternalPaths []string          `yaml:"external_paths" json:"external_paths"`
	LocalTags     []LocalTag        `yaml:"local_tags" json:"local_tags"`
	Performance   PerformanceConfig `yaml:"performance" json:"performance"`
	Watch         WatchConfig       `yaml:"watch" json:"watch"`
	LogLevel      string            `yaml:"log_level" json:"log_level"`
}

// PathsConfig locates the primary backgrounds directory and the data
// directory holding catalog.json.
type PathsConfig struct {
	Backgrounds string `yaml:"backgrounds" json:"backgrounds"`
	DataDir     string `yaml:"data_dir" json:"data_dir"`
}

// PerformanceConfig configures performance tuning options.
type PerformanceConfig struct {
	// IndexWorkers bounds the metadata read pool (default: 50).
	IndexWorkers int `yaml:"index_workers" json:"index_workers"`
	// QueryCacheSize is the number of filtered result lists kept (default: 256).
	QueryCacheSize int `yaml:"query_cache_size" json:"query_cache_size"`
}

// WatchConfig configures the root watcher.
type WatchConfig struct {
	// Debounce is how long to wait for filesystem events to settle.
	Debounce string `yaml:"debounce" json:"debounce"`
}

// LocalTag is a user-defined tag. Name takes part in tag indexing.
type LocalTag struct {
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Backgrounds: DefaultBackgroundsDir(),
			DataDir:     DefaultDataDir(),
		},
		ExternalPaths: []string{},
		LocalTags:     []LocalTag{},
		Performance: PerformanceConfig{
			IndexWorkers:   50,
			QueryCacheSize: 256,
		},
		Watch: WatchConfig{
			Debounce: "2s",
		},
		LogLevel: "info",
	}
}

// DefaultDataDir returns ~/.backdrops.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".backdrops")
	}
	return filepath.Join(home, ".backdrops")
}

// DefaultBackgroundsDir returns ~/.backdrops/backgrounds, the default
// primary root. When the primary root is customised this directory is still
// scanned as the legacy default root.
func DefaultBackgroundsDir() string {
	return filepath.Join(DefaultDataDir(), "backgrounds")
}

// GetUserConfigPath returns the path to the configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/backdrops/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/backdrops/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "backdrops", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "backdrops", "config.yaml")
	}
	return filepath.Join(home, ".config", "backdrops", "config.yaml")
}

// Load loads configuration from path (the user config path when empty).
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. Config file (a missing file is fine)
//  3. Environment variables (BACKDROPS_*)
func Load(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFile returns defaults overlaid with the file at path, without env
// overrides. This is what SaveSettings writes back.
func loadFile(path string) (*Config, error) {
	if path == "" {
		path = GetUserConfigPath()
	}

	cfg := NewConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Fields present in the file replace defaults; absent ones keep them.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.ExternalPaths == nil {
		cfg.ExternalPaths = []string{}
	}
	if cfg.LocalTags == nil {
		cfg.LocalTags = []LocalTag{}
	}
	return cfg, nil
}

// applyEnvOverrides applies BACKDROPS_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BACKDROPS_BACKGROUNDS_DIR"); v != "" {
		c.Paths.Backgrounds = v
	}
	if v := os.Getenv("BACKDROPS_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("BACKDROPS_INDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			c.Performance.IndexWorkers = n
		}
	}
	if v := os.Getenv("BACKDROPS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Paths.Backgrounds == "" {
		return fmt.Errorf("paths.backgrounds must not be empty")
	}
	if c.Paths.DataDir == "" {
		return fmt.Errorf("paths.data_dir must not be empty")
	}
	if c.Performance.IndexWorkers < 1 {
		return fmt.Errorf("performance.index_workers must be positive, got %d", c.Performance.IndexWorkers)
	}
	if c.Performance.QueryCacheSize < 1 {
		return fmt.Errorf("performance.query_cache_size must be positive, got %d", c.Performance.QueryCacheSize)
	}
	if _, err := c.DebounceDuration(); err != nil {
		return err
	}

	for i, p := range c.ExternalPaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("external_paths[%d] must not be empty", i)
		}
	}
	for i, tag := range c.LocalTags {
		if strings.TrimSpace(tag.Name) == "" {
			return fmt.Errorf("local_tags[%d].name must not be empty", i)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.LogLevel)
	}

	return nil
}

// DebounceDuration parses Watch.Debounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, fmt.Errorf("watch.debounce: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return d, nil
}

// CatalogPath returns the catalog file location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.json")
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

func (c *Config) clone() *Config {
	out := *c
	out.ExternalPaths = append([]string{}, c.ExternalPaths...)
	out.LocalTags = append([]LocalTag{}, c.LocalTags...)
	return &out
}
