// Package config handles configuration loading and validation for Waypoint.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ProjectDirName is the per-workspace directory holding config and data.
	ProjectDirName = ".waypoint"
	// ProjectConfigFile is the config file name inside ProjectDirName.
	ProjectConfigFile = "config.yaml"
	// DefaultConfigType is the default configuration file type.
	DefaultConfigType = "yaml"
	// DefaultDBDir is the Badger directory name inside ProjectDirName.
	DefaultDBDir = "db"
)

// Config holds all configuration for Waypoint.
type Config struct {
	// Project contains workspace metadata.
	Project ProjectConfig `mapstructure:"project" yaml:"project"`
	// Storage contains persistence configuration.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	// History contains path history configuration.
	History HistoryConfig `mapstructure:"history" yaml:"history"`
	// Logging contains structured logging configuration.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	// Server contains HTTP API configuration.
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	// Watch contains graph file watching configuration.
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`

	// ConfigDir is the resolved .waypoint directory, or empty when no
	// workspace was found. It is never read from the file.
	ConfigDir string `mapstructure:"-" yaml:"-"`
}

// ProjectConfig holds workspace metadata.
type ProjectConfig struct {
	// Name is the workspace name.
	Name string `mapstructure:"name" yaml:"name"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	// Backend is "badger" (on disk) or "memory".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// DBPath overrides the Badger directory. Relative paths resolve against
	// the workspace directory.
	DBPath string `mapstructure:"db_path" yaml:"db_path,omitempty"`
}

// HistoryConfig holds path history configuration.
type HistoryConfig struct {
	// MaxEntries caps the ledger size; zero keeps every entry.
	MaxEntries int `mapstructure:"max_entries" yaml:"max_entries"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level" yaml:"level"`
	// Format is text or json.
	Format string `mapstructure:"format" yaml:"format"`
	// IncludeCaller adds source locations to log records.
	IncludeCaller bool `mapstructure:"include_caller" yaml:"include_caller"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `mapstructure:"addr" yaml:"addr"`
	// Metrics exposes /metrics when true.
	Metrics bool `mapstructure:"metrics" yaml:"metrics"`
}

// WatchConfig holds graph file watching configuration.
type WatchConfig struct {
	// Files lists graph definition files to load and reload on change.
	Files []string `mapstructure:"files" yaml:"files,omitempty"`
	// DebounceMS is the quiet period before a changed file is reloaded.
	DebounceMS int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// Load loads configuration from file, environment variables, and defaults.
// The config file comes from the --config flag (bound to "config_file" in
// the global viper) or, failing that, from the nearest .waypoint directory
// at or above the working directory.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper().GetString("config_file"))
}

// LoadFrom is Load with an explicit config file. An empty configFile
// searches for a .waypoint directory.
func LoadFrom(configFile string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	configDir := ""
	if configFile != "" {
		v.SetConfigFile(configFile)
		configDir = filepath.Dir(configFile)
	} else if dir, ok := FindProjectDir("."); ok {
		v.SetConfigName(strings.TrimSuffix(ProjectConfigFile, filepath.Ext(ProjectConfigFile)))
		v.SetConfigType(DefaultConfigType)
		v.AddConfigPath(dir)
		configDir = dir
	}

	// Environment variables
	v.SetEnvPrefix("WAYPOINT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (ignore if not found)
	if configDir != "" {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.ConfigDir = configDir

	return &cfg, nil
}

// FindProjectDir walks up from start looking for a .waypoint directory.
func FindProjectDir(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, ProjectDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// ResolveDBPath returns the Badger directory to open. An explicit override
// wins, then storage.db_path, then <ConfigDir>/db. It returns "" when there
// is nowhere to put the database.
func (c *Config) ResolveDBPath(override string) string {
	if override != "" {
		return override
	}
	if c.Storage.DBPath != "" {
		if filepath.IsAbs(c.Storage.DBPath) || c.ConfigDir == "" {
			return c.Storage.DBPath
		}
		return filepath.Join(c.ConfigDir, c.Storage.DBPath)
	}
	if c.ConfigDir == "" {
		return ""
	}
	return filepath.Join(c.ConfigDir, DefaultDBDir)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", "badger", "memory":
	default:
		return fmt.Errorf("storage backend must be 'badger' or 'memory', got %q", c.Storage.Backend)
	}

	if c.History.MaxEntries < 0 {
		return fmt.Errorf("history max_entries must not be negative, got %d", c.History.MaxEntries)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging format must be 'text' or 'json', got %q", c.Logging.Format)
	}

	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch debounce_ms must not be negative, got %d", c.Watch.DebounceMS)
	}

	return nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Unmarshal of plain defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("project.name", "")

	v.SetDefault("storage.backend", "badger")
	v.SetDefault("storage.db_path", "")

	v.SetDefault("history.max_entries", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.include_caller", false)

	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.metrics", true)

	v.SetDefault("watch.files", []string{})
	v.SetDefault("watch.debounce_ms", 200)
}
