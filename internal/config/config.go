// Package config handles configuration loading and defaults.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/todomd/todomd/internal/storage"
	"github.com/todomd/todomd/internal/view"
)

// Default values.
const (
	DefaultTodoFile    = "todo.md"
	DefaultSortMode    = "project"
	DefaultDebounceMs  = 300
	DefaultPollSeconds = 10
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
)

// WebDAVConfig describes an optional remote share holding the todo file.
type WebDAVConfig struct {
	Enabled  bool   `toml:"enabled"`
	URL      string `toml:"url"`
	Path     string `toml:"path"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Config holds the full configuration for todomd.
type Config struct {
	// Where the todo file lives when WebDAV is off.
	TodoFile string `toml:"todo_file"`

	// View defaults
	ShowDone    bool   `toml:"show_done"`
	ShowDueOnly bool   `toml:"show_due_only"`
	SortMode    string `toml:"sort_mode"`

	// Watcher tuning
	DebounceMs  int `toml:"debounce_ms"`
	PollSeconds int `toml:"poll_seconds"`

	WebDAV WebDAVConfig `toml:"webdav"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`

	// Derived, not persisted
	Sort view.SortMode `toml:"-"`
}

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.config/todomd/todomd.toml or OS equivalent)
// 3. Project config file (todomd.toml or .todomd.toml in current directory)
// 4. Environment variables (TODOMD_*)
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if userFile := findUserConfigFile(); userFile != "" {
		if err := loadConfigFile(cfg, userFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userFile, err)
		}
	}
	if projFile := findProjectConfigFile(); projFile != "" {
		if err := loadConfigFile(cfg, projFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projFile, err)
		}
	}

	loadFromEnv(cfg)

	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.TodoFile = DefaultTodoFile
	cfg.SortMode = DefaultSortMode
	cfg.DebounceMs = DefaultDebounceMs
	cfg.PollSeconds = DefaultPollSeconds
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.LogTimestamps = true
}

// finalizeConfig validates values and computes derived ones.
func finalizeConfig(cfg *Config) error {
	cfg.TodoFile = expandPath(cfg.TodoFile)

	sort, err := view.ParseSortMode(cfg.SortMode)
	if err != nil {
		return err
	}
	cfg.Sort = sort

	if cfg.DebounceMs <= 0 {
		return fmt.Errorf("debounce_ms must be positive, got %d", cfg.DebounceMs)
	}
	if cfg.PollSeconds <= 0 {
		return fmt.Errorf("poll_seconds must be positive, got %d", cfg.PollSeconds)
	}

	if cfg.WebDAV.Enabled {
		if cfg.WebDAV.URL == "" {
			return fmt.Errorf("webdav.url is required when webdav is enabled")
		}
	}
	return nil
}

// Location translates the configuration into the storage location for
// this session.
func (c *Config) Location() storage.Location {
	if c.WebDAV.Enabled {
		url := c.WebDAV.URL
		if c.WebDAV.Path != "" {
			url = joinURL(url, c.WebDAV.Path)
		}
		return storage.Location{
			Kind:     storage.KindWebDAV,
			URL:      url,
			Username: c.WebDAV.Username,
			Password: c.WebDAV.Password,
		}
	}
	return storage.Location{Kind: storage.KindLocal, Path: c.TodoFile}
}

// Debounce returns the watcher coalescing window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// PollInterval returns the remote polling interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}
