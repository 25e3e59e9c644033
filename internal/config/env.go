package config

import (
	"os"
	"strconv"
)

// loadFromEnv overrides config from TODOMD_* environment variables.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("TODOMD_FILE"); v != "" {
		cfg.TodoFile = v
	}
	if v := os.Getenv("TODOMD_SORT"); v != "" {
		cfg.SortMode = v
	}
	if v, ok := envBool("TODOMD_SHOW_DONE"); ok {
		cfg.ShowDone = v
	}
	if v, ok := envBool("TODOMD_DUE_ONLY"); ok {
		cfg.ShowDueOnly = v
	}
	if v, ok := envInt("TODOMD_DEBOUNCE_MS"); ok {
		cfg.DebounceMs = v
	}
	if v, ok := envInt("TODOMD_POLL_SECONDS"); ok {
		cfg.PollSeconds = v
	}

	if v, ok := envBool("TODOMD_WEBDAV"); ok {
		cfg.WebDAV.Enabled = v
	}
	if v := os.Getenv("TODOMD_WEBDAV_URL"); v != "" {
		cfg.WebDAV.URL = v
	}
	if v := os.Getenv("TODOMD_WEBDAV_PATH"); v != "" {
		cfg.WebDAV.Path = v
	}
	if v := os.Getenv("TODOMD_WEBDAV_USERNAME"); v != "" {
		cfg.WebDAV.Username = v
	}
	if v := os.Getenv("TODOMD_WEBDAV_PASSWORD"); v != "" {
		cfg.WebDAV.Password = v
	}

	if v := os.Getenv("TODOMD_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TODOMD_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
