package config

import "flag"

// parseFlags defines and parses CLI flags. They override every other
// source.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	if fs == nil {
		fs = flag.NewFlagSet("todomd", flag.ContinueOnError)
	}

	fs.StringVar(&cfg.TodoFile, "file", cfg.TodoFile, "Path to todo file")
	fs.BoolVar(&cfg.ShowDone, "show-done", cfg.ShowDone, "Include completed tasks")
	fs.BoolVar(&cfg.ShowDueOnly, "due-only", cfg.ShowDueOnly, "Hide tasks due in the future")
	fs.StringVar(&cfg.SortMode, "sort", cfg.SortMode, "Sort mode: project, place or due")
	fs.IntVar(&cfg.DebounceMs, "debounce-ms", cfg.DebounceMs, "Change coalescing window in milliseconds")
	fs.IntVar(&cfg.PollSeconds, "poll-seconds", cfg.PollSeconds, "Remote polling interval in seconds")

	fs.BoolVar(&cfg.WebDAV.Enabled, "webdav", cfg.WebDAV.Enabled, "Use the WebDAV backend")
	fs.StringVar(&cfg.WebDAV.URL, "webdav-url", cfg.WebDAV.URL, "WebDAV base URL")
	fs.StringVar(&cfg.WebDAV.Path, "webdav-path", cfg.WebDAV.Path, "Path of the todo file on the share")
	fs.StringVar(&cfg.WebDAV.Username, "webdav-user", cfg.WebDAV.Username, "WebDAV username")
	fs.StringVar(&cfg.WebDAV.Password, "webdav-pass", cfg.WebDAV.Password, "WebDAV password")

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text, json or logfmt")

	return fs.Parse(args)
}
