package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/todomd/todomd/internal/storage"
	"github.com/todomd/todomd/internal/view"
)

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("test", flag.ContinueOnError)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.TodoFile != DefaultTodoFile {
		t.Errorf("TodoFile: got %q, want %q", cfg.TodoFile, DefaultTodoFile)
	}
	if cfg.SortMode != DefaultSortMode {
		t.Errorf("SortMode: got %q, want %q", cfg.SortMode, DefaultSortMode)
	}
	if cfg.DebounceMs != DefaultDebounceMs {
		t.Errorf("DebounceMs: got %d, want %d", cfg.DebounceMs, DefaultDebounceMs)
	}
	if cfg.ShowDone {
		t.Error("ShowDone: got true, want false")
	}
}

func TestFlagsOverride(t *testing.T) {
	cfg, err := Load(newFlagSet(), []string{
		"-file", "other.md", "-sort", "due", "-show-done", "-debounce-ms", "100",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.HasSuffix(cfg.TodoFile, "other.md") {
		t.Errorf("TodoFile: got %q, want other.md", cfg.TodoFile)
	}
	if cfg.Sort != view.ByDue {
		t.Errorf("Sort: got %v, want ByDue", cfg.Sort)
	}
	if !cfg.ShowDone {
		t.Error("ShowDone: got false, want true")
	}
	if cfg.DebounceMs != 100 {
		t.Errorf("DebounceMs: got %d, want 100", cfg.DebounceMs)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("TODOMD_FILE", "env.md")
	t.Setenv("TODOMD_SORT", "place")
	t.Setenv("TODOMD_SHOW_DONE", "true")

	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.HasSuffix(cfg.TodoFile, "env.md") {
		t.Errorf("TodoFile: got %q, want env.md", cfg.TodoFile)
	}
	if cfg.Sort != view.ByPlace {
		t.Errorf("Sort: got %v, want ByPlace", cfg.Sort)
	}
	if !cfg.ShowDone {
		t.Error("ShowDone: got false, want true")
	}
}

func TestProjectConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "todo_file = \"project.md\"\nsort_mode = \"due\"\n\n[webdav]\nenabled = false\n"
	if err := os.WriteFile(filepath.Join(dir, "todomd.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.HasSuffix(cfg.TodoFile, "project.md") {
		t.Errorf("TodoFile: got %q, want project.md", cfg.TodoFile)
	}
	if cfg.Sort != view.ByDue {
		t.Errorf("Sort: got %v, want ByDue", cfg.Sort)
	}
}

func TestFlagsBeatConfigFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "todomd.toml"), []byte("sort_mode = \"due\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load(newFlagSet(), []string{"-sort", "place"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sort != view.ByPlace {
		t.Errorf("Sort: got %v, want ByPlace", cfg.Sort)
	}
}

func TestFinalizeRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad sort mode", []string{"-sort", "bogus"}},
		{"zero debounce", []string{"-debounce-ms", "0"}},
		{"negative poll", []string{"-poll-seconds", "-1"}},
		{"webdav without url", []string{"-webdav"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(newFlagSet(), tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLocation(t *testing.T) {
	cfg, err := Load(newFlagSet(), []string{"-file", "todo.md"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loc := cfg.Location()
	if loc.Kind != storage.KindLocal {
		t.Errorf("Kind: got %v, want KindLocal", loc.Kind)
	}

	cfg, err = Load(newFlagSet(), []string{
		"-webdav", "-webdav-url", "https://dav.example.com/share/",
		"-webdav-path", "/notes/todo.md", "-webdav-user", "alice",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loc = cfg.Location()
	if loc.Kind != storage.KindWebDAV {
		t.Errorf("Kind: got %v, want KindWebDAV", loc.Kind)
	}
	if loc.URL != "https://dav.example.com/share/notes/todo.md" {
		t.Errorf("URL: got %q", loc.URL)
	}
	if loc.Username != "alice" {
		t.Errorf("Username: got %q, want alice", loc.Username)
	}
}

func TestIntervals(t *testing.T) {
	cfg := &Config{DebounceMs: 250, PollSeconds: 30}
	if cfg.Debounce() != 250*time.Millisecond {
		t.Errorf("Debounce: got %v", cfg.Debounce())
	}
	if cfg.PollInterval() != 30*time.Second {
		t.Errorf("PollInterval: got %v", cfg.PollInterval())
	}
}
