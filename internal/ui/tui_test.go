package ui

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/todomd/todomd/internal/engine"
	"github.com/todomd/todomd/internal/storage"
	"github.com/todomd/todomd/internal/todo"
	"github.com/todomd/todomd/internal/view"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func testEngine(t *testing.T, content string) *engine.Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	eng, err := engine.New(storage.Location{Kind: storage.KindLocal, Path: path}, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return eng
}

func TestToggleStampsCurrentDate(t *testing.T) {
	eng := testEngine(t, "- [ ] Ship release\n")

	// A model started before midnight carries yesterday's date; the
	// toggle must stamp the date at the time of the keypress.
	stale := todo.Today().AddDays(-1)
	m := newTUIModel(context.Background(), eng, view.Options{Today: stale})

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	if m.lastErr != nil {
		t.Fatalf("toggle: %v", m.lastErr)
	}

	task := eng.Snapshot().Task(0)
	if task == nil || !task.Done {
		t.Fatal("task was not toggled")
	}
	if task.Completion == nil || *task.Completion != todo.Today() {
		t.Errorf("completion stamp: got %v, want %v", task.Completion, todo.Today())
	}
}

func TestOverdueFollowsCurrentDate(t *testing.T) {
	yesterday := todo.Today().AddDays(-1)
	eng := testEngine(t, "- [ ] Pay rent due:"+yesterday.String()+"\n")

	m := newTUIModel(context.Background(), eng, view.Options{Today: yesterday.AddDays(-5)})

	// Any keypress refreshes the date before it is applied.
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	if m.opts.Today != todo.Today() {
		t.Errorf("Today after keypress: got %v, want %v", m.opts.Today, todo.Today())
	}
}
