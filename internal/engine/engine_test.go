package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todomd/todomd/internal/storage"
	"github.com/todomd/todomd/internal/store"
	"github.com/todomd/todomd/internal/todo"
	"github.com/todomd/todomd/internal/view"
)

const sampleFile = `### Inbox
- [ ] Buy milk +Home @Store due:2025-01-01
- [ ] Write report +Work
`

func newEngine(t *testing.T, content string) (*Engine, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo.md")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	e, err := New(storage.Location{Kind: storage.KindLocal, Path: path},
		log.New(io.Discard), WithDebounce(30*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, e.Load(context.Background()))
	return e, path
}

func today() todo.Date {
	return todo.NewDate(2025, time.January, 2)
}

func TestLoadMissingFileStartsEmpty(t *testing.T) {
	e, _ := newEngine(t, "")
	assert.Empty(t, e.Snapshot().Tasks())
}

func TestToggleWritesThrough(t *testing.T) {
	e, path := newEngine(t, sampleFile)

	require.NoError(t, e.Toggle(context.Background(), 1, today()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- [x] Buy milk +Home @Store due:2025-01-01 ✅ 2025-01-02")
	assert.Contains(t, string(data), "### Inbox", "untouched lines survive")
}

func TestAddAndView(t *testing.T) {
	e, _ := newEngine(t, sampleFile)

	require.NoError(t, e.Add(context.Background(), "Call dentist", today()))

	groups := e.View(view.Options{Today: today(), Sort: view.ByProject})
	var all []string
	for _, g := range groups {
		for _, entry := range g.Entries {
			all = append(all, entry.Task.Title)
		}
	}
	assert.Contains(t, all, "Call dentist")
}

func TestInvalidIndexSurfaces(t *testing.T) {
	e, _ := newEngine(t, sampleFile)

	err := e.Toggle(context.Background(), 99, today())
	assert.ErrorIs(t, err, store.ErrInvalidIndex)
}

func TestExternalChangeReloads(t *testing.T) {
	e, path := newEngine(t, sampleFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := e.Subscribe()
	e.Start(ctx)
	defer e.Close()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("- [ ] From another editor\n"), 0o644))

	select {
	case <-events:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a reload event")
	}

	tasks := e.Snapshot().Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "From another editor", tasks[0].Task.Title)
}

func TestOwnWriteDoesNotReload(t *testing.T) {
	e, _ := newEngine(t, sampleFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := e.Subscribe()
	e.Start(ctx)
	defer e.Close()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, e.Toggle(ctx, 1, today()))

	select {
	case <-events:
		t.Fatal("own write must not produce a reload event")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestSearchAgainstSnapshot(t *testing.T) {
	e, _ := newEngine(t, sampleFile)

	res := e.Search("report", view.Options{Today: today()})
	require.Len(t, res.Current, 1)
	assert.Equal(t, "Write report", res.Current[0].Task.Title)
}
