package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todomd/todomd/internal/todo"
)

// memBackend is an in-memory storage backend for tests.
type memBackend struct {
	mu      sync.Mutex
	data    []byte
	writes  int
	failing bool
}

func (b *memBackend) Read(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.data...), nil
}

func (b *memBackend) Write(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return errors.New("disk full")
	}
	b.data = append([]byte(nil), data...)
	b.writes++
	return nil
}

func (b *memBackend) Fingerprint(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.data), nil
}

type recordingSuppressor struct {
	mu  sync.Mutex
	fps []string
}

func (r *recordingSuppressor) Suppress(fp string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fps = append(r.fps, fp)
}

func newTestStore(t *testing.T, content string) (*Store, *memBackend, *todo.Codec) {
	t.Helper()
	codec := todo.NewCodec(todo.DefaultSyntax())
	backend := &memBackend{data: []byte(content)}
	s := New(codec, backend, log.New(io.Discard))
	doc, anomalies := codec.Parse([]byte(content))
	require.Empty(t, anomalies)
	s.Replace(doc)
	return s, backend, codec
}

const sample = "# Todos\n\n- [ ] Buy milk +Home @Store due:2025-01-01\n- [ ] Write report +Work\nplain note\n- [x] Old chore ✅ 2024-12-30\n"

func today() todo.Date {
	return todo.NewDate(2025, time.January, 2)
}

func TestToggleDoneSetsCompletion(t *testing.T) {
	s, backend, _ := newTestStore(t, sample)

	doc, err := s.Mutate(context.Background(), ToggleDone{Index: 2, Today: today()})
	require.NoError(t, err)

	task := doc.Task(2)
	require.NotNil(t, task)
	assert.True(t, task.Done)
	require.NotNil(t, task.Completion)
	assert.Equal(t, today(), *task.Completion)
	assert.Equal(t, "- [x] Buy milk +Home @Store due:2025-01-01 ✅ 2025-01-02", doc.Lines[2].Raw)
	assert.Contains(t, string(backend.data), "✅ 2025-01-02")
}

func TestToggleSymmetry(t *testing.T) {
	s, _, _ := newTestStore(t, sample)
	ctx := context.Background()

	_, err := s.Mutate(ctx, ToggleDone{Index: 2, Today: today()})
	require.NoError(t, err)
	doc, err := s.Mutate(ctx, ToggleDone{Index: 2, Today: today().AddDays(1)})
	require.NoError(t, err)

	task := doc.Task(2)
	require.NotNil(t, task)
	assert.False(t, task.Done)
	assert.Nil(t, task.Completion, "reopening must clear the completion date")
	assert.Equal(t, "- [ ] Buy milk +Home @Store due:2025-01-01", doc.Lines[2].Raw)
	assert.NotContains(t, doc.Lines[2].Raw, "✅")
}

func TestSelectiveMutation(t *testing.T) {
	s, _, codec := newTestStore(t, sample)

	before, _ := codec.Parse([]byte(sample))
	doc, err := s.Mutate(context.Background(), ToggleDone{Index: 2, Today: today()})
	require.NoError(t, err)

	for i := range doc.Lines {
		if i == 2 {
			continue
		}
		assert.Equal(t, before.Lines[i].Raw, doc.Lines[i].Raw, "line %d must be byte-identical", i)
	}
}

func TestEditFields(t *testing.T) {
	s, _, _ := newTestStore(t, sample)

	title := "Buy oat milk"
	place := ""
	due := todo.NewDate(2025, time.February, 1)
	doc, err := s.Mutate(context.Background(), EditFields{
		Index: 2,
		Edit:  FieldEdit{Title: &title, Place: &place, Due: &due},
		Today: today(),
	})
	require.NoError(t, err)

	task := doc.Task(2)
	require.NotNil(t, task)
	assert.Equal(t, "Buy oat milk", task.Title)
	assert.Equal(t, "Home", task.Project, "untouched field kept")
	assert.Empty(t, task.Place, "empty string clears the tag")
	assert.Equal(t, due, *task.Due)
	assert.Equal(t, "- [ ] Buy oat milk +Home due:2025-02-01", doc.Lines[2].Raw)
}

func TestEditFieldsDoneKeepsExistingCompletion(t *testing.T) {
	s, _, _ := newTestStore(t, sample)

	done := true
	doc, err := s.Mutate(context.Background(), EditFields{Index: 5, Edit: FieldEdit{Done: &done}, Today: today()})
	require.NoError(t, err)

	task := doc.Task(5)
	require.NotNil(t, task)
	require.NotNil(t, task.Completion)
	assert.Equal(t, todo.NewDate(2024, time.December, 30), *task.Completion, "already-done task keeps its completion date")
}

func TestPostpone(t *testing.T) {
	s, _, _ := newTestStore(t, sample)

	doc, err := s.Mutate(context.Background(), Postpone{Index: 3, Until: todo.Sometime})
	require.NoError(t, err)

	task := doc.Task(3)
	require.NotNil(t, task)
	require.NotNil(t, task.Due)
	assert.Equal(t, todo.Sometime, *task.Due)
	assert.Equal(t, "- [ ] Write report +Work due:9999-12-31", doc.Lines[3].Raw)
}

func TestAddTaskInsertsAboveFence(t *testing.T) {
	content := "- [ ] First\n---\narchive\n"
	s, _, _ := newTestStore(t, content)

	doc, err := s.Mutate(context.Background(), AddTask{Title: "New thing", Today: today()})
	require.NoError(t, err)

	require.Len(t, doc.Lines, 4)
	assert.Equal(t, "- [ ] New thing due:2025-01-02", doc.Lines[1].Raw)
	assert.Equal(t, "---", doc.Lines[2].Raw)
}

func TestAddTaskAppendsWithoutFence(t *testing.T) {
	s, _, _ := newTestStore(t, "- [ ] Only\n")

	doc, err := s.Mutate(context.Background(), AddTask{Title: "Second", Today: today()})
	require.NoError(t, err)

	require.Len(t, doc.Lines, 2)
	assert.Equal(t, "- [ ] Second due:2025-01-02", doc.Lines[1].Raw)
	assert.True(t, doc.TrailingNewline)
}

func TestInvalidIndex(t *testing.T) {
	s, _, _ := newTestStore(t, sample)
	ctx := context.Background()

	tests := []struct {
		name  string
		index int
	}{
		{name: "out of range", index: 99},
		{name: "negative", index: -1},
		{name: "raw line", index: 4},
		{name: "heading line", index: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Mutate(ctx, ToggleDone{Index: tt.index, Today: today()})
			assert.ErrorIs(t, err, ErrInvalidIndex)
		})
	}
}

func TestFailedCommitLeavesSnapshotUnchanged(t *testing.T) {
	s, backend, _ := newTestStore(t, sample)
	before := s.Snapshot()

	backend.failing = true
	_, err := s.Mutate(context.Background(), ToggleDone{Index: 2, Today: today()})
	require.Error(t, err)

	assert.Same(t, before, s.Snapshot(), "snapshot must not advance on a failed write")
	assert.Equal(t, 0, backend.writes)
}

func TestCommitArmsSuppression(t *testing.T) {
	s, backend, _ := newTestStore(t, sample)
	sup := &recordingSuppressor{}
	s.SetSuppressor(sup)

	_, err := s.Mutate(context.Background(), ToggleDone{Index: 2, Today: today()})
	require.NoError(t, err)

	require.Len(t, sup.fps, 1)
	assert.Equal(t, string(backend.data), sup.fps[0], "suppressed fingerprint matches the written content")
}

func TestReloadAuthority(t *testing.T) {
	s, _, codec := newTestStore(t, sample)

	// A pending edit exists only as an uncommitted value.
	pending, err := s.Apply(s.Snapshot(), ToggleDone{Index: 2, Today: today()})
	require.NoError(t, err)
	require.NotNil(t, pending)

	// An external change arrives before the edit is committed.
	external, _ := codec.Parse([]byte("- [ ] Externally rewritten\n"))
	s.Replace(external)

	got := s.Snapshot()
	assert.Same(t, external, got, "reloaded content wins; the pending edit is discarded")
	assert.Equal(t, "- [ ] Externally rewritten", got.Lines[0].Raw)
}

func TestApplyIsPure(t *testing.T) {
	s, _, _ := newTestStore(t, sample)
	snap := s.Snapshot()
	rawBefore := snap.Lines[2].Raw

	_, err := s.Apply(snap, ToggleDone{Index: 2, Today: today()})
	require.NoError(t, err)

	assert.Equal(t, rawBefore, snap.Lines[2].Raw, "Apply must not modify its input")
	assert.False(t, strings.Contains(snap.Lines[2].Raw, "✅"))
}
