// Package engine wires storage, codec, store and watcher into the
// single facade the presentation layer talks to. It exposes snapshots,
// views and mutation entry points but never depends on any UI type.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/todomd/todomd/internal/storage"
	"github.com/todomd/todomd/internal/store"
	"github.com/todomd/todomd/internal/todo"
	"github.com/todomd/todomd/internal/view"
	"github.com/todomd/todomd/internal/watch"
)

// Event tells subscribers the current document changed externally and
// was reloaded from the backend.
type Event struct {
	Anomalies []todo.Anomaly
}

// Engine owns one storage session. Switching locations means closing
// the engine and building a new one.
type Engine struct {
	codec   *todo.Codec
	backend storage.Backend
	store   *store.Store
	watcher *watch.Watcher
	log     *log.Logger

	mu     sync.Mutex
	subs   []chan Event
	cancel context.CancelFunc
	done   chan struct{}
}

// New opens the backend for the location and assembles the engine.
// Call Load before reading, and Start to follow external changes.
func New(loc storage.Location, logger *log.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{log: logger}
	syntax := todo.DefaultSyntax()
	watchOpts := []watch.Option{}
	for _, opt := range opts {
		opt(&syntax, &watchOpts)
	}

	backend, err := storage.Open(loc, logger)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", loc, err)
	}

	e.codec = todo.NewCodec(syntax)
	e.backend = backend
	e.store = store.New(e.codec, backend, logger)
	e.watcher = watch.New(backend, logger, watchOpts...)
	e.store.SetSuppressor(e.watcher)
	return e, nil
}

// Option adjusts the engine's codec or watcher configuration.
type Option func(*todo.Syntax, *[]watch.Option)

// WithSyntax overrides the token syntax used by the codec.
func WithSyntax(s todo.Syntax) Option {
	return func(syntax *todo.Syntax, _ *[]watch.Option) { *syntax = s }
}

// WithDebounce sets the change coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(_ *todo.Syntax, opts *[]watch.Option) {
		*opts = append(*opts, watch.WithDebounce(d))
	}
}

// WithPollInterval sets the fingerprint polling interval for backends
// without push notification.
func WithPollInterval(d time.Duration) Option {
	return func(_ *todo.Syntax, opts *[]watch.Option) {
		*opts = append(*opts, watch.WithPollInterval(d))
	}
}

// Load reads and parses the backend content, replacing the current
// snapshot. A missing file yields an empty document rather than an
// error, so a fresh setup starts clean.
func (e *Engine) Load(ctx context.Context) error {
	data, err := e.backend.Read(ctx)
	if err != nil {
		if storage.IsNotFound(err) {
			e.log.Debug("todo file not found, starting empty")
			e.store.Replace(&todo.Document{TrailingNewline: true})
			return nil
		}
		return fmt.Errorf("loading: %w", err)
	}

	doc, anomalies := e.codec.Parse(data)
	for _, a := range anomalies {
		e.log.Warn("skipping malformed task line", "line", a.Line+1, "reason", a.Reason)
	}
	e.store.Replace(doc)
	return nil
}

// Start runs the watcher and the reload loop until ctx is done.
func (e *Engine) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.done = make(chan struct{})
	e.mu.Unlock()

	go e.watcher.Run(ctx)
	go e.reloadLoop(ctx)
}

func (e *Engine) reloadLoop(ctx context.Context) {
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-e.watcher.Triggers():
			if !ok {
				return
			}
		}

		data, err := e.backend.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.log.Warn("reload failed", "err", err)
			continue
		}
		doc, anomalies := e.codec.Parse(data)
		e.store.Replace(doc)
		e.log.Info("reloaded after external change", "tasks", len(doc.Tasks()))
		e.publish(Event{Anomalies: anomalies})
	}
}

// Close stops the watcher and reload loop. Safe to call without Start.
func (e *Engine) Close() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel = nil
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Subscribe returns a channel carrying one event per external reload.
// Slow consumers miss events instead of blocking the engine.
func (e *Engine) Subscribe() <-chan Event {
	ch := make(chan Event, 1)
	e.mu.Lock()
	e.subs = append(e.subs, ch)
	e.mu.Unlock()
	return ch
}

func (e *Engine) publish(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Snapshot returns the current immutable document.
func (e *Engine) Snapshot() *todo.Document {
	return e.store.Snapshot()
}

// View projects the current document through the query engine.
func (e *Engine) View(opts view.Options) []view.Group {
	return view.Render(e.store.Snapshot(), opts)
}

// Search buckets title matches against the current document.
func (e *Engine) Search(query string, opts view.Options) view.SearchResult {
	return view.Search(e.store.Snapshot(), query, opts)
}

// Toggle flips done state on the task at the given line index and
// commits the result.
func (e *Engine) Toggle(ctx context.Context, index int, today todo.Date) error {
	_, err := e.store.Mutate(ctx, store.ToggleDone{Index: index, Today: today})
	return err
}

// EditFields rewrites selected fields of the task at index.
func (e *Engine) EditFields(ctx context.Context, index int, edit store.FieldEdit, today todo.Date) error {
	_, err := e.store.Mutate(ctx, store.EditFields{Index: index, Edit: edit, Today: today})
	return err
}

// Postpone moves the due date of the task at index.
func (e *Engine) Postpone(ctx context.Context, index int, until todo.Date) error {
	_, err := e.store.Mutate(ctx, store.Postpone{Index: index, Until: until})
	return err
}

// Add appends a new open task due today and commits it.
func (e *Engine) Add(ctx context.Context, title string, today todo.Date) error {
	_, err := e.store.Mutate(ctx, store.AddTask{Title: title, Today: today})
	return err
}
