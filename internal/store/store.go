// Package store owns the current document snapshot and coordinates writes.
//
// The snapshot is an immutable value swapped atomically, so readers never
// need a lock. Writes are serialized through a single mutex: a
// mutation-triggered commit and a reload-triggered replace can race, and
// the mutex decides their order.
package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/todomd/todomd/internal/storage"
	"github.com/todomd/todomd/internal/todo"
)

// Suppressor is told to ignore the next change notification matching a
// fingerprint, so the store's own writes do not trigger a reload.
type Suppressor interface {
	Suppress(fingerprint string)
}

// Store holds the current document and writes mutations through the
// backend.
type Store struct {
	codec   *todo.Codec
	backend storage.Backend
	log     *log.Logger

	mu       sync.Mutex
	current  atomic.Pointer[todo.Document]
	suppress Suppressor
}

// New returns a store starting from an empty document.
func New(codec *todo.Codec, backend storage.Backend, logger *log.Logger) *Store {
	s := &Store{codec: codec, backend: backend, log: logger}
	s.current.Store(&todo.Document{})
	return s
}

// SetSuppressor wires the change watcher's suppression hook. Optional;
// without it the watcher falls back to fingerprint comparison alone.
func (s *Store) SetSuppressor(sup Suppressor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppress = sup
}

// Snapshot returns the current document. The value is immutable and safe
// to read concurrently with reloads and commits.
func (s *Store) Snapshot() *todo.Document {
	return s.current.Load()
}

// Apply runs a mutation against doc and returns the resulting document.
// It is pure: no I/O, no clock reads, no change to doc.
func (s *Store) Apply(doc *todo.Document, m Mutation) (*todo.Document, error) {
	return m.apply(s.codec, doc)
}

// Mutate applies a mutation to the current snapshot and commits the
// result. The snapshot only advances after the write is confirmed; a
// failed write leaves it untouched.
func (s *Store) Mutate(ctx context.Context, m Mutation) (*todo.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := m.apply(s.codec, s.current.Load())
	if err != nil {
		return nil, err
	}
	if err := s.commitLocked(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Commit serializes doc, writes it through the backend, and makes it the
// current snapshot.
func (s *Store) Commit(ctx context.Context, doc *todo.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitLocked(ctx, doc)
}

func (s *Store) commitLocked(ctx context.Context, doc *todo.Document) error {
	if err := s.backend.Write(ctx, doc.Bytes()); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	// Arm self-write suppression with the fingerprint the file has now,
	// so the notification for this write is not mistaken for an external
	// change.
	if s.suppress != nil {
		fp, err := s.backend.Fingerprint(ctx)
		if err != nil {
			s.log.Warn("fingerprint after commit failed", "err", err)
		} else {
			s.suppress.Suppress(fp)
		}
	}

	s.current.Store(doc)
	return nil
}

// Replace installs an externally loaded document as the current snapshot.
// The file is authoritative after a reload: whatever the snapshot held,
// including edits applied but never committed, is superseded.
func (s *Store) Replace(doc *todo.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(doc)
}
