// Package storage abstracts where todo file bytes live.
//
// A Backend is a capability set, not a hierarchy: every backend reads and
// writes whole files and reports a change fingerprint; backends that can
// push change notifications additionally implement Notifier. The watcher
// falls back to polling when the capability is absent.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// Error categories. Backends wrap these so callers can classify failures
// with errors.Is.
var (
	// ErrNotFound means the file does not exist at the location. Loading
	// treats this as an empty document, not a failure.
	ErrNotFound = errors.New("file not found")

	// ErrAuth means the location rejected the configured credentials.
	// Never retried; this is a configuration problem for the user.
	ErrAuth = errors.New("authentication failed")

	// ErrNetwork wraps a remote failure that survived the retry budget.
	ErrNetwork = errors.New("network error")
)

// IsNotFound reports whether err is a missing-file error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAuth reports whether err is a credentials error.
func IsAuth(err error) bool { return errors.Is(err, ErrAuth) }

// IsNetwork reports whether err is an exhausted-retries network error.
func IsNetwork(err error) bool { return errors.Is(err, ErrNetwork) }

// Backend is the byte source and sink for one todo file.
type Backend interface {
	// Read returns the full file content.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the full file content. Implementations must be
	// atomic: a concurrent reader never observes a partial write.
	Write(ctx context.Context, data []byte) error

	// Fingerprint returns an opaque value that changes whenever the file
	// content changes. Used for poll-based change detection and for
	// self-write suppression.
	Fingerprint(ctx context.Context) (string, error)
}

// Notifier is the optional push-notification capability of a backend.
type Notifier interface {
	// Watch emits an empty struct whenever the file may have changed.
	// The channel closes when ctx is done or the watch breaks down.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Kind selects a backend implementation.
type Kind string

const (
	KindLocal  Kind = "local"
	KindWebDAV Kind = "webdav"
)

// Location identifies where the todo file lives. It is chosen once at
// configuration time and is immutable for the session; switching requires
// a fresh engine.
type Location struct {
	Kind Kind

	// Path is the local file path (KindLocal).
	Path string

	// URL and credentials for the remote share (KindWebDAV).
	URL      string
	Username string
	Password string
}

func (l Location) String() string {
	if l.Kind == KindWebDAV {
		return l.URL
	}
	return l.Path
}

// Open builds the backend for the location.
func Open(loc Location, logger *log.Logger) (Backend, error) {
	switch loc.Kind {
	case KindLocal:
		if loc.Path == "" {
			return nil, fmt.Errorf("local location has no path")
		}
		return NewLocal(loc.Path, logger), nil
	case KindWebDAV:
		if loc.URL == "" {
			return nil, fmt.Errorf("webdav location has no url")
		}
		return NewWebDAV(loc.URL, loc.Username, loc.Password, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage kind %q", loc.Kind)
	}
}
