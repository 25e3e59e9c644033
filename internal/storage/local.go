package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// retryDelay is how long to wait before re-trying a read or write that hit
// a momentarily absent file (a sync client mid-replace).
const retryDelay = 150 * time.Millisecond

// Local stores the todo file on the local filesystem. It implements
// Notifier via fsnotify.
type Local struct {
	path string
	log  *log.Logger
}

// NewLocal returns a backend for the given file path.
func NewLocal(path string, logger *log.Logger) *Local {
	return &Local{path: path, log: logger}
}

// Read returns the file content. A file that is missing on the first
// attempt is retried once after a short delay; sync clients replace files
// non-atomically and the gap is transient.
func (l *Local) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		l.log.Debug("file missing, retrying", "path", l.path)
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		data, err = os.ReadFile(l.path)
	}
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", l.path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}
	return data, nil
}

// Write replaces the file atomically: the content goes to a temporary file
// in the same directory which is then renamed over the target, so a crash
// or concurrent read never observes a truncated file.
func (l *Local) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename to %s: %w", l.path, err)
	}
	return nil
}

// Fingerprint is derived from the file's size and modification time.
func (l *Local) Fingerprint(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := os.Stat(l.path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("stat %s: %w", l.path, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", l.path, err)
	}
	return fmt.Sprintf("%d-%d", info.ModTime().UnixNano(), info.Size()), nil
}

// Watch emits a signal whenever the file changes. The parent directory is
// watched rather than the file itself so that atomic replaces (rename over
// the file) keep being observed.
func (l *Local) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	abs, err := filepath.Abs(l.path)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("resolve %s: %w", l.path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.log.Warn("file watch error", "path", l.path, "err", err)
			}
		}
	}()
	return out, nil
}
