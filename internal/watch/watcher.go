// Package watch turns backend change notifications into debounced reload
// triggers.
//
// One goroutine owns the whole pipeline: it consumes push events when the
// backend can notify, polls fingerprints when it cannot, coalesces bursts
// into a single trigger, and swallows the notification caused by the
// store's own write.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/todomd/todomd/internal/storage"
)

// Defaults. The debounce window covers editors that save in several
// syscalls; the poll backoff mirrors a flaky share going quiet.
const (
	DefaultDebounce    = 300 * time.Millisecond
	DefaultPoll        = 10 * time.Second
	maxPollInterval    = 5 * time.Minute
	triggerChannelSize = 1
)

// Watcher observes a backend and emits a trigger per external change.
type Watcher struct {
	backend  storage.Backend
	log      *log.Logger
	debounce time.Duration
	poll     time.Duration

	triggers chan struct{}

	mu         sync.Mutex
	suppressed string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithPollInterval sets the base polling interval used when the backend
// cannot push notifications.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.poll = d
		}
	}
}

// New returns a watcher for the backend. Call Run to start it.
func New(backend storage.Backend, logger *log.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		backend:  backend,
		log:      logger,
		debounce: DefaultDebounce,
		poll:     DefaultPoll,
		triggers: make(chan struct{}, triggerChannelSize),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Triggers is the bounded stream of reload triggers. It closes when Run
// returns.
func (w *Watcher) Triggers() <-chan struct{} {
	return w.triggers
}

// Suppress marks the next change carrying this fingerprint as our own
// write, to be ignored rather than reloaded.
func (w *Watcher) Suppress(fingerprint string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.suppressed = fingerprint
}

// Run consumes change notifications until ctx is done. It is the single
// owner of the trigger channel and closes it on return.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.triggers)

	raw := make(chan struct{}, 1)
	if notifier, ok := w.backend.(storage.Notifier); ok {
		events, err := notifier.Watch(ctx)
		if err == nil {
			go forward(ctx, events, raw)
		} else {
			w.log.Warn("push watch unavailable, falling back to polling", "err", err)
			go w.pollLoop(ctx, raw)
		}
	} else {
		go w.pollLoop(ctx, raw)
	}

	w.debounceLoop(ctx, raw)
}

func forward(ctx context.Context, in <-chan struct{}, out chan<- struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}

// pollLoop compares fingerprints at a fixed interval, doubling the
// interval after errors up to a cap and resetting it on success.
func (w *Watcher) pollLoop(ctx context.Context, out chan<- struct{}) {
	interval := w.poll
	var prev string
	primed := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		fp, err := w.backend.Fingerprint(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if storage.IsNotFound(err) {
				// Absent file: nothing to report until it appears.
				interval = w.poll
				continue
			}
			w.log.Warn("poll failed", "err", err, "next", interval*2)
			if interval *= 2; interval > maxPollInterval {
				interval = maxPollInterval
			}
			continue
		}
		interval = w.poll

		if !primed {
			prev = fp
			primed = true
			continue
		}
		changed := fp != prev
		prev = fp
		if changed {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}
}

// debounceLoop coalesces raw signals: each signal restarts the window,
// and only a quiet window produces a trigger.
func (w *Watcher) debounceLoop(ctx context.Context, raw <-chan struct{}) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-raw:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			timer = nil
			if w.isOwnWrite(ctx) {
				w.log.Debug("change was our own write, skipping reload")
				continue
			}
			select {
			case w.triggers <- struct{}{}:
			default:
			}
		}
	}
}

// isOwnWrite checks the armed suppression fingerprint against the file's
// current fingerprint. The suppression stays armed until a different
// fingerprint shows up, so one write producing several notifications is
// still swallowed whole.
func (w *Watcher) isOwnWrite(ctx context.Context) bool {
	w.mu.Lock()
	suppressed := w.suppressed
	w.mu.Unlock()
	if suppressed == "" {
		return false
	}

	fp, err := w.backend.Fingerprint(ctx)
	if err != nil {
		w.log.Debug("fingerprint check failed, treating change as external", "err", err)
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if fp == w.suppressed {
		return true
	}
	w.suppressed = ""
	return false
}
