package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Retry policy for remote requests. Auth failures are never retried;
// everything else backs off exponentially until the budget is spent.
const (
	webdavAttempts    = 3
	webdavBackoffBase = 500 * time.Millisecond
	webdavTimeout     = 10 * time.Second
)

// WebDAV stores the todo file on a WebDAV-style share. The share offers no
// push notification, so Watch is deliberately not implemented and change
// detection falls back to fingerprint polling.
type WebDAV struct {
	url      string
	username string
	password string
	client   *http.Client
	log      *log.Logger
}

// NewWebDAV returns a backend for the given share URL.
func NewWebDAV(url, username, password string, logger *log.Logger) *WebDAV {
	return &WebDAV{
		url:      url,
		username: username,
		password: password,
		client:   &http.Client{Timeout: webdavTimeout},
		log:      logger,
	}
}

// Read fetches the file with GET.
func (w *WebDAV) Read(ctx context.Context) ([]byte, error) {
	var body []byte
	err := w.retry(ctx, "read", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
		if err != nil {
			return err
		}
		resp, err := w.do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if err := w.classify(resp.StatusCode); err != nil {
			return err
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Write replaces the file with PUT. WebDAV PUT swaps the resource in one
// request, so remote readers never see a partial file.
func (w *WebDAV) Write(ctx context.Context, data []byte) error {
	return w.retry(ctx, "write", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, w.url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "text/markdown; charset=utf-8")
		resp, err := w.do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		return w.classify(resp.StatusCode)
	})
}

// Fingerprint issues a HEAD request and combines validator headers.
// Shares that send neither ETag nor Last-Modified get a content hash
// instead; Content-Length alone would miss same-size edits.
func (w *WebDAV) Fingerprint(ctx context.Context) (string, error) {
	var fp string
	err := w.retry(ctx, "fingerprint", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, w.url, nil)
		if err != nil {
			return err
		}
		resp, err := w.do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if err := w.classify(resp.StatusCode); err != nil {
			return err
		}

		etag := resp.Header.Get("ETag")
		modified := resp.Header.Get("Last-Modified")
		if etag == "" && modified == "" {
			sum, err := w.contentHash(ctx)
			if err != nil {
				return err
			}
			fp = sum
			return nil
		}
		fp = fmt.Sprintf("%s|%s|%s", etag, modified, resp.Header.Get("Content-Length"))
		return nil
	})
	if err != nil {
		return "", err
	}
	return fp, nil
}

// contentHash downloads the file and hashes it.
func (w *WebDAV) contentHash(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := w.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := w.classify(resp.StatusCode); err != nil {
		io.Copy(io.Discard, resp.Body)
		return "", err
	}
	h := sha256.New()
	if _, err := io.Copy(h, resp.Body); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256-%x", h.Sum(nil)), nil
}

// Check verifies that the share is reachable and the credentials are
// accepted. A missing file is fine; the first save creates it.
func (w *WebDAV) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, w.url, nil)
	if err != nil {
		return err
	}
	resp, err := w.do(req)
	if err != nil {
		return fmt.Errorf("webdav check %s: %w: %v", w.url, ErrNetwork, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if err := w.classify(resp.StatusCode); err != nil && !IsNotFound(err) {
		return fmt.Errorf("webdav check %s: %w", w.url, err)
	}
	return nil
}

func (w *WebDAV) do(req *http.Request) (*http.Response, error) {
	if w.username != "" || w.password != "" {
		req.SetBasicAuth(w.username, w.password)
	}
	return w.client.Do(req)
}

func (w *WebDAV) classify(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("http %d: %w", status, ErrAuth)
	case status == http.StatusNotFound:
		return fmt.Errorf("http %d: %w", status, ErrNotFound)
	default:
		return fmt.Errorf("http %d", status)
	}
}

// retry runs fn with exponential backoff. Auth failures and missing files
// surface immediately; other errors are treated as network trouble.
func (w *WebDAV) retry(ctx context.Context, op string, fn func() error) error {
	backoff := webdavBackoffBase
	var err error
	for attempt := 1; attempt <= webdavAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if IsAuth(err) || IsNotFound(err) {
			return fmt.Errorf("webdav %s %s: %w", op, w.url, err)
		}
		if attempt == webdavAttempts {
			break
		}
		w.log.Warn("webdav request failed, retrying", "op", op, "attempt", attempt, "err", err)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return fmt.Errorf("webdav %s %s: %w: %v", op, w.url, ErrNetwork, err)
}
