// Package fetch downloads catalog tables published over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rg0now/wd-pollution-survey/internal/retry"
)

// ErrStatus is wrapped when the server answers with a non-200 status.
var ErrStatus = errors.New("unexpected http status")

// StatusError carries the status code of a failed download.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s: %d %s", ErrStatus, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// Fetcher downloads files with retries on transient failures.
type Fetcher struct {
	client *http.Client
	retry  retry.Config
	logger *slog.Logger
}

// New creates a Fetcher. A nil client gets one with the given timeout.
func New(client *http.Client, timeout time.Duration, cfg retry.Config, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client: client,
		retry:  cfg,
		logger: logger.With("component", "fetch"),
	}
}

// Download fetches url into path. The body is written to a temporary file
// in the same directory and renamed into place, so an interrupted download
// never leaves a truncated catalog behind. It returns the bytes written.
func (f *Fetcher) Download(ctx context.Context, url, path string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	n, err := retry.Do(ctx, retry.Options{
		Config:    f.retry,
		Retryable: Retryable,
		Logger:    f.logger,
		Name:      "download " + url,
	}, func(attempt int) (int64, error) {
		return f.downloadOnce(ctx, url, path)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", url, err)
	}

	f.logger.Info("downloaded", "url", url, "path", path, "bytes", n)
	return n, nil
}

func (f *Fetcher) downloadOnce(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("failed to move download into place: %w", err)
	}
	return n, nil
}

// Retryable reports whether a download error is transient: transport
// failures, 429 and 5xx answers. Other statuses and local file errors are
// final.
func Retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	var fsErr *os.PathError
	return !errors.As(err, &fsErr)
}
