package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	appLog "vacplan/internal/log"
)

const (
	DefaultTimeout       = 15 * time.Second
	DefaultRetries       = 3
	DefaultRetryInterval = 500 * time.Millisecond
)

// Source is a single remote document.
type Source struct {
	// ID is used for logging only.
	ID  string
	URL string
}

// Result contains the outcome of fetching a single source.
type Result struct {
	Source    Source
	Body      []byte
	FromCache bool // true if the cached body was reused (304 or fallback)
}

// cacheEntry holds HTTP cache metadata for a single URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Options tunes a Fetcher. Zero values pick the defaults.
type Options struct {
	CacheDir      string
	Timeout       time.Duration
	Retries       int
	RetryInterval time.Duration
	Client        *http.Client
}

// Fetcher downloads documents with conditional requests (ETag /
// Last-Modified), a disk-backed cache and retries on transient failures.
type Fetcher struct {
	client        *http.Client
	cacheDir      string
	retries       int
	retryInterval time.Duration
}

// New creates a Fetcher. An empty CacheDir disables the disk cache.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Fetcher{
		client:        client,
		cacheDir:      opts.CacheDir,
		retries:       opts.Retries,
		retryInterval: opts.RetryInterval,
	}
}

// Fetch downloads src. When the server cannot be reached (after retries) or
// answers with a non-OK status, a previously cached body is returned instead.
func (f *Fetcher) Fetch(ctx context.Context, src Source) (Result, error) {
	if src.URL == "" {
		return Result{}, errors.New("fetch: source URL is empty")
	}

	cachePath := ""
	var meta cacheEntry
	var cachedBody []byte
	if f.cacheDir != "" {
		cachePath = f.cachePathForURL(src.URL)
		if err := os.MkdirAll(cachePath, 0o700); err != nil {
			return Result{}, err
		}
		meta, _ = loadCacheMeta(cachePath)
		cachedBody, _ = loadCacheBody(cachePath)
	}

	appLog.Info("fetch start", "id", src.ID, "url", RedactURL(src.URL))

	var (
		status  int
		body    []byte
		headers http.Header
	)
	attempt := 0
	op := func() error {
		attempt++
		var err error
		status, headers, body, err = f.do(ctx, src.URL, meta, len(cachedBody) > 0)
		if err != nil {
			appLog.Warn("fetch attempt failed", "id", src.ID, "attempt", attempt, "err", err)
			return err
		}
		if status >= 500 {
			appLog.Warn("fetch attempt failed", "id", src.ID, "attempt", attempt, "status", status)
			return fmt.Errorf("fetch: server error %d", status)
		}
		return nil
	}

	var policy backoff.BackOff = backoff.WithMaxRetries(f.newBackOff(), uint64(f.retries))
	policy = backoff.WithContext(policy, ctx)

	if err := backoff.Retry(op, policy); err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("fetch failed, using cached body", err, "id", src.ID, "url", RedactURL(src.URL))
			return Result{Source: src, Body: cachedBody, FromCache: true}, nil
		}
		return Result{}, fmt.Errorf("fetch %s: %w", src.ID, err)
	}

	switch {
	case status == http.StatusOK:
		if cachePath != "" {
			newMeta := cacheEntry{
				URL:          src.URL,
				ETag:         headers.Get("ETag"),
				LastModified: headers.Get("Last-Modified"),
			}
			if err := saveCache(cachePath, newMeta, body); err != nil {
				// Log but still return the freshly fetched body.
				appLog.Error("fetch cache save failed", err, "id", src.ID)
			}
		}
		appLog.Info("fetch success", "id", src.ID, "status", status, "bytes", len(body))
		return Result{Source: src, Body: body}, nil

	case status == http.StatusNotModified:
		if len(cachedBody) == 0 {
			return Result{}, errors.New("fetch: received 304 Not Modified but no cached body available")
		}
		appLog.Info("fetch not modified; using cache", "id", src.ID)
		return Result{Source: src, Body: cachedBody, FromCache: true}, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("fetch non-OK, using cached body", errors.New(http.StatusText(status)), "id", src.ID, "status", status)
			return Result{Source: src, Body: cachedBody, FromCache: true}, nil
		}
		return Result{}, fmt.Errorf("fetch %s: unexpected status %d", src.ID, status)
	}
}

func (f *Fetcher) do(ctx context.Context, url string, meta cacheEntry, conditional bool) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json, text/calendar;q=0.9, */*;q=0.5")

	// Only send validators when there is a body to fall back on.
	if conditional {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, resp.Header, nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, err
	}
	return resp.StatusCode, resp.Header, body, nil
}

func (f *Fetcher) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.retryInterval
	b.MaxInterval = 8 * f.retryInterval
	b.MaxElapsedTime = 0
	return b
}

func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	// First 16 hex chars as directory name.
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body"))
}

func saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}
