// Package download implements the concurrent download engine of
// spec §4.1: a single-file fetch with redirect handling and optional
// SHA-1 verification, and a bounded-concurrency batch fan-out over
// many such fetches with periodic progress reporting.
package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kestrux/mclaunch/internal/mcerr"
)

const (
	requestTimeout  = 60 * time.Second
	maxRedirectHops = 10
)

// Item represents a single file to fetch.
type Item struct {
	URL  string
	Path string // local destination path
	SHA1 string // expected SHA-1 hash; empty skips verification
	Size int64  // expected size in bytes, used to seed progress totals
}

// Progress reports the state of an in-flight batch.
type Progress struct {
	TotalBytes      int64
	DownloadedBytes int64
	TotalItems      int
	CompletedItems  int
	CurrentItem     string
	Speed           float64 // bytes per second
}

// Manager fetches files over HTTP(S), bounding in-flight fetches to a
// fixed concurrency.
type Manager struct {
	httpClient  *http.Client
	workerCount int

	mu              sync.RWMutex
	progress        Progress
	downloadedBytes int64
}

// NewManager builds a Manager whose transport retries transient
// failures. Redirects are not auto-followed by the client: Fetch
// recurses on each hop itself so SHA-1 verification and progress carry
// through every hop, per spec §4.1 step 3.
func NewManager(workerCount int) *Manager {
	if workerCount <= 0 {
		workerCount = 4
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	retryClient.HTTPClient.Transport = &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	retryClient.HTTPClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Manager{
		httpClient:  retryClient.StandardClient(),
		workerCount: workerCount,
	}
}

// NewManagerWithClient builds a Manager around a caller-supplied HTTP
// client, bypassing the retry wrapper. Used by package tests that need
// to point fetches at a local test server.
func NewManagerWithClient(workerCount int, client *http.Client) *Manager {
	if workerCount <= 0 {
		workerCount = 4
	}
	return &Manager{httpClient: client, workerCount: workerCount}
}

// Result contains the outcome of a download batch.
type Result struct {
	Completed int
	Failed    int
	Errors    []error
}

// Download runs the batch contract of spec §4.1: up to workerCount
// fetches in flight, a successor starting as soon as a slot frees, one
// item's failure never aborting its peers. The fan-out is a
// semaphore-bounded permit per in-flight fetch (spec §9 design note),
// not a polling loop.
func (m *Manager) Download(ctx context.Context, items []Item, progressChan chan<- Progress) (*Result, error) {
	if len(items) == 0 {
		return &Result{}, nil
	}

	var totalSize int64
	for _, item := range items {
		totalSize += item.Size
	}

	m.mu.Lock()
	m.progress = Progress{TotalBytes: totalSize, TotalItems: len(items)}
	m.downloadedBytes = 0
	m.mu.Unlock()

	var (
		completed int64
		failed    int64
		errMu     sync.Mutex
		errs      []error
	)

	doneSignal := make(chan struct{})
	progressDone := make(chan struct{})
	if progressChan != nil {
		go m.reportProgress(ctx, doneSignal, progressDone, progressChan, &completed)
	} else {
		close(progressDone)
	}

	sem := semaphore.NewWeighted(int64(m.workerCount))
	group, gctx := errgroup.WithContext(ctx)

	for _, item := range items {
		item := item
		if err := sem.Acquire(gctx, 1); err != nil {
			errMu.Lock()
			errs = append(errs, fmt.Errorf("%s: %w", item.URL, err))
			errMu.Unlock()
			atomic.AddInt64(&failed, 1)
			continue
		}
		group.Go(func() error {
			defer sem.Release(1)

			m.mu.Lock()
			m.progress.CurrentItem = filepath.Base(item.Path)
			m.mu.Unlock()

			if err := m.fetchItem(gctx, item, 0); err != nil {
				atomic.AddInt64(&failed, 1)
				errMu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", item.URL, err))
				errMu.Unlock()
			} else {
				atomic.AddInt64(&completed, 1)
			}
			// A single item's failure never cancels its peers.
			return nil
		})
	}

	_ = group.Wait()
	close(doneSignal)
	<-progressDone

	return &Result{
		Completed: int(completed),
		Failed:    int(failed),
		Errors:    errs,
	}, nil
}

func (m *Manager) reportProgress(ctx context.Context, doneSignal, progressDone chan struct{}, progressChan chan<- Progress, completed *int64) {
	defer close(progressDone)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var lastBytes int64
	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-doneSignal:
			return
		case <-ticker.C:
			m.mu.RLock()
			p := m.progress
			m.mu.RUnlock()
			currentBytes := atomic.LoadInt64(&m.downloadedBytes)

			now := time.Now()
			if elapsed := now.Sub(lastTime).Seconds(); elapsed > 0 {
				p.Speed = float64(currentBytes-lastBytes) / elapsed
				lastBytes = currentBytes
				lastTime = now
			}
			p.DownloadedBytes = currentBytes
			p.CompletedItems = int(atomic.LoadInt64(completed))

			select {
			case progressChan <- p:
			default:
			}
		}
	}
}

// Fetch performs the single-file contract of spec §4.1 in isolation,
// without batch bookkeeping.
func (m *Manager) Fetch(ctx context.Context, item Item) error {
	return m.fetchItem(ctx, item, 0)
}

func (m *Manager) fetchItem(ctx context.Context, item Item, hop int) error {
	if item.SHA1 != "" {
		if hash, err := hashFile(item.Path); err == nil && strings.EqualFold(hash, item.SHA1) {
			atomic.AddInt64(&m.downloadedBytes, item.Size)
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(item.Path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, item.URL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return &mcerr.TimeoutError{URL: item.URL, Err: err}
		}
		return fmt.Errorf("downloading: %w", err)
	}
	defer resp.Body.Close()

	if isRedirect(resp.StatusCode) {
		location := resp.Header.Get("Location")
		if location == "" {
			return &mcerr.TransportError{Status: resp.StatusCode, URL: item.URL}
		}
		if hop >= maxRedirectHops {
			return fmt.Errorf("too many redirects fetching %s", item.URL)
		}
		next := resolveRedirect(req.URL.String(), location)
		return m.fetchItem(ctx, Item{URL: next, Path: item.Path, SHA1: item.SHA1, Size: item.Size}, hop+1)
	}

	if resp.StatusCode != http.StatusOK {
		return &mcerr.TransportError{Status: resp.StatusCode, URL: item.URL}
	}

	return m.stream(item, resp)
}

func (m *Manager) stream(item Item, resp *http.Response) error {
	tmpPath := item.Path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	hasher := sha1.New()
	var writer io.Writer = f
	if item.SHA1 != "" {
		writer = io.MultiWriter(f, hasher)
	}

	fail := func(err error) error {
		f.Close()
		os.Remove(tmpPath)
		return err
	}

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := writer.Write(buf[:n]); writeErr != nil {
				return fail(fmt.Errorf("writing file: %w", writeErr))
			}
			atomic.AddInt64(&m.downloadedBytes, int64(n))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fail(fmt.Errorf("reading response: %w", readErr))
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing file: %w", err)
	}

	if item.SHA1 != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(actual, item.SHA1) {
			os.Remove(tmpPath)
			return &mcerr.IntegrityError{Path: item.Path, Expected: item.SHA1, Actual: actual}
		}
	}

	if err := os.Rename(tmpPath, item.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming file: %w", err)
	}

	return nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	default:
		return false
	}
}

func resolveRedirect(base, location string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return location
	}
	return baseURL.ResolveReference(ref).String()
}

// hashFile computes the SHA-1 of a file already on disk.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FormatSpeed formats a download speed for display.
func FormatSpeed(bytesPerSec float64) string {
	return humanize.Bytes(uint64(bytesPerSec)) + "/s"
}

// FormatBytes formats a byte count for display.
func FormatBytes(n int64) string {
	return humanize.Bytes(uint64(n))
}
