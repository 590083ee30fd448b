// Package assets implements the asset pipeline of spec §4.4: fetching
// a version's asset index, then every object it names, reporting
// aggregate progress across both phases.
package assets

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/kestrux/mclaunch/internal/download"
	"github.com/kestrux/mclaunch/internal/mcerr"
	"github.com/kestrux/mclaunch/internal/model"
	"github.com/kestrux/mclaunch/internal/source"
)

// Result is the outcome of downloading a full asset set.
type Result struct {
	Total   int
	Success int
	Failed  int
}

// ProgressFunc is called with a 0-100 percentage, floored to whole
// percent increments so callers aren't flooded (spec §4.4 step 4).
type ProgressFunc func(percent int)

// Pipeline downloads and verifies asset indexes and objects.
type Pipeline struct {
	httpClient *http.Client
	downloads  *download.Manager
	assetsDir  string
	src        source.Source
}

// NewPipeline builds a Pipeline rooted at assetsDir (typically
// "<data_dir>/assets"), fetching object URLs through src.
func NewPipeline(assetsDir string, src source.Source, concurrency int) *Pipeline {
	return &Pipeline{
		httpClient: &http.Client{},
		downloads:  download.NewManager(concurrency),
		assetsDir:  assetsDir,
		src:        src,
	}
}

// DownloadAll implements download_all_assets of spec §4.4.
func (p *Pipeline) DownloadAll(ctx context.Context, descriptor *model.VersionDescriptor, progress ProgressFunc) (*Result, error) {
	index, err := p.fetchIndex(ctx, descriptor.AssetIndex)
	if err != nil {
		return nil, fmt.Errorf("fetching asset index: %w", err)
	}
	reportPercent(progress, 2, -1)

	items := make([]download.Item, 0, len(index.Objects))
	for _, obj := range index.Objects {
		items = append(items, p.objectItem(obj))
	}

	result := &Result{Total: len(items)}
	if len(items) == 0 {
		reportPercent(progress, 100, -1)
		return result, nil
	}

	lastPercent := 2
	completed := 0
	for _, batch := range batchItems(items, 32) {
		batchResult, err := p.downloads.Download(ctx, batch, nil)
		if err != nil {
			return nil, fmt.Errorf("downloading asset batch: %w", err)
		}
		result.Success += batchResult.Completed
		result.Failed += batchResult.Failed
		completed += len(batch)

		pct := 2 + int(float64(completed)/float64(len(items))*98)
		reportPercent(progress, pct, lastPercent)
		lastPercent = pct
	}

	return result, nil
}

func (p *Pipeline) objectItem(obj model.AssetObject) download.Item {
	prefix := obj.Hash[:2]
	url := source.Rewrite(source.ResourceBase(p.src)+"/"+prefix+"/"+obj.Hash, p.src)
	path := filepath.Join(p.assetsDir, "objects", prefix, obj.Hash)
	// Filename equals the SHA-1: presence at the expected path implies
	// correctness, so verification is suppressed (spec §4.4 step 3).
	return download.Item{URL: url, Path: path, Size: obj.Size}
}

func (p *Pipeline) fetchIndex(ctx context.Context, ref model.AssetIndexRef) (*model.AssetIndex, error) {
	indexPath := filepath.Join(p.assetsDir, "indexes", ref.ID+".json")

	if data, err := os.ReadFile(indexPath); err == nil {
		if matchesSHA1(data, ref.SHA1) {
			var index model.AssetIndex
			if err := json.Unmarshal(data, &index); err == nil {
				return &index, nil
			}
		}
	}

	url := source.Rewrite(ref.URL, p.src)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching asset index", resp.StatusCode)
	}

	data := make([]byte, 0, ref.TotalSize)
	buf := make([]byte, 64*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
		}
		if readErr != nil {
			break
		}
	}

	if ref.SHA1 != "" && !matchesSHA1(data, ref.SHA1) {
		h := sha1.Sum(data)
		return nil, &mcerr.IntegrityError{Path: indexPath, Expected: ref.SHA1, Actual: hex.EncodeToString(h[:])}
	}

	var index model.AssetIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("decoding asset index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(indexPath, data, 0o644); err != nil {
		return nil, err
	}

	return &index, nil
}

func matchesSHA1(data []byte, expected string) bool {
	if expected == "" {
		return false
	}
	h := sha1.Sum(data)
	return strings.EqualFold(hex.EncodeToString(h[:]), expected)
}

func reportPercent(progress ProgressFunc, percent, last int) {
	if progress == nil {
		return
	}
	if percent == last {
		return
	}
	progress(percent)
}

func batchItems(items []download.Item, size int) [][]download.Item {
	var batches [][]download.Item
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}
