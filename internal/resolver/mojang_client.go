// Package resolver implements the version-metadata resolver of spec
// §4.3: a two-level (memory, then disk) cache in front of Mojang's
// version manifest and a disk cache in front of per-version
// descriptors, with every upstream URL routed through the source
// package so callers can choose the primary host or the alternate
// mirror.
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kestrux/mclaunch/internal/download"
	"github.com/kestrux/mclaunch/internal/mcerr"
	"github.com/kestrux/mclaunch/internal/model"
	"github.com/kestrux/mclaunch/internal/source"
)

const (
	manifestDiskCacheTTL = 24 * time.Hour
	descriptorPath       = "descriptor"
)

// Client resolves version manifests and descriptors, routing every
// fetch through the configured Source and caching results on disk so
// repeated resolution doesn't refetch within the cache window.
type Client struct {
	httpClient *http.Client
	cacheDir   string
	source     source.Source
	downloads  *download.Manager

	manifest     *model.VersionManifest
	manifestTime time.Time
}

// NewClient builds a resolver rooted at cacheDir (typically the data
// directory root, so the manifest cache is version_manifest.json
// there), fetching through src.
func NewClient(cacheDir string, src source.Source) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cacheDir:   cacheDir,
		source:     src,
		downloads:  download.NewManager(4),
	}
}

// GetManifest implements get_manifest of spec §4.3: in-memory copy
// first, then an on-disk cache younger than 24h, then a network fetch.
func (c *Client) GetManifest(ctx context.Context, forceRefresh bool) (*model.VersionManifest, error) {
	if !forceRefresh && c.manifest != nil {
		return c.manifest, nil
	}

	if !forceRefresh {
		if cached, ok := c.loadCachedManifest(); ok {
			c.manifest = &cached.Manifest
			c.manifestTime = cached.CacheTime
			return c.manifest, nil
		}
	}

	manifest, err := c.fetchManifest(ctx)
	if err != nil {
		if cached, ok := c.loadCachedManifestStale(); ok {
			c.manifest = &cached.Manifest
			return c.manifest, nil
		}
		return nil, &mcerr.ManifestError{Err: err}
	}

	c.manifest = manifest
	c.manifestTime = time.Now()
	_ = c.saveCachedManifest(manifest, c.manifestTime)

	return manifest, nil
}

func (c *Client) fetchManifest(ctx context.Context) (*model.VersionManifest, error) {
	url := source.ManifestBase(c.source) + "/mc/game/version_manifest_v2.json"
	url = source.Rewrite(url, c.source)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building manifest request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &mcerr.TransportError{Status: resp.StatusCode, URL: url}
	}

	var manifest model.VersionManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return &manifest, nil
}

func (c *Client) manifestCachePath() string {
	return filepath.Join(c.cacheDir, "version_manifest.json")
}

func (c *Client) loadCachedManifest() (*model.CachedManifest, bool) {
	cached, err := c.readCachedManifestFile()
	if err != nil {
		return nil, false
	}
	if time.Since(cached.CacheTime) >= manifestDiskCacheTTL {
		return nil, false
	}
	return cached, true
}

// loadCachedManifestStale ignores TTL — used only as a last resort
// when the network is unreachable and no fresher cache exists.
func (c *Client) loadCachedManifestStale() (*model.CachedManifest, bool) {
	cached, err := c.readCachedManifestFile()
	if err != nil {
		return nil, false
	}
	return cached, true
}

func (c *Client) readCachedManifestFile() (*model.CachedManifest, error) {
	data, err := os.ReadFile(c.manifestCachePath())
	if err != nil {
		return nil, err
	}
	var cached model.CachedManifest
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("decoding cached manifest: %w", err)
	}
	return &cached, nil
}

func (c *Client) saveCachedManifest(manifest *model.VersionManifest, at time.Time) error {
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return err
	}
	cached := model.CachedManifest{CacheTime: at, Manifest: *manifest}
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("encoding manifest cache: %w", err)
	}
	return os.WriteFile(c.manifestCachePath(), data, 0o644)
}

// GetDescriptor implements get_descriptor of spec §4.3 with a disk
// cache keyed on versionID and trusted for 24 hours. Descriptors are
// not kept in memory between calls: each call without a fresh disk
// cache fetches again.
func (c *Client) GetDescriptor(ctx context.Context, versionID string, forceRefresh bool) (*model.VersionDescriptor, error) {
	if !forceRefresh {
		if desc, ok := c.loadCachedDescriptor(versionID); ok {
			return desc, nil
		}
	}

	manifest, err := c.GetManifest(ctx, false)
	if err != nil {
		return nil, err
	}

	var stub *model.VersionStub
	for i := range manifest.Versions {
		if manifest.Versions[i].ID == versionID {
			stub = &manifest.Versions[i]
			break
		}
	}
	if stub == nil {
		return nil, &mcerr.UnknownVersion{ID: versionID}
	}

	url := source.Rewrite(stub.DescriptorURL, c.source)
	desc, err := c.fetchDescriptor(ctx, url)
	if err != nil {
		return nil, err
	}

	_ = c.saveCachedDescriptor(versionID, desc, time.Now())
	return desc, nil
}

func (c *Client) fetchDescriptor(ctx context.Context, url string) (*model.VersionDescriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building descriptor request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching descriptor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &mcerr.TransportError{Status: resp.StatusCode, URL: url}
	}

	var desc model.VersionDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return nil, fmt.Errorf("decoding descriptor: %w", err)
	}
	return &desc, nil
}

func (c *Client) descriptorCachePath(versionID string) string {
	return filepath.Join(c.cacheDir, "versions_info_cache", versionID+".json")
}

type cachedDescriptor struct {
	CacheTime  time.Time               `json:"cache_time"`
	Descriptor model.VersionDescriptor `json:"descriptor"`
}

func (c *Client) loadCachedDescriptor(versionID string) (*model.VersionDescriptor, bool) {
	data, err := os.ReadFile(c.descriptorCachePath(versionID))
	if err != nil {
		return nil, false
	}
	var cached cachedDescriptor
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	if time.Since(cached.CacheTime) >= manifestDiskCacheTTL {
		return nil, false
	}
	return &cached.Descriptor, true
}

func (c *Client) saveCachedDescriptor(versionID string, desc *model.VersionDescriptor, at time.Time) error {
	path := c.descriptorCachePath(versionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	cached := cachedDescriptor{CacheTime: at, Descriptor: *desc}
	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("encoding descriptor cache: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LatestVersions implements latest_versions of spec §4.3.
func (c *Client) LatestVersions(ctx context.Context) (release, snapshot *model.VersionStub, err error) {
	manifest, err := c.GetManifest(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	for i := range manifest.Versions {
		v := &manifest.Versions[i]
		if v.ID == manifest.Latest.Release {
			release = v
		}
		if v.ID == manifest.Latest.Snapshot {
			snapshot = v
		}
	}
	return release, snapshot, nil
}

// DownloadURLs implements download_urls_for of spec §4.3: returns the
// client URL and, when present, the server URL, both routed through
// the source.
type DownloadURLs struct {
	Client string
	Server string
}

func (c *Client) DownloadURLs(ctx context.Context, versionID string) (*DownloadURLs, error) {
	desc, err := c.GetDescriptor(ctx, versionID, false)
	if err != nil {
		return nil, err
	}

	urls := &DownloadURLs{}
	if desc.Downloads.Client != nil {
		urls.Client = source.Rewrite(desc.Downloads.Client.URL, c.source)
	}
	if desc.Downloads.Server != nil {
		urls.Server = source.Rewrite(desc.Downloads.Server.URL, c.source)
	}
	return urls, nil
}

// DownloadClientJar fetches the client JAR for versionID to dest,
// verified by its recorded SHA-1.
func (c *Client) DownloadClientJar(ctx context.Context, versionID, dest string) error {
	desc, err := c.GetDescriptor(ctx, versionID, false)
	if err != nil {
		return err
	}
	if desc.Downloads.Client == nil {
		return fmt.Errorf("version %s has no client download", versionID)
	}
	return c.downloadEntry(ctx, desc.Downloads.Client, dest)
}

// DownloadServerJar fetches the server JAR for versionID, or the
// Windows server variant when windows is true.
func (c *Client) DownloadServerJar(ctx context.Context, versionID, dest string, windows bool) error {
	desc, err := c.GetDescriptor(ctx, versionID, false)
	if err != nil {
		return err
	}
	entry := desc.Downloads.Server
	if windows {
		entry = desc.Downloads.WindowsServer
	}
	if entry == nil {
		return fmt.Errorf("version %s has no server download", versionID)
	}
	return c.downloadEntry(ctx, entry, dest)
}

func (c *Client) downloadEntry(ctx context.Context, entry *model.DownloadEntry, dest string) error {
	return c.downloads.Fetch(ctx, download.Item{
		URL:  source.Rewrite(entry.URL, c.source),
		Path: dest,
		SHA1: entry.SHA1,
		Size: entry.Size,
	})
}
