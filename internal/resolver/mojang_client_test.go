package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kestrux/mclaunch/internal/mcerr"
	"github.com/kestrux/mclaunch/internal/model"
	"github.com/kestrux/mclaunch/internal/source"
)

func TestGetManifest_UsesFreshDiskCache(t *testing.T) {
	manifest := model.VersionManifest{
		Latest: model.LatestVersions{Release: "1.21", Snapshot: "1.21-rc1"},
		Versions: []model.VersionStub{
			{ID: "1.21", Type: model.VersionTypeRelease, DescriptorURL: "https://example.com/1.21.json"},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(manifest)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	client := NewClient(cacheDir, source.Primary)
	client.httpClient = server.Client()

	// fetchManifest always hits the hardcoded Mojang host, so point at
	// the test server via source rewriting isn't applicable here;
	// instead exercise the cache path directly.
	if err := client.saveCachedManifest(&manifest, time.Now()); err != nil {
		t.Fatalf("saveCachedManifest: %v", err)
	}

	got, err := client.GetManifest(context.Background(), false)
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if got.Latest.Release != "1.21" {
		t.Errorf("expected cached manifest to be used, got %+v", got.Latest)
	}
}

func TestGetManifest_StaleCacheIgnored(t *testing.T) {
	manifest := model.VersionManifest{Latest: model.LatestVersions{Release: "1.20"}}
	cacheDir := t.TempDir()
	client := NewClient(cacheDir, source.Primary)

	stale := time.Now().Add(-48 * time.Hour)
	if err := client.saveCachedManifest(&manifest, stale); err != nil {
		t.Fatalf("saveCachedManifest: %v", err)
	}

	if _, ok := client.loadCachedManifest(); ok {
		t.Fatal("a manifest cached 48h ago should not satisfy the 24h TTL")
	}
}

func TestGetDescriptor_UnknownVersion(t *testing.T) {
	manifest := model.VersionManifest{
		Versions: []model.VersionStub{{ID: "1.21", DescriptorURL: "https://example.com/1.21.json"}},
	}

	cacheDir := t.TempDir()
	client := NewClient(cacheDir, source.Primary)
	if err := client.saveCachedManifest(&manifest, time.Now()); err != nil {
		t.Fatalf("saveCachedManifest: %v", err)
	}

	_, err := client.GetDescriptor(context.Background(), "nonexistent", false)
	var unknownErr *mcerr.UnknownVersion
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected *mcerr.UnknownVersion, got %T (%v)", err, err)
	}
}

func TestDescriptorCacheRoundTrip(t *testing.T) {
	cacheDir := t.TempDir()
	client := NewClient(cacheDir, source.Primary)

	desc := &model.VersionDescriptor{ID: "1.21", MainClass: "net.minecraft.client.main.Main"}
	if err := client.saveCachedDescriptor("1.21", desc, time.Now()); err != nil {
		t.Fatalf("saveCachedDescriptor: %v", err)
	}

	got, ok := client.loadCachedDescriptor("1.21")
	if !ok {
		t.Fatal("expected cached descriptor to be found")
	}
	if got.MainClass != desc.MainClass {
		t.Errorf("MainClass mismatch: got %q", got.MainClass)
	}

	if _, err := os.Stat(filepath.Join(cacheDir, "versions_info_cache", "1.21.json")); err != nil {
		t.Errorf("expected descriptor cache file on disk: %v", err)
	}
}
