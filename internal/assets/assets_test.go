package assets

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kestrux/mclaunch/internal/download"
	"github.com/kestrux/mclaunch/internal/model"
	"github.com/kestrux/mclaunch/internal/source"
)

// rewriteTransport redirects every outgoing request to target's host,
// regardless of what host the request was built for — lets the test
// exercise real URL construction (including the hardcoded
// resources.download.minecraft.net base) against a local server.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	req.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestDownloadAll_FetchesIndexAndObjects(t *testing.T) {
	objContent := []byte("asset-bytes")
	objHash := sha1.Sum(objContent)
	objHashHex := hex.EncodeToString(objHash[:])

	index := model.AssetIndex{Objects: map[string]model.AssetObject{
		"sound/click.ogg": {Hash: objHashHex, Size: int64(len(objContent))},
	}}
	indexJSON, _ := json.Marshal(index)
	indexHash := sha1.Sum(indexJSON)
	indexHashHex := hex.EncodeToString(indexHash[:])

	mux := http.NewServeMux()
	mux.HandleFunc("/indexes/5.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write(indexJSON)
	})
	mux.HandleFunc("/"+objHashHex[:2]+"/"+objHashHex, func(w http.ResponseWriter, r *http.Request) {
		w.Write(objContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	serverURL, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parsing server URL: %v", err)
	}

	assetsDir := t.TempDir()
	pipeline := NewPipeline(assetsDir, source.Primary, 2)
	rewriteClient := &http.Client{Transport: rewriteTransport{target: serverURL}}
	pipeline.httpClient = rewriteClient
	pipeline.downloads = download.NewManagerWithClient(2, rewriteClient)

	descriptor := &model.VersionDescriptor{
		AssetIndex: model.AssetIndexRef{
			ID:   "5",
			SHA1: indexHashHex,
			URL:  server.URL + "/indexes/5.json",
		},
	}

	var percents []int
	result, err := pipeline.DownloadAll(context.Background(), descriptor, func(p int) { percents = append(percents, p) })
	if err != nil {
		t.Fatalf("DownloadAll: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected 1 object, got %d", result.Total)
	}

	indexOnDisk := filepath.Join(assetsDir, "indexes", "5.json")
	if _, err := os.Stat(indexOnDisk); err != nil {
		t.Errorf("expected asset index cached on disk: %v", err)
	}

	if len(percents) == 0 || percents[0] != 2 {
		t.Errorf("expected progress to start at 2%%, got %v", percents)
	}
}

func TestFetchIndex_SkipsNetworkWhenCachedMatches(t *testing.T) {
	index := model.AssetIndex{Objects: map[string]model.AssetObject{}}
	indexJSON, _ := json.Marshal(index)
	hash := sha1.Sum(indexJSON)
	hashHex := hex.EncodeToString(hash[:])

	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write(indexJSON)
	}))
	defer server.Close()

	assetsDir := t.TempDir()
	indexPath := filepath.Join(assetsDir, "indexes", "5.json")
	os.MkdirAll(filepath.Dir(indexPath), 0o755)
	os.WriteFile(indexPath, indexJSON, 0o644)

	pipeline := NewPipeline(assetsDir, source.Primary, 2)
	pipeline.httpClient = server.Client()

	_, err := pipeline.fetchIndex(context.Background(), model.AssetIndexRef{
		ID: "5", SHA1: hashHex, URL: server.URL,
	})
	if err != nil {
		t.Fatalf("fetchIndex: %v", err)
	}
	if called {
		t.Error("network should not be hit when the cached index already matches its SHA-1")
	}
}

func TestFetchIndex_RejectsDownloadedIndexOnSHA1Mismatch(t *testing.T) {
	index := model.AssetIndex{Objects: map[string]model.AssetObject{}}
	indexJSON, _ := json.Marshal(index)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(indexJSON)
	}))
	defer server.Close()

	assetsDir := t.TempDir()
	pipeline := NewPipeline(assetsDir, source.Primary, 2)
	pipeline.httpClient = server.Client()

	_, err := pipeline.fetchIndex(context.Background(), model.AssetIndexRef{
		ID: "5", SHA1: "0000000000000000000000000000000000dead", URL: server.URL,
	})
	if err == nil {
		t.Fatal("expected an error when the downloaded index doesn't match its recorded SHA-1")
	}

	indexPath := filepath.Join(assetsDir, "indexes", "5.json")
	if _, statErr := os.Stat(indexPath); !os.IsNotExist(statErr) {
		t.Error("a corrupt index must not be written to disk")
	}
}

func TestMatchesSHA1(t *testing.T) {
	data := []byte("hello")
	h := sha1.Sum(data)
	hex := hex.EncodeToString(h[:])
	if !matchesSHA1(data, strings.ToUpper(hex)) {
		t.Error("matchesSHA1 should be case-insensitive")
	}
	if matchesSHA1(data, "") {
		t.Error("an empty expected hash should never match")
	}
}
