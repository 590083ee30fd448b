package fabric

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kestrux/mclaunch/internal/model"
)

func TestLatestStableLoader_PicksHighestSemverAmongStable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"loader": {"version": "0.15.0", "stable": true}},
			{"loader": {"version": "0.16.0-beta.1", "stable": false}},
			{"loader": {"version": "0.14.9", "stable": true}}
		]`))
	}))
	defer server.Close()

	src := ProfileSource{Name: "fabric", BaseURL: server.URL}
	got, err := LatestStableLoader(context.Background(), src, "1.21")
	if err != nil {
		t.Fatalf("LatestStableLoader: %v", err)
	}
	if got != "0.15.0" {
		t.Errorf("expected the highest stable version 0.15.0, got %q", got)
	}
}

func TestFilterLoaderLibraries_Fabric(t *testing.T) {
	libs := []model.Library{
		{Name: "net.fabricmc:fabric-loader:0.15.0"},
		{Name: "org.ow2.asm:asm:9.5"},
		{Name: "net.fabricmc:intermediary:1.21"},
	}

	filtered := filterLoaderLibraries(libs, "fabric")
	if len(filtered) != 2 {
		t.Fatalf("expected 2 fabric libraries, got %d: %v", len(filtered), filtered)
	}
}

func TestFilterLoaderLibraries_Quilt(t *testing.T) {
	libs := []model.Library{
		{Name: "org.quiltmc:quilt-loader:0.20.0"},
		{Name: "com.google.guava:guava:31.1-jre"},
	}

	filtered := filterLoaderLibraries(libs, "quilt")
	if len(filtered) != 1 || filtered[0].Name != "org.quiltmc:quilt-loader:0.20.0" {
		t.Fatalf("unexpected filtered set: %v", filtered)
	}
}
