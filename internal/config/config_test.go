package config

import (
	"path/filepath"
	"testing"
)

func TestPaths_MatchesDiskLayoutInvariants(t *testing.T) {
	p := New("/data")

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"manifest", p.ManifestPath(), "/data/version_manifest.json"},
		{"descriptor", p.DescriptorPath("1.21"), "/data/versions/1.21/1.21.json"},
		{"client jar", p.ClientJarPath("1.21"), "/data/versions/1.21/1.21.jar"},
		{"natives", p.NativesDir("1.21"), "/data/versions/1.21/1.21-natives"},
		{"asset index", p.AssetIndexPath("17"), "/data/assets/indexes/17.json"},
		{"asset object", p.AssetObjectPath("abcd1234"), "/data/assets/objects/ab/abcd1234"},
		{"forge downloads", p.ForgeDownloadsDir, "/data/downloads/forge"},
		{"fabric downloads", p.FabricDownloadsDir, "/data/downloads/fabric"},
	}

	for _, c := range cases {
		if filepath.ToSlash(c.got) != c.want {
			t.Errorf("%s: got %q, want %q", c.name, c.got, c.want)
		}
	}
}

func TestAssetObjectPath_ShortHashFallsBackToWholeHash(t *testing.T) {
	p := New("/data")
	got := filepath.ToSlash(p.AssetObjectPath("a"))
	want := "/data/assets/objects/a/a"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
