// Package config resolves the single data directory the SDK owns and
// the fixed sub-paths within it, per the disk layout invariants of
// spec §3.
package config

import (
	"os"
	"path/filepath"
)

// Paths holds every on-disk location derived from a single data root.
// The root is owned exclusively by one SDK instance during any
// operation (spec §3's ownership invariant) — Paths itself holds no
// lock, it only names locations.
type Paths struct {
	Root string

	VersionsDir  string
	LibrariesDir string
	AssetsDir    string
	DownloadsDir string

	ForgeDownloadsDir  string
	FabricDownloadsDir string
}

// New derives the full Paths tree from a data root, creating nothing.
func New(root string) *Paths {
	downloadsDir := filepath.Join(root, "downloads")
	return &Paths{
		Root:               root,
		VersionsDir:        filepath.Join(root, "versions"),
		LibrariesDir:       filepath.Join(root, "libraries"),
		AssetsDir:          filepath.Join(root, "assets"),
		DownloadsDir:       downloadsDir,
		ForgeDownloadsDir:  filepath.Join(downloadsDir, "forge"),
		FabricDownloadsDir: filepath.Join(downloadsDir, "fabric"),
	}
}

// Default resolves the platform-appropriate data root: a portable
// "data" directory next to the executable if present, else
// $XDG_DATA_HOME/mclaunch, else %APPDATA%/mclaunch, else
// ~/.local/share/mclaunch.
func Default() *Paths {
	return New(defaultDataDir())
}

// ManifestPath is version_manifest.json (spec §3).
func (p *Paths) ManifestPath() string {
	return filepath.Join(p.Root, "version_manifest.json")
}

// VersionDir is versions/<version_name>/.
func (p *Paths) VersionDir(versionName string) string {
	return filepath.Join(p.VersionsDir, versionName)
}

// DescriptorPath is versions/<version_name>/<version_name>.json, the
// effective (possibly merged) descriptor.
func (p *Paths) DescriptorPath(versionName string) string {
	return filepath.Join(p.VersionDir(versionName), versionName+".json")
}

// ClientJarPath is versions/<version_name>/<version_name>.jar.
func (p *Paths) ClientJarPath(versionName string) string {
	return filepath.Join(p.VersionDir(versionName), versionName+".jar")
}

// NativesDir is versions/<version_name>/<version_name>-natives/,
// destroyed and recreated on every library-download pass (spec §3).
func (p *Paths) NativesDir(versionName string) string {
	return filepath.Join(p.VersionDir(versionName), versionName+"-natives")
}

// AssetIndexPath is assets/indexes/<index_id>.json.
func (p *Paths) AssetIndexPath(indexID string) string {
	return filepath.Join(p.AssetsDir, "indexes", indexID+".json")
}

// AssetObjectPath is assets/objects/<aa>/<hash>, the content-addressed
// layout where <aa> is the hash's first two hex characters.
func (p *Paths) AssetObjectPath(hash string) string {
	prefix := hash
	if len(hash) >= 2 {
		prefix = hash[:2]
	}
	return filepath.Join(p.AssetsDir, "objects", prefix, hash)
}

// EnsureRoot creates the root and its fixed subdirectories, but not
// per-version or per-object paths — those are created lazily by the
// component that writes them.
func (p *Paths) EnsureRoot() error {
	dirs := []string{p.Root, p.VersionsDir, p.LibrariesDir, p.AssetsDir, p.ForgeDownloadsDir, p.FabricDownloadsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func defaultDataDir() string {
	if exe, err := os.Executable(); err == nil {
		portable := filepath.Join(filepath.Dir(exe), "data")
		if _, err := os.Stat(portable); err == nil {
			return portable
		}
	}

	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "mclaunch")
	}

	home, _ := os.UserHomeDir()
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "mclaunch")
	}
	return filepath.Join(home, ".local", "share", "mclaunch")
}
