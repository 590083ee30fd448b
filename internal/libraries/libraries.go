// Package libraries implements the library pipeline of spec §4.5:
// classifying which of a descriptor's libraries apply to the host,
// splitting them into plain and native libraries, and materializing
// both onto disk.
package libraries

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mholt/archiver/v3"

	"github.com/kestrux/mclaunch/internal/download"
	"github.com/kestrux/mclaunch/internal/mcerr"
	"github.com/kestrux/mclaunch/internal/model"
	"github.com/kestrux/mclaunch/internal/source"
)

// Pipeline materializes libraries for a resolved host platform.
type Pipeline struct {
	downloads    *download.Manager
	librariesDir string
	versionsDir  string
	src          source.Source
	platform     model.Platform
}

// NewPipeline builds a Pipeline rooted at librariesDir (typically
// "<data_dir>/libraries") and versionsDir ("<data_dir>/versions").
func NewPipeline(librariesDir, versionsDir string, src source.Source, concurrency int) *Pipeline {
	return &Pipeline{
		downloads:    download.NewManager(concurrency),
		librariesDir: librariesDir,
		versionsDir:  versionsDir,
		src:          src,
		platform:     model.HostPlatform(),
	}
}

var nativesClassifierRe = regexp.MustCompile(`natives-[a-z0-9_]+`)

// coord is a parsed Maven-style library coordinate: group:artifact:version[:classifier].
type coord struct {
	group, artifact, version, classifier string
}

func parseCoord(name string) (coord, bool) {
	parts := strings.Split(name, ":")
	if len(parts) < 3 {
		return coord{}, false
	}
	c := coord{group: parts[0], artifact: parts[1], version: parts[2]}
	if len(parts) >= 4 {
		c.classifier = parts[3]
	}
	return c, true
}

// IsNative implements the classification rule of spec §4.5.
func IsNative(lib *model.Library, plat model.Platform) bool {
	if c, ok := parseCoord(lib.Name); ok {
		if nativesClassifierRe.MatchString(c.classifier) || nativesClassifierRe.MatchString(lib.Name) {
			return true
		}
		if strings.Contains(c.version, plat.OSName) {
			return true
		}
	}
	if lib.Downloads != nil && lib.Downloads.Classifiers != nil {
		if _, ok := lib.Downloads.Classifiers["natives-"+plat.OSName]; ok {
			return true
		}
	}
	return false
}

// ApplicableLibraries filters descriptor.Libraries down to those that
// apply on the host, per spec §4.5's rule evaluation.
func ApplicableLibraries(libs []model.Library, plat model.Platform) []model.Library {
	applicable := make([]model.Library, 0, len(libs))
	for _, lib := range libs {
		if model.LibraryApplies(&lib, plat) {
			applicable = append(applicable, lib)
		}
	}
	return applicable
}

// resolveArtifact implements the path/URL derivation of spec §4.5,
// preferring downloads.artifact and falling back to the Maven layout.
func resolveArtifact(lib *model.Library, libraryBase string) (url, path, sha1 string, ok bool) {
	if lib.Downloads != nil && lib.Downloads.Artifact != nil {
		a := lib.Downloads.Artifact
		return a.URL, a.Path, a.SHA1, true
	}

	c, parsed := parseCoord(lib.Name)
	if !parsed {
		return "", "", "", false
	}

	groupPath := strings.ReplaceAll(c.group, ".", "/")
	filename := c.artifact + "-" + c.version
	if c.classifier != "" {
		filename += "-" + c.classifier
	}
	filename += ".jar"

	relPath := fmt.Sprintf("%s/%s/%s/%s", groupPath, c.artifact, c.version, filename)
	return libraryBase + "/" + relPath, relPath, "", true
}

func resolveNativeClassifierArtifact(lib *model.Library, plat model.Platform, libraryBase string) (url, path, sha1 string, ok bool) {
	if lib.Downloads != nil && lib.Downloads.Classifiers != nil {
		if a, present := lib.Downloads.Classifiers["natives-"+plat.OSName]; present {
			return a.URL, a.Path, a.SHA1, true
		}
	}
	return resolveArtifact(lib, libraryBase)
}

// PlainResult is the outcome of materializing the plain libraries.
type PlainResult struct {
	Total   int
	Success int
	Failed  int
	Skipped int
}

// MaterializePlain implements "materialization of plain libraries" in
// spec §4.5: submits every applicable, non-native library to the
// download engine with SHA-1 verification when known.
func (p *Pipeline) MaterializePlain(ctx context.Context, libs []model.Library) (*PlainResult, error) {
	result := &PlainResult{}
	var items []download.Item

	libraryBase := source.LibraryBase(p.src)
	for _, lib := range libs {
		if IsNative(&lib, p.platform) {
			continue
		}
		result.Total++

		url, relPath, sha1, ok := resolveArtifact(&lib, libraryBase)
		if !ok || url == "" {
			result.Skipped++
			continue
		}

		items = append(items, download.Item{
			URL:  source.Rewrite(url, p.src),
			Path: filepath.Join(p.librariesDir, relPath),
			SHA1: sha1,
		})
	}

	if len(items) == 0 {
		return result, nil
	}

	batchResult, err := p.downloads.Download(ctx, items, nil)
	if err != nil {
		return nil, fmt.Errorf("downloading libraries: %w", err)
	}
	result.Success = batchResult.Completed
	result.Failed = batchResult.Failed

	return result, nil
}

// NativesResult is the outcome of extracting the native libraries for
// one version. Errors records per-library extraction failures that
// did not abort their peers (spec §4.5: "logged but do not abort").
type NativesResult struct {
	Total   int
	Success int
	Failed  int
	Errors  []error
}

// MaterializeNatives implements "materialization of natives" in spec
// §4.5: the natives directory is wiped and recreated, then each
// classifier JAR is downloaded and fully extracted into it.
func (p *Pipeline) MaterializeNatives(ctx context.Context, libs []model.Library, versionName string) (*NativesResult, error) {
	nativesDir := filepath.Join(p.versionsDir, versionName, versionName+"-natives")

	if err := os.RemoveAll(nativesDir); err != nil {
		return nil, fmt.Errorf("clearing natives directory: %w", err)
	}
	if err := os.MkdirAll(nativesDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating natives directory: %w", err)
	}

	result := &NativesResult{}
	libraryBase := source.LibraryBase(p.src)

	for _, lib := range libs {
		if !IsNative(&lib, p.platform) {
			continue
		}
		result.Total++

		url, relPath, sha1, ok := resolveNativeClassifierArtifact(&lib, p.platform, libraryBase)
		if !ok || url == "" {
			result.Failed++
			continue
		}

		jarPath := filepath.Join(p.librariesDir, relPath)
		if err := p.downloads.Fetch(ctx, download.Item{
			URL:  source.Rewrite(url, p.src),
			Path: jarPath,
			SHA1: sha1,
		}); err != nil {
			result.Failed++
			continue
		}

		// jarPath has a .jar suffix, which archiver.Unarchive's
		// by-extension format detection doesn't recognize; the format
		// is always a zip regardless of suffix, so use the zip
		// archiver directly.
		if err := archiver.DefaultZip.Unarchive(jarPath, nativesDir); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, &mcerr.ExtractionError{Archive: jarPath, Err: err})
			continue
		}
		result.Success++
	}

	metaInf := filepath.Join(nativesDir, "META-INF")
	_ = os.RemoveAll(metaInf)

	return result, nil
}

// Install runs both materialization phases for a version's descriptor,
// used by the mod-loader overlays after a merge (spec §4.6 step 5).
func (p *Pipeline) Install(ctx context.Context, descriptor *model.VersionDescriptor, versionName string) error {
	applicable := ApplicableLibraries(descriptor.Libraries, p.platform)

	if _, err := p.MaterializePlain(ctx, applicable); err != nil {
		return err
	}
	if _, err := p.MaterializeNatives(ctx, applicable, versionName); err != nil {
		return err
	}
	return nil
}
