// Package fabric implements the Fabric mod-loader overlay of spec
// §4.6: a pure JSON fetch-and-merge against a meta endpoint, with no
// installer subprocess. The endpoint shape is parameterized through
// ProfileSource so the same code installs Quilt profiles too (spec.md
// §9's open question on generalizing the merge policy).
package fabric

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/kestrux/mclaunch/internal/libraries"
	"github.com/kestrux/mclaunch/internal/mcerr"
	"github.com/kestrux/mclaunch/internal/model"
	"github.com/kestrux/mclaunch/internal/overlay"
)

// ProfileSource parameterizes the meta endpoint an overlay is fetched
// from, and the side-channel field it populates on merge.
type ProfileSource struct {
	Name    string // "fabric" or "quilt"
	BaseURL string
}

// loaderVersionEntry mirrors one element of the meta server's
// "/versions/loader/<mc>" listing.
type loaderVersionEntry struct {
	Loader struct {
		Version string `json:"version"`
		Stable  bool   `json:"stable"`
	} `json:"loader"`
}

// LatestStableLoader picks the highest semantic version among the
// entries the meta server marks stable. Uses Masterminds/semver for
// the comparison rather than a lexical sort, since loader versions
// aren't guaranteed to sort correctly as plain strings (e.g. "0.9.2"
// vs "0.10.0").
func LatestStableLoader(ctx context.Context, src ProfileSource, mcVersion string) (string, error) {
	url := fmt.Sprintf("%s/versions/loader/%s", src.BaseURL, mcVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building loader list request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching loader list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &mcerr.TransportError{Status: resp.StatusCode, URL: url}
	}

	var entries []loaderVersionEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return "", fmt.Errorf("decoding loader list: %w", err)
	}

	var candidates []*semver.Version
	byVersion := map[string]string{}
	for _, e := range entries {
		if !e.Loader.Stable {
			continue
		}
		v, err := semver.NewVersion(e.Loader.Version)
		if err != nil {
			continue
		}
		candidates = append(candidates, v)
		byVersion[v.String()] = e.Loader.Version
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no stable loader versions published for %s", mcVersion)
	}

	sort.Sort(sort.Reverse(semver.Collection(candidates)))
	return byVersion[candidates[0].String()], nil
}

// FetchProfile retrieves the loader's version descriptor overlay as
// plain JSON, per spec §4.6 Fabric.
func FetchProfile(ctx context.Context, src ProfileSource, mcVersion, loaderVersion string) (*model.VersionDescriptor, error) {
	url := fmt.Sprintf("%s/versions/loader/%s/%s/profile/json", src.BaseURL, mcVersion, loaderVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building profile request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &mcerr.TransportError{Status: resp.StatusCode, URL: url}
	}

	var descriptor model.VersionDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&descriptor); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &descriptor, nil
}

// Result is the outcome of installing a loader profile onto a target
// version, per spec §4.6's {ok, target_name, descriptor_path}.
type Result struct {
	OK             bool
	TargetName     string
	DescriptorPath string
}

// InstallProfile implements the Fabric/Quilt overlay end to end: load
// the existing target descriptor, fetch and merge the loader profile,
// write the merged descriptor back, then materialize the
// loader-specific libraries.
func InstallProfile(ctx context.Context, src ProfileSource, mcVersion, loaderVersion, targetName, versionsDir string, libPipeline *libraries.Pipeline) (*Result, error) {
	base, descriptorPath, err := overlay.LoadTarget(versionsDir, targetName)
	if err != nil {
		return nil, err
	}

	profile, err := FetchProfile(ctx, src, mcVersion, loaderVersion)
	if err != nil {
		return nil, err
	}

	merged := overlay.Merge(base, profile)
	switch src.Name {
	case "quilt":
		merged.QuiltVersion = loaderVersion
	default:
		merged.FabricVersion = loaderVersion
	}

	if err := overlay.WriteTarget(descriptorPath, merged); err != nil {
		return nil, err
	}

	loaderLibraries := filterLoaderLibraries(profile.Libraries, src.Name)
	if libPipeline != nil {
		if _, err := libPipeline.MaterializePlain(ctx, loaderLibraries); err != nil {
			return nil, err
		}
	}

	return &Result{OK: true, TargetName: targetName, DescriptorPath: descriptorPath}, nil
}

// filterLoaderLibraries keeps only the libraries introduced by the
// loader itself, identified by name/publisher pattern (spec §4.6:
// "filtered by name pattern containing fabric or its publisher").
func filterLoaderLibraries(libs []model.Library, loaderName string) []model.Library {
	patterns := []string{loaderName}
	switch loaderName {
	case "fabric":
		patterns = append(patterns, "net.fabricmc")
	case "quilt":
		patterns = append(patterns, "org.quiltmc")
	}

	var filtered []model.Library
	for _, lib := range libs {
		lower := strings.ToLower(lib.Name)
		for _, p := range patterns {
			if strings.Contains(lower, strings.ToLower(p)) {
				filtered = append(filtered, lib)
				break
			}
		}
	}
	return filtered
}
