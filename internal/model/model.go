// Package model holds the data types shared across the resolver, the
// asset and library pipelines, the mod-loader overlays, and the launch
// materializer. A VersionDescriptor is created once by the resolver,
// mutated only by overlays applied to that same version name, and read
// (never mutated) by the launch materializer.
package model

import "time"

// VersionType mirrors Mojang's version "type" field.
type VersionType string

const (
	VersionTypeRelease  VersionType = "release"
	VersionTypeSnapshot VersionType = "snapshot"
	VersionTypeOldBeta  VersionType = "old_beta"
	VersionTypeOldAlpha VersionType = "old_alpha"
)

// VersionStub is a single entry in the version manifest.
type VersionStub struct {
	ID            string      `json:"id"`
	Type          VersionType `json:"type"`
	DescriptorURL string      `json:"url"`
	ReleasedAt    time.Time   `json:"releaseTime"`
	SHA1          string      `json:"sha1,omitempty"`
}

// LatestVersions names the two distinguished stubs in a manifest.
type LatestVersions struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// VersionManifest is the root of the version manifest document.
type VersionManifest struct {
	Latest   LatestVersions `json:"latest"`
	Versions []VersionStub  `json:"versions"`
}

// CachedManifest is the on-disk shape of version_manifest.json: the
// manifest plus the timestamp it was fetched at, so the resolver can
// honor the 24-hour cache-trust window without re-stating it.
type CachedManifest struct {
	CacheTime time.Time       `json:"cacheTime"`
	Manifest  VersionManifest `json:"manifest"`
}

// DownloadEntry is a single hash-addressed, sized, URL-addressed file.
type DownloadEntry struct {
	Path string `json:"path,omitempty"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// OSRule constrains a Rule to a host OS/arch.
type OSRule struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	Arch    string `json:"arch,omitempty"`
}

// Features constrains a Rule to the LaunchParameters feature flags
// named in spec §4.7.
type Features struct {
	IsDemoUser        bool `json:"is_demo_user,omitempty"`
	HasCustomRes      bool `json:"has_custom_resolution,omitempty"`
	HasQuickPlaysup   bool `json:"has_quick_plays_support,omitempty"`
	IsQuickPlaySingle bool `json:"is_quick_play_singleplayer,omitempty"`
	IsQuickPlayMulti  bool `json:"is_quick_play_multiplayer,omitempty"`
	IsQuickPlayRealms bool `json:"is_quick_play_realms,omitempty"`
}

// Rule is an allow/disallow gate. Rules within a list are evaluated
// left to right; the last rule whose conditions match wins (spec §9).
type Rule struct {
	Action   string    `json:"action"`
	OS       *OSRule   `json:"os,omitempty"`
	Features *Features `json:"features,omitempty"`
}

// LibraryDownloads holds a library's direct artifact and any classifier
// variants (natives).
type LibraryDownloads struct {
	Artifact    *DownloadEntry            `json:"artifact,omitempty"`
	Classifiers map[string]*DownloadEntry `json:"classifiers,omitempty"`
}

// Extract names path prefixes to exclude when unpacking a native jar.
type Extract struct {
	Exclude []string `json:"exclude,omitempty"`
}

// Library is a single dependency entry in a VersionDescriptor.
type Library struct {
	Name      string            `json:"name"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	Rules     []Rule            `json:"rules,omitempty"`
	Natives   map[string]string `json:"natives,omitempty"`
	Extract   *Extract          `json:"extract,omitempty"`
}

// AssetIndexRef references the per-version asset index document.
type AssetIndexRef struct {
	ID        string `json:"id"`
	SHA1      string `json:"sha1"`
	Size      int64  `json:"size"`
	TotalSize int64  `json:"totalSize"`
	URL       string `json:"url"`
}

// AssetObject is a single content-addressed entry in an asset index.
type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// AssetIndex is the parsed asset index document.
type AssetIndex struct {
	Objects map[string]AssetObject `json:"objects"`
}

// Downloads holds the client/server artifacts named on a VersionDescriptor.
type Downloads struct {
	Client        *DownloadEntry `json:"client,omitempty"`
	Server        *DownloadEntry `json:"server,omitempty"`
	WindowsServer *DownloadEntry `json:"windows_server,omitempty"`
}

// Arguments holds the modern jvm/game argument arrays.
type Arguments struct {
	Game ArgList `json:"game,omitempty"`
	JVM  ArgList `json:"jvm,omitempty"`
}

// VersionDescriptor is the per-version document the resolver produces
// and the overlays mutate. It is the single source of truth the launch
// materializer reads.
type VersionDescriptor struct {
	ID                 string        `json:"id"`
	Type               VersionType   `json:"type"`
	MainClass          string        `json:"mainClass"`
	Downloads          Downloads     `json:"downloads"`
	AssetIndex         AssetIndexRef `json:"assetIndex"`
	Assets             string        `json:"assets"`
	Libraries          []Library     `json:"libraries"`
	Arguments          *Arguments    `json:"arguments,omitempty"`
	MinecraftArguments string        `json:"minecraftArguments,omitempty"`

	// InheritsFrom and Jar are populated by mod-loader overlays.
	InheritsFrom string `json:"inheritsFrom,omitempty"`
	Jar          string `json:"jar,omitempty"`

	// Side-channel fields recording the overlay applied, so the launch
	// materializer (and callers) can identify the mod-loader identity.
	ForgeVersion  string `json:"forgeVersion,omitempty"`
	FabricVersion string `json:"fabricVersion,omitempty"`
	QuiltVersion  string `json:"quiltVersion,omitempty"`
}

// Clone returns a deep-enough copy of the descriptor for the
// builder/immutable-snapshot pattern (spec §9): overlays read a base
// descriptor and produce a new one rather than mutating the resolver's
// in-memory copy.
func (d *VersionDescriptor) Clone() *VersionDescriptor {
	if d == nil {
		return nil
	}
	c := *d
	c.Libraries = append([]Library(nil), d.Libraries...)
	if d.Arguments != nil {
		args := *d.Arguments
		args.Game = append(ArgList(nil), d.Arguments.Game...)
		args.JVM = append(ArgList(nil), d.Arguments.JVM...)
		c.Arguments = &args
	}
	return &c
}

// Identity carries the per-invocation auth fields the launch
// materializer substitutes into placeholders. The SDK never obtains
// these itself (see Non-goals in SPEC_FULL.md §1) — callers already
// hold a valid access token by the time they build LaunchParameters.
type Identity struct {
	Username    string
	UUID        string
	AccessToken string
	UserType    string
	ClientID    string
	XUID        string
}

// Window carries optional display geometry.
type Window struct {
	Width      int
	Height     int
	Fullscreen bool
}

// Memory carries optional heap bounds, in megabytes.
type Memory struct {
	MinMB int
	MaxMB int
}

// QuickPlay carries the optional quick-play target.
type QuickPlay struct {
	Path          string
	Singleplayer  string
	Multiplayer   string
	Realms        string
}

// LaunchParameters is the per-invocation input to the launch
// materializer.
type LaunchParameters struct {
	VersionName     string
	GameDirectory   string
	JavaPath        string
	Identity        Identity
	Window          Window
	Memory          Memory
	CustomJVMArgs   []string
	CustomGameArgs  []string
	QuickPlay       *QuickPlay
	Demo            bool

	// Extra is the typed replacement for the source's free-form
	// extension map (spec §9): the placeholder resolver consults it
	// last, after built-ins and named aliases.
	Extra map[string]string
}

// HasCustomResolution reports whether both width and height were set,
// the gating condition for the has_custom_resolution feature flag.
func (p *LaunchParameters) HasCustomResolution() bool {
	return p.Window.Width > 0 && p.Window.Height > 0
}
