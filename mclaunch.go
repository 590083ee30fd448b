// Package mclaunch is the public façade of the launch SDK: a thin
// wrapper that wires the resolver, asset/library pipelines, mod-loader
// overlays, and launch materializer behind a single entry point. It
// adds no behavior of its own beyond construction and delegation.
package mclaunch

import (
	"context"

	"github.com/kestrux/mclaunch/internal/assets"
	"github.com/kestrux/mclaunch/internal/config"
	"github.com/kestrux/mclaunch/internal/launch"
	"github.com/kestrux/mclaunch/internal/libraries"
	"github.com/kestrux/mclaunch/internal/model"
	"github.com/kestrux/mclaunch/internal/modloader"
	"github.com/kestrux/mclaunch/internal/modloader/fabric"
	"github.com/kestrux/mclaunch/internal/modloader/forge"
	"github.com/kestrux/mclaunch/internal/overlay"
	"github.com/kestrux/mclaunch/internal/resolver"
	"github.com/kestrux/mclaunch/internal/source"
)

// Re-exported types so callers never need to import internal/model or
// internal/source directly.
type (
	VersionManifest   = model.VersionManifest
	VersionDescriptor = model.VersionDescriptor
	VersionStub       = model.VersionStub
	LaunchParameters  = model.LaunchParameters
	Identity          = model.Identity
	Window            = model.Window
	Memory            = model.Memory
	QuickPlay         = model.QuickPlay
	Source            = source.Source
	CommandLine       = launch.CommandLine
	Handle            = launch.Handle
	LogLine           = launch.LogLine
)

const (
	Primary   = source.Primary
	Alternate = source.Alternate
)

// defaultConcurrency bounds the in-flight fetch count every pipeline uses
// unless a caller constructs one directly with a different value.
const defaultConcurrency = 16

// SDK is the single entry point for resolving, installing, and
// launching a Minecraft version under one data directory.
type SDK struct {
	paths    *config.Paths
	source   source.Source
	resolver *resolver.Client
}

// New constructs an SDK rooted at dataDir, routing every upstream
// fetch through src (Primary or Alternate).
func New(dataDir string, src source.Source) *SDK {
	paths := config.New(dataDir)
	return &SDK{
		paths:    paths,
		source:   src,
		resolver: resolver.NewClient(dataDir, src),
	}
}

// EnsureDirs creates the data root and its fixed subdirectories.
func (s *SDK) EnsureDirs() error {
	return s.paths.EnsureRoot()
}

// Manifest returns the version manifest, refreshing it from the
// network unless forceRefresh is false and a fresh cache exists.
func (s *SDK) Manifest(ctx context.Context, forceRefresh bool) (*model.VersionManifest, error) {
	return s.resolver.GetManifest(ctx, forceRefresh)
}

// LatestVersions returns the manifest's distinguished release and
// snapshot stubs.
func (s *SDK) LatestVersions(ctx context.Context) (release, snapshot *model.VersionStub, err error) {
	return s.resolver.LatestVersions(ctx)
}

// Resolve fetches (or loads from cache) the version descriptor for
// versionID and writes it to versions/<versionID>/<versionID>.json,
// establishing it as an install target for the overlays below.
func (s *SDK) Resolve(ctx context.Context, versionID string, forceRefresh bool) (*model.VersionDescriptor, error) {
	descriptor, err := s.resolver.GetDescriptor(ctx, versionID, forceRefresh)
	if err != nil {
		return nil, err
	}
	if err := overlay.WriteTarget(s.paths.DescriptorPath(versionID), descriptor); err != nil {
		return nil, err
	}
	return descriptor, nil
}

// DownloadClientJar fetches the client JAR for versionID to its
// canonical location under the data directory.
func (s *SDK) DownloadClientJar(ctx context.Context, versionID string) error {
	return s.resolver.DownloadClientJar(ctx, versionID, s.paths.ClientJarPath(versionID))
}

// DownloadAssets runs the asset pipeline for a resolved descriptor,
// reporting coarse percent-complete progress.
func (s *SDK) DownloadAssets(ctx context.Context, descriptor *model.VersionDescriptor, progress assets.ProgressFunc) (*assets.Result, error) {
	pipeline := assets.NewPipeline(s.paths.AssetsDir, s.source, defaultConcurrency)
	return pipeline.DownloadAll(ctx, descriptor, progress)
}

// DownloadLibraries materializes every applicable library (and its
// natives, if any) for a resolved version.
func (s *SDK) DownloadLibraries(ctx context.Context, descriptor *model.VersionDescriptor, versionName string) error {
	pipeline := libraries.NewPipeline(s.paths.LibrariesDir, s.paths.VersionsDir, s.source, defaultConcurrency)
	return pipeline.Install(ctx, descriptor, versionName)
}

// InstallFabric overlays the latest stable Fabric loader onto an
// already-resolved target version.
func (s *SDK) InstallFabric(ctx context.Context, mcVersion, targetName string) (*fabric.Result, error) {
	return s.installFabricLike(ctx, modloader.Fabric(), mcVersion, targetName)
}

// InstallQuilt overlays the latest stable Quilt loader onto an
// already-resolved target version.
func (s *SDK) InstallQuilt(ctx context.Context, mcVersion, targetName string) (*fabric.Result, error) {
	return s.installFabricLike(ctx, modloader.Quilt(), mcVersion, targetName)
}

func (s *SDK) installFabricLike(ctx context.Context, profile fabric.ProfileSource, mcVersion, targetName string) (*fabric.Result, error) {
	loaderVersion, err := fabric.LatestStableLoader(ctx, profile, mcVersion)
	if err != nil {
		return nil, err
	}
	libPipeline := libraries.NewPipeline(s.paths.LibrariesDir, s.paths.VersionsDir, s.source, defaultConcurrency)
	return fabric.InstallProfile(ctx, profile, mcVersion, loaderVersion, targetName, s.paths.VersionsDir, libPipeline)
}

// InstallForge overlays Forge onto an already-resolved target version
// by downloading and running the upstream installer.
func (s *SDK) InstallForge(ctx context.Context, installerURL, installerSHA1, javaPath, targetName string, onStatus forge.StatusFunc) (*forge.Result, error) {
	libPipeline := libraries.NewPipeline(s.paths.LibrariesDir, s.paths.VersionsDir, s.source, defaultConcurrency)
	return forge.Install(ctx, installerURL, installerSHA1, javaPath, targetName, s.paths.VersionsDir, s.paths.ForgeDownloadsDir, libPipeline, onStatus)
}

// GenerateCommand materializes (without spawning) the launch command
// for a target version.
func (s *SDK) GenerateCommand(targetName string, params *model.LaunchParameters) (*launch.CommandLine, error) {
	descriptor, _, err := overlay.LoadTarget(s.paths.VersionsDir, targetName)
	if err != nil {
		return nil, err
	}
	m := &launch.Materializer{
		VersionName:  targetName,
		Descriptor:   descriptor,
		Params:       params,
		LibrariesDir: s.paths.LibrariesDir,
		VersionsDir:  s.paths.VersionsDir,
		AssetsDir:    s.paths.AssetsDir,
	}
	return m.GenerateCommand()
}

// Launch materializes and spawns the launch command for a target
// version, streaming the process's stdout/stderr to logSink.
func (s *SDK) Launch(ctx context.Context, targetName string, params *model.LaunchParameters, logSink chan<- launch.LogLine) (*launch.Handle, error) {
	descriptor, _, err := overlay.LoadTarget(s.paths.VersionsDir, targetName)
	if err != nil {
		return nil, err
	}
	m := &launch.Materializer{
		VersionName:  targetName,
		Descriptor:   descriptor,
		Params:       params,
		LibrariesDir: s.paths.LibrariesDir,
		VersionsDir:  s.paths.VersionsDir,
		AssetsDir:    s.paths.AssetsDir,
	}
	return m.Launch(ctx, logSink)
}
