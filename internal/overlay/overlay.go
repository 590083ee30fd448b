// Package overlay implements the shared merge algorithm of spec §4.6
// that both the Fabric and Forge mod-loader overlays use to combine a
// base version descriptor with a loader-provided overlay descriptor.
package overlay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kestrux/mclaunch/internal/mcerr"
	"github.com/kestrux/mclaunch/internal/model"
)

// Merge combines base and overlay descriptors per spec §4.6's merge
// algorithm, returning a new descriptor that leaves both inputs
// untouched.
func Merge(base, overlay *model.VersionDescriptor) *model.VersionDescriptor {
	merged := base.Clone()

	if overlay.MainClass != "" {
		merged.MainClass = overlay.MainClass
	}

	merged.Libraries = append(append([]model.Library{}, merged.Libraries...), overlay.Libraries...)

	switch {
	case base.Arguments != nil || overlay.Arguments != nil:
		merged.Arguments = mergeArguments(base.Arguments, overlay.Arguments)
	case overlay.MinecraftArguments != "":
		merged.MinecraftArguments = overlay.MinecraftArguments
	}

	if overlay.InheritsFrom != "" {
		merged.InheritsFrom = overlay.InheritsFrom
	}
	if overlay.Jar != "" {
		merged.Jar = overlay.Jar
	}

	if overlay.ForgeVersion != "" {
		merged.ForgeVersion = overlay.ForgeVersion
	}
	if overlay.FabricVersion != "" {
		merged.FabricVersion = overlay.FabricVersion
	}
	if overlay.QuiltVersion != "" {
		merged.QuiltVersion = overlay.QuiltVersion
	}

	return merged
}

func mergeArguments(base, overlay *model.Arguments) *model.Arguments {
	merged := &model.Arguments{}
	if base != nil {
		merged.JVM = append(merged.JVM, base.JVM...)
		merged.Game = append(merged.Game, base.Game...)
	}
	if overlay != nil {
		merged.JVM = append(merged.JVM, overlay.JVM...)
		merged.Game = append(merged.Game, overlay.Game...)
	}
	return merged
}

// TargetPaths returns the descriptor path for an existing installed
// version the overlay mutates.
func TargetPaths(versionsDir, targetName string) (dir, descriptorPath string) {
	dir = filepath.Join(versionsDir, targetName)
	descriptorPath = filepath.Join(dir, targetName+".json")
	return dir, descriptorPath
}

// LoadTarget reads the existing installed version's descriptor,
// failing with TargetMissing if the target directory or descriptor
// does not exist (spec §4.6).
func LoadTarget(versionsDir, targetName string) (*model.VersionDescriptor, string, error) {
	dir, descriptorPath := TargetPaths(versionsDir, targetName)

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, "", &mcerr.TargetMissing{VersionName: targetName}
	}

	data, err := os.ReadFile(descriptorPath)
	if err != nil {
		return nil, "", &mcerr.TargetMissing{VersionName: targetName}
	}

	var descriptor model.VersionDescriptor
	if err := json.Unmarshal(data, &descriptor); err != nil {
		return nil, "", fmt.Errorf("decoding target descriptor: %w", err)
	}

	return &descriptor, descriptorPath, nil
}

// WriteTarget atomically replaces the target's descriptor file with
// merged, writing to a temp file and renaming into place.
func WriteTarget(descriptorPath string, merged *model.VersionDescriptor) error {
	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding merged descriptor: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(descriptorPath), 0o755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}

	tmpPath := descriptorPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing merged descriptor: %w", err)
	}
	if err := os.Rename(tmpPath, descriptorPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming merged descriptor into place: %w", err)
	}
	return nil
}
