// Package modloader holds the shared presets for the mod-loader
// overlays. Fabric and Quilt publish identically shaped profile JSON
// from different meta servers, so both are one-line configurations
// of the same internal/modloader/fabric code (spec.md §9 open
// question on generalizing the merge policy).
package modloader

import "github.com/kestrux/mclaunch/internal/modloader/fabric"

// Fabric returns the ProfileSource for the official Fabric meta server.
func Fabric() fabric.ProfileSource {
	return fabric.ProfileSource{Name: "fabric", BaseURL: "https://meta.fabricmc.net/v2"}
}

// Quilt returns the ProfileSource for the Quilt meta server — a
// Fabric-API-compatible loader that reuses the Fabric overlay code
// wholesale.
func Quilt() fabric.ProfileSource {
	return fabric.ProfileSource{Name: "quilt", BaseURL: "https://meta.quiltmc.org/v3"}
}
