// Package source implements the mirror routing of spec §4.2: pure,
// stateless, total functions that pick a base URL per resource
// category and rewrite an upstream URL between the primary host and a
// geographically proximate alternate mirror.
package source

import "strings"

// Source selects which upstream to route requests through.
type Source int

const (
	Primary Source = iota
	Alternate
)

// category distinguishes the four rewrite rules named in spec §6.
type category int

const (
	categoryManifest category = iota
	categoryResource
	categoryLibrary
	categoryLauncher
)

type hostRewrite struct {
	fromHost string
	toHost   string
	toPrefix string // path segment to splice in after the new host, if any
}

var rewrites = map[category]hostRewrite{
	categoryManifest: {fromHost: "launchermeta.mojang.com", toHost: "bmclapi2.bangbang93.com"},
	categoryResource: {fromHost: "resources.download.minecraft.net", toHost: "bmclapi2.bangbang93.com", toPrefix: "/assets"},
	categoryLibrary:  {fromHost: "libraries.minecraft.net", toHost: "bmclapi2.bangbang93.com", toPrefix: "/maven"},
	categoryLauncher: {fromHost: "launcher.mojang.com", toHost: "bmclapi2.bangbang93.com"},
}

const (
	primaryManifestBase = "https://launchermeta.mojang.com"
	primaryResourceBase = "https://resources.download.minecraft.net"
	primaryLibraryBase  = "https://libraries.minecraft.net"
	primaryLauncherBase = "https://launcher.mojang.com"

	alternateManifestBase = "https://bmclapi2.bangbang93.com"
	alternateResourceBase = "https://bmclapi2.bangbang93.com/assets"
	alternateLibraryBase  = "https://bmclapi2.bangbang93.com/maven"
	alternateLauncherBase = "https://bmclapi2.bangbang93.com"
)

// ManifestBase returns the base URL for the version manifest.
func ManifestBase(s Source) string {
	if s == Alternate {
		return alternateManifestBase
	}
	return primaryManifestBase
}

// ResourceBase returns the base URL for content-addressed asset objects.
func ResourceBase(s Source) string {
	if s == Alternate {
		return alternateResourceBase
	}
	return primaryResourceBase
}

// LibraryBase returns the base URL for Maven library JARs.
func LibraryBase(s Source) string {
	if s == Alternate {
		return alternateLibraryBase
	}
	return primaryLibraryBase
}

// LauncherBase returns the base URL for launcher binaries.
func LauncherBase(s Source) string {
	if s == Alternate {
		return alternateLauncherBase
	}
	return primaryLauncherBase
}

// Rewrite rewrites a canonical upstream URL for the given source. For
// Primary it is the identity function. For Alternate it substitutes a
// known host with its mirror host/prefix; an unrecognized host passes
// through unchanged, per spec §4.2.
func Rewrite(canonicalURL string, s Source) string {
	if s == Primary {
		return canonicalURL
	}

	for _, rw := range rewrites {
		if rest, ok := stripHost(canonicalURL, rw.fromHost); ok {
			return "https://" + rw.toHost + rw.toPrefix + rest
		}
	}
	return canonicalURL
}

// stripHost returns the path+query portion of a URL if it begins with
// "https://"+host or "http://"+host, and whether it matched.
func stripHost(url, host string) (string, bool) {
	for _, scheme := range []string{"https://", "http://"} {
		prefix := scheme + host
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix), true
		}
	}
	return "", false
}
