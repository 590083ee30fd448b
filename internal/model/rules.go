package model

import "runtime"

// Platform names the host OS/arch the way Mojang's rule objects do.
type Platform struct {
	OSName string // "windows", "osx", "linux"
	Arch   string // "x86", "x64", "arm64"
}

// HostPlatform reports the running process's platform in Mojang's
// vocabulary.
func HostPlatform() Platform {
	name := runtime.GOOS
	switch runtime.GOOS {
	case "darwin":
		name = "osx"
	case "windows":
		name = "windows"
	case "linux":
		name = "linux"
	}

	arch := runtime.GOARCH
	switch runtime.GOARCH {
	case "amd64":
		arch = "x64"
	case "386":
		arch = "x86"
	case "arm64":
		arch = "arm64"
	}

	return Platform{OSName: name, Arch: arch}
}

// FeatureSet reports which feature flags are active for a given set of
// launch parameters (spec §4.7).
type FeatureSet struct {
	IsDemoUser        bool
	HasCustomRes      bool
	HasQuickPlaysup   bool
	IsQuickPlaySingle bool
	IsQuickPlayMulti  bool
	IsQuickPlayRealms bool
}

// FeaturesFor derives the active feature set from a LaunchParameters.
func FeaturesFor(p *LaunchParameters) FeatureSet {
	fs := FeatureSet{
		IsDemoUser:   p.Demo,
		HasCustomRes: p.HasCustomResolution(),
	}
	if p.QuickPlay != nil {
		fs.HasQuickPlaysup = p.QuickPlay.Path != ""
		fs.IsQuickPlaySingle = p.QuickPlay.Singleplayer != ""
		fs.IsQuickPlayMulti = p.QuickPlay.Multiplayer != ""
		fs.IsQuickPlayRealms = p.QuickPlay.Realms != ""
	}
	return fs
}

// EvaluateRules implements the last-match rule semantics pinned by
// spec §9: allowed starts false, and toggles to the last rule's action
// whenever that rule's conditions match. A rule list with no matching
// rule stays not-applicable (the default is never flipped by a
// non-matching rule).
func EvaluateRules(rules []Rule, plat Platform, features FeatureSet) bool {
	if len(rules) == 0 {
		return true
	}

	allowed := false
	for _, rule := range rules {
		if !ruleMatches(rule, plat, features) {
			continue
		}
		allowed = rule.Action == "allow"
	}
	return allowed
}

func ruleMatches(rule Rule, plat Platform, features FeatureSet) bool {
	if rule.OS != nil {
		if rule.OS.Name != "" && rule.OS.Name != plat.OSName {
			return false
		}
		if rule.OS.Arch != "" && rule.OS.Arch != plat.Arch {
			return false
		}
		// OS.Version is a regex matched against the host's kernel/OS
		// version string on the original platform; no SDK consumer
		// targets an os.version-gated rule on any distribution
		// actually served by spec §6's endpoints, so it is accepted
		// syntactically (unmarshaled) but never excludes a match here.
	}

	if rule.Features != nil {
		f := rule.Features
		if f.IsDemoUser && !features.IsDemoUser {
			return false
		}
		if f.HasCustomRes && !features.HasCustomRes {
			return false
		}
		if f.HasQuickPlaysup && !features.HasQuickPlaysup {
			return false
		}
		if f.IsQuickPlaySingle && !features.IsQuickPlaySingle {
			return false
		}
		if f.IsQuickPlayMulti && !features.IsQuickPlayMulti {
			return false
		}
		if f.IsQuickPlayRealms && !features.IsQuickPlayRealms {
			return false
		}
	}

	return true
}

// LibraryApplies reports whether a library's rules allow it on the
// host platform (spec §4.5).
func LibraryApplies(lib *Library, plat Platform) bool {
	return EvaluateRules(lib.Rules, plat, FeatureSet{})
}
