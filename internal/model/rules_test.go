package model

import "testing"

func TestEvaluateRulesNoRulesIsApplicable(t *testing.T) {
	if !EvaluateRules(nil, Platform{OSName: "linux"}, FeatureSet{}) {
		t.Fatal("a rule-less entry must be applicable")
	}
}

func TestEvaluateRulesLastMatchWins(t *testing.T) {
	rules := []Rule{
		{Action: "allow", OS: &OSRule{Name: "linux"}},
		{Action: "disallow", OS: &OSRule{Name: "linux"}},
	}
	if EvaluateRules(rules, Platform{OSName: "linux"}, FeatureSet{}) {
		t.Fatal("the last matching rule (disallow) should win")
	}
}

func TestEvaluateRulesNonMatchingRuleDoesNotFlipDefault(t *testing.T) {
	// A single allow rule scoped to linux must not apply on windows —
	// spec §8 invariant 9 / the open question in spec §9.
	rules := []Rule{{Action: "allow", OS: &OSRule{Name: "linux"}}}
	if EvaluateRules(rules, Platform{OSName: "windows"}, FeatureSet{}) {
		t.Fatal("a linux-only allow rule must not apply on windows")
	}
}

func TestEvaluateRulesFeatureGating(t *testing.T) {
	rules := []Rule{{Action: "allow", Features: &Features{HasCustomRes: true}}}

	if EvaluateRules(rules, Platform{}, FeatureSet{HasCustomRes: false}) {
		t.Fatal("rule gated on has_custom_resolution must not apply without it")
	}
	if !EvaluateRules(rules, Platform{}, FeatureSet{HasCustomRes: true}) {
		t.Fatal("rule gated on has_custom_resolution must apply once satisfied")
	}
}

func TestLibraryAppliesArchMismatch(t *testing.T) {
	lib := &Library{Rules: []Rule{{Action: "allow", OS: &OSRule{Name: "windows", Arch: "x86"}}}}
	if LibraryApplies(lib, Platform{OSName: "windows", Arch: "x64"}) {
		t.Fatal("an x86-only rule must not apply on x64")
	}
}
