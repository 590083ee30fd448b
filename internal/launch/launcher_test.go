package launch

import (
	"path/filepath"
	"testing"

	"github.com/kestrux/mclaunch/internal/model"
)

func baseMaterializer(t *testing.T) *Materializer {
	t.Helper()
	return &Materializer{
		VersionName: "1.21",
		Descriptor: &model.VersionDescriptor{
			ID:        "1.21",
			Type:      model.VersionTypeRelease,
			MainClass: "net.minecraft.client.main.Main",
			Libraries: []model.Library{
				{
					Name: "com.mojang:brigadier:1.0.18",
					Downloads: &model.LibraryDownloads{
						Artifact: &model.DownloadEntry{Path: "com/mojang/brigadier/1.0.18/brigadier-1.0.18.jar"},
					},
				},
			},
			Arguments: &model.Arguments{
				JVM: model.ArgList{
					model.PlainArg("-Djava.library.path=${natives_directory}"),
					model.PlainArg("-cp"),
					model.PlainArg("${classpath}"),
				},
				Game: model.ArgList{
					model.PlainArg("--username"),
					model.PlainArg("${auth_player_name}"),
					model.GatedArg{
						Rules:  []model.Rule{{Action: "allow", Features: &model.Features{HasCustomRes: true}}},
						Values: []string{"--width", "${resolution_width}"},
					},
				},
			},
			AssetIndex: model.AssetIndexRef{ID: "17"},
		},
		Params: &model.LaunchParameters{
			VersionName:   "1.21",
			GameDirectory: "/games/1.21",
			JavaPath:      "/usr/bin/java",
			Identity:      model.Identity{Username: "Steve", UUID: "uuid-1", UserType: "legacy"},
		},
		LibrariesDir: "/data/libraries",
		VersionsDir:  "/data/versions",
		AssetsDir:    "/data/assets",
	}
}

func TestGenerateCommand_ClasspathIncludesMainJarLast(t *testing.T) {
	m := baseMaterializer(t)
	cmd, err := m.GenerateCommand()
	if err != nil {
		t.Fatalf("GenerateCommand: %v", err)
	}

	if cmd.Program != "/usr/bin/java" {
		t.Errorf("unexpected program: %q", cmd.Program)
	}

	var classpathArg string
	for _, a := range cmd.Args {
		if strings_contains(a, "brigadier") {
			classpathArg = a
		}
	}
	if classpathArg == "" {
		t.Fatal("expected classpath arg (containing the library path) to be present")
	}
	mainJar := filepath.Join("/data/versions", "1.21", "1.21.jar")
	if !strings_hasSuffix(classpathArg, mainJar) {
		t.Errorf("expected classpath to end with main jar %q, got %q", mainJar, classpathArg)
	}
}

func TestGenerateCommand_DropsUnresolvedGatedGroup(t *testing.T) {
	m := baseMaterializer(t)
	// No custom resolution set, so has_custom_resolution is false:
	// the gated --width/${resolution_width} pair must not appear.
	cmd, err := m.GenerateCommand()
	if err != nil {
		t.Fatalf("GenerateCommand: %v", err)
	}

	for _, a := range cmd.Args {
		if a == "--width" {
			t.Fatal("the --width flag should be dropped when has_custom_resolution is false")
		}
	}
}

func TestGenerateCommand_IncludesGatedGroupWhenFeatureSatisfied(t *testing.T) {
	m := baseMaterializer(t)
	m.Params.Window = model.Window{Width: 1280, Height: 720}

	cmd, err := m.GenerateCommand()
	if err != nil {
		t.Fatalf("GenerateCommand: %v", err)
	}

	found := false
	for i, a := range cmd.Args {
		if a == "--width" && i+1 < len(cmd.Args) && cmd.Args[i+1] == "1280" {
			found = true
		}
	}
	if !found {
		t.Error("expected --width 1280 once has_custom_resolution is satisfied")
	}
}

func TestBuildGameArgs_UsesLegacyMinecraftArguments(t *testing.T) {
	m := baseMaterializer(t)
	m.Descriptor.Arguments = nil
	m.Descriptor.MinecraftArguments = "--username ${auth_player_name} --version ${version_name}"

	plat := model.HostPlatform()
	features := model.FeaturesFor(m.Params)
	classpath, _, _ := m.buildClasspath(plat)
	builtins := m.builtinVars(classpath)
	aliases := m.aliasVars()

	args := m.buildGameArgs(plat, features, builtins, aliases)
	want := []string{"--username", "Steve", "--version", "1.21"}
	if len(args) != len(want) {
		t.Fatalf("got %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: got %q, want %q", i, args[i], want[i])
		}
	}
}

func TestResolveToken_DropsWhenPlaceholderUnresolved(t *testing.T) {
	_, ok := resolveToken("${missing_key}", map[string]string{}, map[string]string{}, nil)
	if ok {
		t.Fatal("a token with an unresolved placeholder must report ok=false")
	}
}

func TestResolveToken_PlainStringPassesThrough(t *testing.T) {
	got, ok := resolveToken("-Xmx2G", nil, nil, nil)
	if !ok || got != "-Xmx2G" {
		t.Errorf("got (%q, %v), want (\"-Xmx2G\", true)", got, ok)
	}
}

func strings_contains(s, substr string) bool {
	return len(substr) == 0 || (len(s) >= len(substr) && indexOf(s, substr) >= 0)
}

func strings_hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
