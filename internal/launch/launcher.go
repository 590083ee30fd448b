// Package launch implements the launch materializer of spec §4.7: it
// turns a resolved version descriptor plus per-invocation parameters
// into a correctly ordered, placeholder-resolved process command line,
// and optionally spawns it.
package launch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/kestrux/mclaunch/internal/libraries"
	"github.com/kestrux/mclaunch/internal/mcerr"
	"github.com/kestrux/mclaunch/internal/model"
)

const (
	launcherName    = "mclaunch"
	launcherVersion = "1.0"
)

// Status reports progress of a launch in flight.
type Status struct {
	Step    string
	Message string
	LogLine *LogLine
}

// LogLine is one line of the spawned process's captured output.
type LogLine struct {
	Text   string
	Stream string // "stdout" or "stderr"
}

// CommandLine is a fully materialized, unspawned launch command.
type CommandLine struct {
	Program string
	Args    []string
}

// Handle identifies a spawned game process.
type Handle struct {
	PID     int
	Process *os.Process
}

// Materializer builds and spawns launch commands for one resolved
// version.
type Materializer struct {
	VersionName string
	Descriptor  *model.VersionDescriptor
	Params      *model.LaunchParameters
	LibrariesDir string
	VersionsDir  string
	AssetsDir    string
}

var placeholderRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// GenerateCommand implements generate_command of spec §4.7: returns
// the command without spawning anything.
func (m *Materializer) GenerateCommand() (*CommandLine, error) {
	plat := model.HostPlatform()
	features := model.FeaturesFor(m.Params)

	classpath, _, err := m.buildClasspath(plat)
	if err != nil {
		return nil, err
	}

	builtins := m.builtinVars(classpath)
	aliases := m.aliasVars()

	jvmArgs := m.buildJVMArgs(plat, features, builtins, aliases)
	gameArgs := m.buildGameArgs(plat, features, builtins, aliases)

	args := make([]string, 0, len(jvmArgs)+1+len(gameArgs))
	args = append(args, jvmArgs...)
	args = append(args, m.Descriptor.MainClass)
	args = append(args, gameArgs...)

	return &CommandLine{Program: m.Params.JavaPath, Args: args}, nil
}

// Launch implements launch of spec §4.7: spawns the materialized
// command with cwd = game_directory (falling back to the current
// process directory), piping stdout/stderr to logSink.
func (m *Materializer) Launch(ctx context.Context, logSink chan<- LogLine) (*Handle, error) {
	cmdLine, err := m.GenerateCommand()
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, cmdLine.Program, cmdLine.Args...)
	if m.Params.GameDirectory != "" {
		cmd.Dir = m.Params.GameDirectory
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &mcerr.LaunchError{Reason: "attaching stdout", Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &mcerr.LaunchError{Reason: "attaching stderr", Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &mcerr.LaunchError{Reason: "spawning process", Err: err}
	}

	go streamLog(stdout, "stdout", logSink)
	go streamLog(stderr, "stderr", logSink)

	return &Handle{PID: cmd.Process.Pid, Process: cmd.Process}, nil
}

func streamLog(r io.Reader, stream string, logSink chan<- LogLine) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if logSink == nil {
			continue
		}
		select {
		case logSink <- LogLine{Text: scanner.Text(), Stream: stream}:
		default:
		}
	}
}

// buildClasspath implements "Classpath construction" in spec §4.7: in
// descriptor order, every applicable non-native library's local path,
// then the main JAR.
func (m *Materializer) buildClasspath(plat model.Platform) (classpath, mainJar string, err error) {
	var paths []string

	for i := range m.Descriptor.Libraries {
		lib := &m.Descriptor.Libraries[i]
		if !model.LibraryApplies(lib, plat) {
			continue
		}
		if libraries.IsNative(lib, plat) {
			continue
		}

		path, ok := libraryLocalPath(lib, m.LibrariesDir)
		if !ok {
			continue
		}
		paths = append(paths, path)
	}

	mainJar = filepath.Join(m.VersionsDir, m.VersionName, m.VersionName+".jar")
	paths = append(paths, mainJar)

	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	return strings.Join(paths, sep), mainJar, nil
}

func libraryLocalPath(lib *model.Library, librariesDir string) (string, bool) {
	if lib.Downloads != nil && lib.Downloads.Artifact != nil && lib.Downloads.Artifact.Path != "" {
		return filepath.Join(librariesDir, lib.Downloads.Artifact.Path), true
	}

	parts := strings.Split(lib.Name, ":")
	if len(parts) < 3 {
		return "", false
	}
	group, artifact, version := parts[0], parts[1], parts[2]
	groupPath := strings.ReplaceAll(group, ".", "/")
	filename := artifact + "-" + version + ".jar"
	return filepath.Join(librariesDir, groupPath, artifact, version, filename), true
}

// buildJVMArgs implements "JVM arg construction" in spec §4.7.
func (m *Materializer) buildJVMArgs(plat model.Platform, features model.FeatureSet, builtins, aliases map[string]string) []string {
	var args []string

	args = append(args, m.Params.CustomJVMArgs...)

	if m.Descriptor.Arguments != nil {
		args = append(args, m.evaluateArgList(m.Descriptor.Arguments.JVM, plat, features, builtins, aliases)...)
	}

	if m.Params.Memory.MinMB > 0 {
		args = append(args, fmt.Sprintf("-Xmn%dm", m.Params.Memory.MinMB))
	}
	if m.Params.Memory.MaxMB > 0 {
		args = append(args, fmt.Sprintf("-Xmx%dm", m.Params.Memory.MaxMB))
	}

	return args
}

// buildGameArgs implements "Game arg construction" in spec §4.7.
func (m *Materializer) buildGameArgs(plat model.Platform, features model.FeatureSet, builtins, aliases map[string]string) []string {
	var args []string

	// Game-arg placeholders never see "classpath" — it's a JVM-only
	// builtin per spec §4.7 — so use a copy of builtins without it.
	gameBuiltins := map[string]string{}
	for k, v := range builtins {
		if k != "classpath" {
			gameBuiltins[k] = v
		}
	}

	switch {
	case m.Descriptor.Arguments != nil && len(m.Descriptor.Arguments.Game) > 0:
		args = append(args, m.evaluateArgList(m.Descriptor.Arguments.Game, plat, features, gameBuiltins, aliases)...)
	case m.Descriptor.MinecraftArguments != "":
		for _, token := range strings.Split(m.Descriptor.MinecraftArguments, " ") {
			resolved, ok := resolveToken(token, gameBuiltins, aliases, m.Params.Extra)
			if ok {
				args = append(args, resolved)
			}
		}
	}

	args = append(args, m.Params.CustomGameArgs...)
	return args
}

// evaluateArgList resolves a tagged-union argument list, applying the
// unresolved-placeholder drop rule of spec §4.7. classpath is only
// substitutable when this list is the JVM list — callers of the game
// list must not pass it in vars.
func (m *Materializer) evaluateArgList(list model.ArgList, plat model.Platform, features model.FeatureSet, vars, aliases map[string]string) []string {
	var out []string
	for _, entry := range list {
		switch v := entry.(type) {
		case model.PlainArg:
			if resolved, ok := resolveToken(string(v), vars, aliases, m.Params.Extra); ok {
				out = append(out, resolved)
			}
		case model.GatedArg:
			if !model.EvaluateRules(v.Rules, plat, features) {
				continue
			}
			resolvedValues := make([]string, 0, len(v.Values))
			allResolved := true
			for _, raw := range v.Values {
				resolved, ok := resolveToken(raw, vars, aliases, m.Params.Extra)
				if !ok {
					allResolved = false
					break
				}
				resolvedValues = append(resolvedValues, resolved)
			}
			// A flag is only emitted paired with a successfully resolved
			// value (spec §4.7): if any element in the group fails to
			// resolve, the whole group — flag and value alike — is dropped.
			if allResolved {
				out = append(out, resolvedValues...)
			}
		}
	}
	return out
}

// resolveToken substitutes every ${name} occurrence in s. It reports
// ok=false if s contains at least one placeholder whose resolution is
// empty or undefined, per spec §4.7's "critical rule."
func resolveToken(s string, vars, aliases, extra map[string]string) (string, bool) {
	if !strings.Contains(s, "${") {
		return s, true
	}

	ok := true
	result := placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		if v, found := lookupVar(name, vars, aliases, extra); found && v != "" {
			return v
		}
		ok = false
		return ""
	})
	return result, ok
}

func lookupVar(name string, vars, aliases, extra map[string]string) (string, bool) {
	if v, found := vars[name]; found {
		return v, true
	}
	if v, found := aliases[name]; found {
		return v, true
	}
	if v, found := extra[name]; found {
		return v, true
	}
	return "", false
}

// builtinVars implements the built-ins of spec §4.7's placeholder
// substitution source 1.
func (m *Materializer) builtinVars(classpath string) map[string]string {
	return map[string]string{
		"natives_directory": filepath.Join(m.VersionsDir, m.VersionName, m.VersionName+"-natives"),
		"classpath":         classpath,
		"launcher_name":     launcherName,
		"launcher_version":  launcherVersion,
	}
}

// aliasVars implements the known Mojang parameter aliases of spec
// §4.7's placeholder substitution source 2.
func (m *Materializer) aliasVars() map[string]string {
	p := m.Params
	vars := map[string]string{
		"auth_player_name":    p.Identity.Username,
		"version_name":        m.VersionName,
		"game_directory":      p.GameDirectory,
		"assets_root":         m.AssetsDir,
		"assets_index_name":   m.Descriptor.AssetIndex.ID,
		"auth_uuid":           p.Identity.UUID,
		"auth_access_token":   p.Identity.AccessToken,
		"clientid":            p.Identity.ClientID,
		"auth_xuid":           p.Identity.XUID,
		"user_type":           p.Identity.UserType,
		"version_type":        string(m.Descriptor.Type),
	}

	if p.HasCustomResolution() {
		vars["resolution_width"] = fmt.Sprintf("%d", p.Window.Width)
		vars["resolution_height"] = fmt.Sprintf("%d", p.Window.Height)
	}

	if p.QuickPlay != nil {
		vars["quickPlayPath"] = p.QuickPlay.Path
		vars["quickPlaySingleplayer"] = p.QuickPlay.Singleplayer
		vars["quickPlayMultiplayer"] = p.QuickPlay.Multiplayer
		vars["quickPlayRealms"] = p.QuickPlay.Realms
	}

	return vars
}
