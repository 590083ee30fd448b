// Package forge implements the Forge mod-loader overlay of spec §4.6:
// downloading the upstream installer JAR and running it as a child
// process, then merging its emitted descriptor into the target.
package forge

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kestrux/mclaunch/internal/download"
	"github.com/kestrux/mclaunch/internal/libraries"
	"github.com/kestrux/mclaunch/internal/mcerr"
	"github.com/kestrux/mclaunch/internal/model"
	"github.com/kestrux/mclaunch/internal/overlay"
)

// progressMarkers are the coarse hints spec §4.6 asks the installer's
// captured output to be scanned for.
var progressMarkers = []string{"Installing", "Extracting", "Downloading"}

// StatusFunc receives a coarse progress hint parsed from the
// installer's stdout/stderr.
type StatusFunc func(marker, line string)

// Result is the outcome of a Forge install, per spec §4.6's
// {ok, target_name, descriptor_path, jar_path}.
type Result struct {
	OK             bool
	TargetName     string
	DescriptorPath string
	JarPath        string
}

// Install runs the full Forge overlay: download the installer, spawn
// it against a temp directory, merge its emitted descriptor into the
// target, materialize the merged libraries, and clean up.
func Install(ctx context.Context, installerURL, installerSHA1, javaPath, targetName, versionsDir, forgeDownloadsDir string, libPipeline *libraries.Pipeline, onStatus StatusFunc) (*Result, error) {
	base, descriptorPath, err := overlay.LoadTarget(versionsDir, targetName)
	if err != nil {
		return nil, err
	}

	installerPath := filepath.Join(forgeDownloadsDir, filepath.Base(installerURL))
	dl := download.NewManager(1)
	if err := dl.Fetch(ctx, download.Item{URL: installerURL, Path: installerPath, SHA1: installerSHA1}); err != nil {
		return nil, fmt.Errorf("downloading forge installer: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "mclaunch-forge-install-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp install directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := runInstaller(ctx, javaPath, installerPath, tempDir, onStatus); err != nil {
		return nil, err
	}

	forgeDescriptor, forgeJarPath, err := locateEmittedDescriptor(tempDir)
	if err != nil {
		return nil, err
	}

	merged := overlay.Merge(base, forgeDescriptor)
	merged.ForgeVersion = forgeDescriptor.ID

	jarPath := ""
	if forgeJarPath != "" {
		jarPath = filepath.Join(versionsDir, targetName, targetName+".jar")
		if err := copyFile(forgeJarPath, jarPath); err != nil {
			return nil, fmt.Errorf("copying installer-emitted jar: %w", err)
		}
	}

	if err := overlay.WriteTarget(descriptorPath, merged); err != nil {
		return nil, err
	}

	if libPipeline != nil {
		if err := libPipeline.Install(ctx, merged, targetName); err != nil {
			return nil, err
		}
	}

	return &Result{OK: true, TargetName: targetName, DescriptorPath: descriptorPath, JarPath: jarPath}, nil
}

func runInstaller(ctx context.Context, javaPath, installerPath, tempDir string, onStatus StatusFunc) error {
	cmd := exec.CommandContext(ctx, javaPath, "-jar", installerPath, "--installClient", tempDir)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("attaching installer stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("attaching installer stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting forge installer: %w", err)
	}

	var captured strings.Builder
	done := make(chan struct{}, 2)
	go streamInstallerOutput(stdout, &captured, onStatus, done)
	go streamInstallerOutput(stderr, &captured, onStatus, done)
	<-done
	<-done

	if err := cmd.Wait(); err != nil {
		code := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		return &mcerr.InstallerFailed{Code: code, Output: captured.String()}
	}

	return nil
}

func streamInstallerOutput(r io.Reader, captured *strings.Builder, onStatus StatusFunc, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		captured.WriteString(line)
		captured.WriteByte('\n')

		if onStatus == nil {
			continue
		}
		for _, marker := range progressMarkers {
			if strings.Contains(line, marker) {
				onStatus(marker, line)
				break
			}
		}
	}
}

// locateEmittedDescriptor walks the installer's temp output directory
// for versions/<forge-id>/<forge-id>.json (spec §4.6 step 4).
func locateEmittedDescriptor(tempDir string) (*model.VersionDescriptor, string, error) {
	versionsRoot := filepath.Join(tempDir, "versions")

	entries, err := os.ReadDir(versionsRoot)
	if err != nil {
		return nil, "", fmt.Errorf("locating installer output: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		forgeID := entry.Name()
		descriptorPath := filepath.Join(versionsRoot, forgeID, forgeID+".json")
		data, err := os.ReadFile(descriptorPath)
		if err != nil {
			continue
		}

		var descriptor model.VersionDescriptor
		if err := json.Unmarshal(data, &descriptor); err != nil {
			return nil, "", fmt.Errorf("decoding installer-emitted descriptor: %w", err)
		}
		if descriptor.ID == "" {
			descriptor.ID = forgeID
		}

		jarPath := filepath.Join(versionsRoot, forgeID, forgeID+".jar")
		if _, err := os.Stat(jarPath); err != nil {
			jarPath = ""
		}

		return &descriptor, jarPath, nil
	}

	return nil, "", fmt.Errorf("forge installer did not emit a version descriptor under %s", versionsRoot)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
