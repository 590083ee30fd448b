package forge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocateEmittedDescriptor_FindsVersionJSON(t *testing.T) {
	tempDir := t.TempDir()
	versionDir := filepath.Join(tempDir, "versions", "1.21-forge-50.1.0")
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	descriptorJSON := `{"id": "1.21-forge-50.1.0", "mainClass": "cpw.mods.bootstraplauncher.BootstrapLauncher"}`
	if err := os.WriteFile(filepath.Join(versionDir, "1.21-forge-50.1.0.json"), []byte(descriptorJSON), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(versionDir, "1.21-forge-50.1.0.jar"), []byte("jar bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	descriptor, jarPath, err := locateEmittedDescriptor(tempDir)
	if err != nil {
		t.Fatalf("locateEmittedDescriptor: %v", err)
	}
	if descriptor.MainClass != "cpw.mods.bootstraplauncher.BootstrapLauncher" {
		t.Errorf("unexpected main class: %q", descriptor.MainClass)
	}
	if jarPath == "" {
		t.Error("expected the emitted jar to be found")
	}
}

func TestLocateEmittedDescriptor_MissingVersionsDirFails(t *testing.T) {
	tempDir := t.TempDir()
	if _, _, err := locateEmittedDescriptor(tempDir); err == nil {
		t.Fatal("expected an error when no versions/ directory was emitted")
	}
}

func TestStreamInstallerOutput_ParsesMarkers(t *testing.T) {
	reader := strings.NewReader("Extracting libraries...\nDownloading forge universal jar\nDone.\n")

	var markers []string
	var captured strings.Builder
	done := make(chan struct{}, 1)

	streamInstallerOutput(reader, &captured, func(marker, line string) {
		markers = append(markers, marker)
	}, done)

	if len(markers) != 2 || markers[0] != "Extracting" || markers[1] != "Downloading" {
		t.Fatalf("unexpected markers parsed: %v", markers)
	}
	if !strings.Contains(captured.String(), "Done.") {
		t.Error("all lines should be captured regardless of marker match")
	}
}
