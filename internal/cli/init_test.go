package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunInit_DefaultDirectory(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	for _, name := range []string{"mstools.yaml", ".env.example"} {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			t.Errorf("Expected %s to exist", name)
		}
	}
}

func TestRunInit_TargetPath(t *testing.T) {
	targetDir := t.TempDir()
	projectDir := filepath.Join(targetDir, "dbops")

	if err := runInit(initCmd, []string{projectDir}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	configPath := filepath.Join(projectDir, "mstools.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Expected mstools.yaml to exist")
	}
}

func TestRunInit_RefusesOverwrite(t *testing.T) {
	targetDir := t.TempDir()

	if err := runInit(initCmd, []string{targetDir}); err != nil {
		t.Fatalf("first init failed: %v", err)
	}

	err := runInit(initCmd, []string{targetDir})
	if err == nil {
		t.Fatal("Expected error for repeated init")
	}
	if !strings.Contains(err.Error(), "refusing to overwrite") {
		t.Errorf("Expected refusal message, got: %v", err)
	}
}

func TestRunInit_NonEmptyDirectoryAllowed(t *testing.T) {
	targetDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(targetDir, "existing.txt"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := runInit(initCmd, []string{targetDir}); err != nil {
		t.Fatalf("init must tolerate unrelated files, got: %v", err)
	}
	if _, err := os.Stat(filepath.Join(targetDir, "existing.txt")); err != nil {
		t.Error("existing file should be untouched")
	}
}

func TestRunInit_ScaffoldContent(t *testing.T) {
	targetDir := t.TempDir()

	if err := runInit(initCmd, []string{targetDir}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(targetDir, "mstools.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"source:", "destination:", "max_passes:", "include_data:"} {
		if !strings.Contains(content, want) {
			t.Errorf("Expected scaffolded mstools.yaml to mention %q", want)
		}
	}
}
