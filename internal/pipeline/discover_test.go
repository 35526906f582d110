package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverExplicitPath(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "custom.yml")
	if err := os.WriteFile(path, []byte("on: push\n"), 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}

	found, err := Discover(root, "custom.yml")
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if found != path {
		t.Fatalf("expected %q, got %q", path, found)
	}

	if _, err := Discover(root, "missing.yml"); err == nil {
		t.Fatalf("expected error for missing explicit pipeline")
	}
}

func TestDiscoverDefaultCandidates(t *testing.T) {
	root := t.TempDir()
	if _, err := Discover(root, ""); !errors.Is(err, ErrNoPipeline) {
		t.Fatalf("expected ErrNoPipeline, got %v", err)
	}

	nested := filepath.Join(root, ".gantry")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	nestedPath := filepath.Join(nested, "pipeline.yml")
	if err := os.WriteFile(nestedPath, []byte("on: push\n"), 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}

	found, err := Discover(root, "")
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if found != nestedPath {
		t.Fatalf("expected %q, got %q", nestedPath, found)
	}

	// A top-level gantry.yml wins over the nested candidate.
	topPath := filepath.Join(root, "gantry.yml")
	if err := os.WriteFile(topPath, []byte("on: push\n"), 0o644); err != nil {
		t.Fatalf("write pipeline: %v", err)
	}
	found, err = Discover(root, "")
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if found != topPath {
		t.Fatalf("expected %q, got %q", topPath, found)
	}
}

func TestDiscoverRejectsDirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "dir.yml"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := Discover(root, "dir.yml"); err == nil {
		t.Fatalf("expected error for directory pipeline path")
	}
}
