package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Format != FormatPretty || cfg.TailLines != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	root := t.TempDir()
	contents := "pipeline: ci/pipeline.yml\nformat: json\ntail_lines: 50\nverbose: true\n"
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline != "ci/pipeline.yml" {
		t.Fatalf("expected pipeline from file, got %q", cfg.Pipeline)
	}
	if cfg.Format != FormatJSON || cfg.TailLines != 50 || !cfg.Verbose {
		t.Fatalf("unexpected merged config: %+v", cfg)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("{not yaml"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(root); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyFlagsOverridesFile(t *testing.T) {
	cfg := Default()
	cfg.Format = FormatJSON
	cfg.DryRun = false

	ApplyFlags(&cfg, FlagValues{
		Format:    StringFlag{Value: FormatPretty, Set: true},
		DryRun:    BoolFlag{Value: true, Set: true},
		TailLines: IntFlag{Value: 5, Set: true},
		NoCache:   BoolFlag{Value: true, Set: true},
	})

	if cfg.Format != FormatPretty || !cfg.DryRun || cfg.TailLines != 5 || !cfg.NoCache {
		t.Fatalf("unexpected config after flags: %+v", cfg)
	}
}

func TestApplyFlagsLeavesUnsetValues(t *testing.T) {
	cfg := Default()
	cfg.Job = "check"

	ApplyFlags(&cfg, FlagValues{})

	if cfg.Job != "check" || cfg.Format != FormatPretty {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
