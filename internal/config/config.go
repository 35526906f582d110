package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the optional per-repository defaults file.
const FileName = ".gantryrc.yml"

const (
	// FormatPretty renders human readable output.
	FormatPretty = "pretty"
	// FormatJSON renders machine readable output.
	FormatJSON = "json"
)

// Config captures CLI options sourced from the rc file or flags.
type Config struct {
	Pipeline  string `yaml:"pipeline"`
	Job       string `yaml:"job"`
	Format    string `yaml:"format"`
	Verbose   bool   `yaml:"verbose"`
	DryRun    bool   `yaml:"dry_run"`
	TailLines int    `yaml:"tail_lines"`
	CacheDir  string `yaml:"cache_dir"`
	NoCache   bool   `yaml:"no_cache"`
}

// Default returns the baseline configuration used when no flags or rc file
// specify values.
func Default() Config {
	return Config{
		Format:    FormatPretty,
		TailLines: 20,
	}
}

// Load reads the rc file from the repository root when present. A missing
// file is ignored.
func Load(root string) (Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	return merge(cfg, fileCfg), nil
}

func merge(base, override Config) Config {
	out := base

	if override.Pipeline != "" {
		out.Pipeline = override.Pipeline
	}
	if override.Job != "" {
		out.Job = override.Job
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if override.TailLines > 0 {
		out.TailLines = override.TailLines
	}
	if override.CacheDir != "" {
		out.CacheDir = override.CacheDir
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.DryRun {
		out.DryRun = true
	}
	if override.NoCache {
		out.NoCache = true
	}

	return out
}

// ApplyFlags mutates cfg by applying values from CLI flags when they were
// set explicitly.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.Pipeline.Set {
		cfg.Pipeline = flags.Pipeline.Value
	}
	if flags.Job.Set {
		cfg.Job = flags.Job.Value
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if flags.TailLines.Set {
		cfg.TailLines = flags.TailLines.Value
	}
	if flags.CacheDir.Set {
		cfg.CacheDir = flags.CacheDir.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
	if flags.DryRun.Set {
		cfg.DryRun = flags.DryRun.Value
	}
	if flags.NoCache.Set {
		cfg.NoCache = flags.NoCache.Value
	}
}

// FlagValues captures CLI flag state with knowledge of whether each flag was
// set explicitly.
type FlagValues struct {
	Pipeline  StringFlag
	Job       StringFlag
	Format    StringFlag
	TailLines IntFlag
	CacheDir  StringFlag
	Verbose   BoolFlag
	DryRun    BoolFlag
	NoCache   BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}

// IntFlag represents an int flag and whether it was set.
type IntFlag struct {
	Value int
	Set   bool
}
