package main

import (
	"fmt"

	"github.com/gantryci/gantry/internal/config"
	"github.com/spf13/cobra"
)

func gatherFlags(cmd *cobra.Command) (config.FlagValues, error) {
	flags := cmd.Flags()
	var values config.FlagValues

	if flags.Changed("pipeline") {
		v, err := flags.GetString("pipeline")
		if err != nil {
			return values, fmt.Errorf("parse --pipeline: %w", err)
		}
		values.Pipeline = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("job") {
		v, err := flags.GetString("job")
		if err != nil {
			return values, fmt.Errorf("parse --job: %w", err)
		}
		values.Job = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("format") {
		v, err := flags.GetString("format")
		if err != nil {
			return values, fmt.Errorf("parse --format: %w", err)
		}
		values.Format = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("tail-lines") {
		v, err := flags.GetInt("tail-lines")
		if err != nil {
			return values, fmt.Errorf("parse --tail-lines: %w", err)
		}
		values.TailLines = config.IntFlag{Value: v, Set: true}
	}

	if flags.Changed("cache-dir") {
		v, err := flags.GetString("cache-dir")
		if err != nil {
			return values, fmt.Errorf("parse --cache-dir: %w", err)
		}
		values.CacheDir = config.StringFlag{Value: v, Set: true}
	}

	if flags.Changed("no-cache") {
		v, err := flags.GetBool("no-cache")
		if err != nil {
			return values, fmt.Errorf("parse --no-cache: %w", err)
		}
		values.NoCache = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("dry-run") {
		v, err := flags.GetBool("dry-run")
		if err != nil {
			return values, fmt.Errorf("parse --dry-run: %w", err)
		}
		values.DryRun = config.BoolFlag{Value: v, Set: true}
	}

	if flags.Changed("verbose") {
		v, err := flags.GetBool("verbose")
		if err != nil {
			return values, fmt.Errorf("parse --verbose: %w", err)
		}
		values.Verbose = config.BoolFlag{Value: v, Set: true}
	}

	return values, nil
}
