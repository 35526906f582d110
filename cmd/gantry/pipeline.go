package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gantryci/gantry/internal/cache"
	"github.com/gantryci/gantry/internal/config"
	"github.com/gantryci/gantry/internal/pipeline"
	"github.com/gantryci/gantry/internal/trigger"
	"github.com/spf13/cobra"
)

func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return config.Config{}, "", fmt.Errorf("determine working directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return config.Config{}, "", err
	}

	flags, err := gatherFlags(cmd)
	if err != nil {
		return config.Config{}, "", err
	}
	config.ApplyFlags(&cfg, flags)

	return cfg, root, nil
}

func loadPipelineFile(root string, cfg config.Config) (pipeline.Pipeline, error) {
	path, err := pipeline.Discover(root, cfg.Pipeline)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoPipeline) {
			return pipeline.Pipeline{}, fmt.Errorf("no pipeline file found; specify --pipeline or create %s", pipeline.DefaultCandidates[0])
		}
		return pipeline.Pipeline{}, err
	}
	return pipeline.Load(path)
}

func gatherEvent(cmd *cobra.Command) (trigger.Event, error) {
	kindInput, err := cmd.Flags().GetString("event")
	if err != nil {
		return trigger.Event{}, fmt.Errorf("parse --event: %w", err)
	}
	branch, err := cmd.Flags().GetString("branch")
	if err != nil {
		return trigger.Event{}, fmt.Errorf("parse --branch: %w", err)
	}

	kind, err := trigger.ParseKind(kindInput)
	if err != nil {
		return trigger.Event{}, err
	}
	if kind == trigger.Push && branch == "" {
		return trigger.Event{}, fmt.Errorf("push events require --branch")
	}
	return trigger.Event{Kind: kind, Branch: branch}, nil
}

func selectJob(pipe pipeline.Pipeline, requested string) (pipeline.Job, error) {
	if requested != "" {
		job, ok := pipe.Job(requested)
		if !ok {
			return pipeline.Job{}, fmt.Errorf("job %q not found in pipeline %q", requested, pipe.Path)
		}
		return job, nil
	}
	if len(pipe.Jobs) == 1 {
		return pipe.Jobs[0], nil
	}
	ids := make([]string, 0, len(pipe.Jobs))
	for _, job := range pipe.Jobs {
		ids = append(ids, job.ID)
	}
	return pipeline.Job{}, fmt.Errorf("pipeline defines several jobs (%s); pick one with --job", strings.Join(ids, ", "))
}

func buildCacheStore(cfg config.Config, root string) (cache.Store, error) {
	if cfg.NoCache {
		return nil, nil
	}
	dir := cfg.CacheDir
	if dir == "" {
		var err error
		dir, err = cache.DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return cache.NewDirStore(dir, root), nil
}

func collapseWarnings(warnings []pipeline.Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		if w.Job != "" {
			out = append(out, fmt.Sprintf("%s:%s: %s", w.Pipeline, w.Job, w.Message))
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", w.Pipeline, w.Message))
	}
	return out
}

func printWarnings(cmd *cobra.Command, warnings []string) {
	for _, msg := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
	}
}
