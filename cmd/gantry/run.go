package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gantryci/gantry/internal/config"
	"github.com/gantryci/gantry/internal/output"
	"github.com/gantryci/gantry/internal/pipeline"
	"github.com/gantryci/gantry/internal/report"
	"github.com/gantryci/gantry/internal/runner"
	"github.com/gantryci/gantry/internal/trigger"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate triggers and execute the matched job",
		RunE:  runExecute,
	}
	addEventFlags(cmd)
	return cmd
}

func addEventFlags(cmd *cobra.Command) {
	cmd.Flags().String("event", "push", "incoming event kind (push|pull_request)")
	cmd.Flags().String("branch", "", "branch name, required for push events")
}

func runExecute(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ev, err := gatherEvent(cmd)
	if err != nil {
		return err
	}

	pipe, err := loadPipelineFile(root, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := executeOnce(ctx, cmd, cfg, root, pipe, ev)
	if err != nil {
		return err
	}

	switch res.Status {
	case report.StatusFailed:
		return fmt.Errorf("job %q failed at step %d", res.Job, res.FailedStep)
	case report.StatusCancelled:
		return fmt.Errorf("run cancelled")
	default:
		return nil
	}
}

// executeOnce evaluates the trigger and, on a match, runs the selected job
// and renders the result. A non-matching event yields a skipped result; no
// job is instantiated.
func executeOnce(ctx context.Context, cmd *cobra.Command, cfg config.Config, root string, pipe pipeline.Pipeline, ev trigger.Event) (report.RunResult, error) {
	if !pipe.Triggers.Matches(ev) {
		res := report.Skipped(pipe.Name, string(ev.Kind), ev.Branch)
		if err := renderResult(cmd, cfg, pipe, res); err != nil {
			return res, err
		}
		return res, nil
	}

	job, err := selectJob(pipe, cfg.Job)
	if err != nil {
		return report.RunResult{}, err
	}

	store, err := buildCacheStore(cfg, root)
	if err != nil {
		return report.RunResult{}, err
	}

	execRunner := runner.New(runner.Options{
		Root:      root,
		Stdout:    cmd.OutOrStdout(),
		Stderr:    cmd.ErrOrStderr(),
		Verbose:   cfg.Verbose,
		DryRun:    cfg.DryRun,
		TailLines: cfg.TailLines,
		Cache:     store,
	})

	res := execRunner.Run(ctx, pipe, job, ev)
	if err := renderResult(cmd, cfg, pipe, res); err != nil {
		return res, err
	}
	return res, nil
}

func renderResult(cmd *cobra.Command, cfg config.Config, pipe pipeline.Pipeline, res report.RunResult) error {
	warnings := collapseWarnings(pipe.Warnings)

	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		renderer := output.NewPretty(cmd.OutOrStdout())
		if err := renderer.RenderResult(res); err != nil {
			return err
		}
		printWarnings(cmd, warnings)
		return nil
	case config.FormatJSON:
		renderer := output.NewJSON(cmd.OutOrStdout())
		return renderer.Render(output.Report{
			Pipeline: pipe.Name,
			Path:     pipe.Path,
			Result:   &res,
			Warnings: warnings,
		})
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
}
