package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gantryci/gantry/internal/cache"
	"github.com/gantryci/gantry/internal/pipeline"
	"github.com/gantryci/gantry/internal/report"
	"github.com/gantryci/gantry/internal/toolchain"
	"github.com/gantryci/gantry/internal/trigger"
)

// Options configure how the runner executes a job.
type Options struct {
	Root        string
	Stdout      io.Writer
	Stderr      io.Writer
	Verbose     bool
	DryRun      bool
	TailLines   int
	Env         []string
	Now         func() time.Time
	Provisioner toolchain.Provisioner
	Cache       cache.Store
}

// Runner executes one job's steps strictly in declared order.
type Runner struct {
	opts Options
}

// New creates a runner with the supplied options.
func New(opts Options) *Runner {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.TailLines <= 0 {
		opts.TailLines = 20
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Provisioner == nil {
		opts.Provisioner = toolchain.NewInstaller()
	}
	return &Runner{opts: opts}
}

type pendingSave struct {
	key   string
	paths []string
}

// Run executes the job triggered by ev. The outcome is always encoded in the
// returned RunResult: the first failing step stops the job (fail-fast, no
// rollback), cancellation stops it with status cancelled, and caches named by
// cache steps are saved only after every step has passed.
func (r *Runner) Run(ctx context.Context, p pipeline.Pipeline, job pipeline.Job, ev trigger.Event) report.RunResult {
	res := report.RunResult{
		Pipeline: p.Name,
		Job:      job.Name,
		Event:    string(ev.Kind),
		Branch:   ev.Branch,
		Status:   report.StatusSuccess,
	}

	var saves []pendingSave
	start := r.opts.Now()

	for idx, step := range job.Steps {
		if ctx.Err() != nil {
			res.Status = report.StatusCancelled
			break
		}

		outcome := report.StepOutcome{
			Index:  idx + 1,
			Name:   step.Label(),
			Action: string(step.Kind()),
		}

		if r.opts.DryRun {
			outcome.Status = report.StepSkipped
			if cmd, ok := step.(pipeline.CommandStep); ok {
				outcome.Command = cmd.Command
			}
			outcome.Note = "dry run"
			res.Steps = append(res.Steps, outcome)
			continue
		}

		stepStart := r.opts.Now()
		failed := r.executeStep(ctx, p, job, step, &outcome, &saves)
		outcome.Duration = r.opts.Now().Sub(stepStart)
		outcome.DurationMS = outcome.Duration.Milliseconds()

		if failed {
			outcome.Status = report.StepFailed
			outcome.Stdout = tailLines(outcome.Stdout, r.opts.TailLines)
			outcome.Stderr = tailLines(outcome.Stderr, r.opts.TailLines)
		} else {
			outcome.Status = report.StepPassed
		}
		res.Steps = append(res.Steps, outcome)

		if ctx.Err() != nil {
			// A step interrupted by cancellation is not a job failure.
			res.Status = report.StatusCancelled
			break
		}
		if failed {
			res.Status = report.StatusFailed
			res.FailedStep = idx + 1
			break
		}
	}

	res.Duration = r.opts.Now().Sub(start)
	res.DurationMS = res.Duration.Milliseconds()
	if res.Status != report.StatusSuccess {
		res.ExitCode = 1
	}

	if res.Status == report.StatusSuccess && !r.opts.DryRun {
		r.saveCaches(saves)
	}

	return res
}

// executeStep dispatches on the step variant. It returns true when the step
// failed and the job must stop.
func (r *Runner) executeStep(ctx context.Context, p pipeline.Pipeline, job pipeline.Job, step pipeline.Step, outcome *report.StepOutcome, saves *[]pendingSave) bool {
	switch s := step.(type) {
	case pipeline.ToolchainStep:
		spec := toolchain.Spec{Name: s.Toolchain, Version: s.Version, Components: s.Components}
		if err := r.opts.Provisioner.Provision(ctx, spec); err != nil {
			outcome.Stderr = err.Error()
			outcome.ExitCode = 1
			return true
		}
		outcome.Note = fmt.Sprintf("provisioned %s", spec)
		return false

	case pipeline.CacheStep:
		r.restoreCache(s, outcome, saves)
		return false

	case pipeline.CommandStep:
		return r.runCommand(ctx, p, job, s, outcome)

	default:
		outcome.Stderr = fmt.Sprintf("unknown step kind %q", step.Kind())
		outcome.ExitCode = 1
		return true
	}
}

// restoreCache never fails the job: a miss, a missing manifest, or an
// unusable store all degrade to empty-cache behaviour.
func (r *Runner) restoreCache(s pipeline.CacheStep, outcome *report.StepOutcome, saves *[]pendingSave) {
	key, err := cache.Key(r.opts.Root, s.Manifests)
	if err != nil {
		outcome.Note = fmt.Sprintf("cache miss (%v)", err)
		return
	}

	if r.opts.Cache == nil {
		outcome.Note = "cache miss (no cache store configured)"
		return
	}

	if len(s.Paths) > 0 {
		*saves = append(*saves, pendingSave{key: key, paths: s.Paths})
	}

	hit, err := r.opts.Cache.Restore(key)
	switch {
	case err != nil:
		outcome.Note = fmt.Sprintf("cache miss (%v)", err)
	case hit:
		outcome.Note = fmt.Sprintf("cache hit (key %s)", shortKey(key))
	default:
		outcome.Note = fmt.Sprintf("cache miss (key %s)", shortKey(key))
	}
}

func (r *Runner) saveCaches(saves []pendingSave) {
	for _, save := range saves {
		if err := r.opts.Cache.Save(save.key, save.paths); err != nil {
			fmt.Fprintf(r.opts.Stderr, "warning: save cache %s: %v\n", shortKey(save.key), err)
		}
	}
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
