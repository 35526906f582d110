package main

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/gantryci/gantry/internal/config"
	"github.com/gantryci/gantry/internal/pipeline"
	"github.com/gantryci/gantry/internal/report"
	"github.com/gantryci/gantry/internal/trigger"
	"github.com/spf13/cobra"
)

func testCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd, stdout, stderr
}

func decodePipeline(t *testing.T, doc string) pipeline.Pipeline {
	t.Helper()
	pipe, err := pipeline.Decode(strings.NewReader(doc), "gantry.yml")
	if err != nil {
		t.Fatalf("decode pipeline: %v", err)
	}
	return pipe
}

func TestExecuteOnceSkipsUnmatchedEvent(t *testing.T) {
	cmd, stdout, _ := testCommand()
	cfg := config.Default()
	cfg.NoCache = true

	pipe := decodePipeline(t, `
on:
  push:
    branches: [main]
jobs:
  check:
    steps:
      - run: exit 1
`)

	ev := trigger.Event{Kind: trigger.Push, Branch: "feature/x"}
	res, err := executeOnce(context.Background(), cmd, cfg, t.TempDir(), pipe, ev)
	if err != nil {
		t.Fatalf("executeOnce: %v", err)
	}

	if res.Status != report.StatusSkipped {
		t.Fatalf("expected skipped, got %+v", res)
	}
	if len(res.Steps) != 0 {
		t.Fatalf("expected no steps executed, got %+v", res.Steps)
	}
	if !strings.Contains(stdout.String(), "SKIPPED") {
		t.Fatalf("expected skip notice, got:\n%s", stdout.String())
	}
}

func TestExecuteOnceRunsMatchedEvent(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test uses POSIX shell commands")
	}
	cmd, stdout, _ := testCommand()
	cfg := config.Default()
	cfg.NoCache = true

	pipe := decodePipeline(t, `
on:
  push:
    branches: [main]
jobs:
  check:
    steps:
      - name: hello
        run: echo hello
`)

	ev := trigger.Event{Kind: trigger.Push, Branch: "main"}
	res, err := executeOnce(context.Background(), cmd, cfg, t.TempDir(), pipe, ev)
	if err != nil {
		t.Fatalf("executeOnce: %v", err)
	}

	if res.Status != report.StatusSuccess {
		t.Fatalf("expected success, got %+v", res)
	}
	if !strings.Contains(stdout.String(), "RESULT: success") {
		t.Fatalf("unexpected output:\n%s", stdout.String())
	}
}

func TestGatherEvent(t *testing.T) {
	cmd := newRunCmd()
	if err := cmd.Flags().Set("event", "push"); err != nil {
		t.Fatalf("set event: %v", err)
	}
	if _, err := gatherEvent(cmd); err == nil {
		t.Fatalf("expected error for push without branch")
	}

	if err := cmd.Flags().Set("branch", "main"); err != nil {
		t.Fatalf("set branch: %v", err)
	}
	ev, err := gatherEvent(cmd)
	if err != nil {
		t.Fatalf("gatherEvent: %v", err)
	}
	if ev.Kind != trigger.Push || ev.Branch != "main" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	if err := cmd.Flags().Set("event", "workflow_dispatch"); err != nil {
		t.Fatalf("set event: %v", err)
	}
	if _, err := gatherEvent(cmd); err == nil {
		t.Fatalf("expected error for unsupported event kind")
	}
}

func TestSelectJob(t *testing.T) {
	pipe := decodePipeline(t, `
on: push
jobs:
  lint:
    steps:
      - run: make lint
  test:
    steps:
      - run: make test
`)

	if _, err := selectJob(pipe, ""); err == nil {
		t.Fatalf("expected error when several jobs and no --job")
	}

	job, err := selectJob(pipe, "test")
	if err != nil {
		t.Fatalf("selectJob: %v", err)
	}
	if job.ID != "test" {
		t.Fatalf("unexpected job: %+v", job)
	}

	if _, err := selectJob(pipe, "deploy"); err == nil {
		t.Fatalf("expected error for unknown job")
	}

	single := decodePipeline(t, `
on: push
jobs:
  only:
    steps:
      - run: make
`)
	job, err = selectJob(single, "")
	if err != nil {
		t.Fatalf("selectJob single: %v", err)
	}
	if job.ID != "only" {
		t.Fatalf("unexpected job: %+v", job)
	}
}
