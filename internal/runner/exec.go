package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/gantryci/gantry/internal/pipeline"
	"github.com/gantryci/gantry/internal/report"
)

// runCommand invokes the external command for a command step, capturing its
// output and exit status. It returns true when the command exited non-zero.
func (r *Runner) runCommand(ctx context.Context, p pipeline.Pipeline, job pipeline.Job, step pipeline.CommandStep, outcome *report.StepOutcome) bool {
	outcome.Command = step.Command

	env := mergeEnv(r.opts.Env, p.Env, job.Env, step.Env)
	cmdArgs := commandArgs(resolveShell(step, job), step.Command)

	workingDir, err := resolveWorkingDirectory(r.opts.Root, job, step)
	if err != nil {
		outcome.Stderr = err.Error()
		outcome.ExitCode = 127
		return true
	}

	cmd := exec.CommandContext(ctx, cmdArgs[0], cmdArgs[1:]...)
	cmd.Dir = workingDir
	cmd.Env = env

	var stdoutBuf, stderrBuf strings.Builder
	if r.opts.Verbose {
		cmd.Stdout = io.MultiWriter(r.opts.Stdout, &stdoutBuf)
		cmd.Stderr = io.MultiWriter(r.opts.Stderr, &stderrBuf)
	} else {
		cmd.Stdout = &stdoutBuf
		cmd.Stderr = &stderrBuf
	}

	err = cmd.Run()
	outcome.Stdout = stdoutBuf.String()
	outcome.Stderr = stderrBuf.String()
	outcome.ExitCode = exitCode(err)

	return err != nil
}

func resolveShell(step pipeline.CommandStep, job pipeline.Job) string {
	if shell := strings.TrimSpace(step.Shell); shell != "" {
		return shell
	}
	return strings.TrimSpace(job.Defaults.Shell)
}

func commandArgs(shellSpec, script string) []string {
	if shellSpec == "" {
		if runtime.GOOS == "windows" {
			return []string{"cmd", "/C", script}
		}
		return []string{"bash", "-c", script}
	}

	fields := strings.Fields(shellSpec)
	shell := fields[0]
	args := append([]string{}, fields[1:]...)
	base := strings.ToLower(filepath.Base(shell))

	switch base {
	case "cmd", "cmd.exe":
		args = append(args, "/C", script)
	case "pwsh", "powershell", "powershell.exe":
		args = append(args, "-Command", script)
	case "python", "python3", "python.exe":
		args = append(args, "-c", script)
	default:
		// POSIX shells and anything shell-like.
		args = append(args, "-c", script)
	}
	return append([]string{shell}, args...)
}

func resolveWorkingDirectory(root string, job pipeline.Job, step pipeline.CommandStep) (string, error) {
	candidates := []string{step.WorkingDirectory, job.Defaults.WorkingDirectory}
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}

		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(root, candidate)
		}
		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("working directory %q not found", candidate)
			}
			return "", fmt.Errorf("stat working directory %q: %w", candidate, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("working directory %q is not a directory", candidate)
		}
		return candidate, nil
	}
	if root == "" {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}
	}
	return root, nil
}

func mergeEnv(base []string, overlays ...map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overlays)*4)
	for _, kv := range base {
		if idx := strings.Index(kv, "="); idx != -1 {
			envMap[kv[:idx]] = kv[idx+1:]
		}
	}
	for _, overlay := range overlays {
		for k, v := range overlay {
			envMap[k] = v
		}
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return out
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

func tailLines(input string, maxLines int) string {
	if input == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(input, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}
