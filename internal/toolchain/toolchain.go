package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Spec names a toolchain to provision before command steps run.
type Spec struct {
	Name       string
	Version    string
	Components []string
}

// String renders the spec for step output.
func (s Spec) String() string {
	if s.Version == "" {
		return s.Name
	}
	return fmt.Sprintf("%s %s", s.Name, s.Version)
}

// Provisioner installs or verifies a toolchain. Implementations return a
// *ProvisionError when the requested toolchain or version is unavailable.
type Provisioner interface {
	Provision(ctx context.Context, spec Spec) error
}

// ProvisionError reports an unavailable toolchain or version. It is fatal to
// the run; the engine performs no retries.
type ProvisionError struct {
	Toolchain string
	Version   string
	Reason    string
	Err       error
}

func (e *ProvisionError) Error() string {
	label := e.Toolchain
	if e.Version != "" {
		label = fmt.Sprintf("%s %s", e.Toolchain, e.Version)
	}
	if e.Err != nil {
		return fmt.Sprintf("provision %s: %s: %v", label, e.Reason, e.Err)
	}
	return fmt.Sprintf("provision %s: %s", label, e.Reason)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// Installer is the exec-backed Provisioner. Rust toolchains are installed
// through rustup; any other toolchain is verified against the binary already
// on PATH.
type Installer struct {
	lookPath   func(file string) (string, error)
	runCommand func(ctx context.Context, name string, args ...string) (string, error)
}

// NewInstaller returns an Installer using the real exec environment.
func NewInstaller() *Installer {
	return &Installer{
		lookPath:   exec.LookPath,
		runCommand: runCommand,
	}
}

// Provision installs or verifies the requested toolchain.
func (i *Installer) Provision(ctx context.Context, spec Spec) error {
	if spec.Name == "" {
		return &ProvisionError{Toolchain: spec.Name, Reason: "toolchain name is empty"}
	}
	if spec.Name == "rust" {
		return i.provisionRust(ctx, spec)
	}
	return i.verifyInstalled(ctx, spec)
}

func (i *Installer) provisionRust(ctx context.Context, spec Spec) error {
	if _, err := i.lookPath("rustup"); err != nil {
		return &ProvisionError{Toolchain: spec.Name, Version: spec.Version, Reason: "rustup not found on PATH", Err: err}
	}

	version := spec.Version
	if version == "" {
		version = "stable"
	}
	if out, err := i.runCommand(ctx, "rustup", "toolchain", "install", version, "--profile", "minimal"); err != nil {
		return &ProvisionError{
			Toolchain: spec.Name,
			Version:   version,
			Reason:    firstLine(out),
			Err:       err,
		}
	}

	if len(spec.Components) > 0 {
		args := append([]string{"component", "add", "--toolchain", version}, spec.Components...)
		if out, err := i.runCommand(ctx, "rustup", args...); err != nil {
			return &ProvisionError{
				Toolchain: spec.Name,
				Version:   version,
				Reason:    fmt.Sprintf("add components %s: %s", strings.Join(spec.Components, ", "), firstLine(out)),
				Err:       err,
			}
		}
	}
	return nil
}

func (i *Installer) verifyInstalled(ctx context.Context, spec Spec) error {
	if _, err := i.lookPath(spec.Name); err != nil {
		return &ProvisionError{Toolchain: spec.Name, Version: spec.Version, Reason: "executable not found on PATH", Err: err}
	}
	if semverPrefix(spec.Version) == "" {
		// Channel names like "stable" carry no comparable version; having
		// the executable on PATH is the best verification available.
		return nil
	}

	info, err := i.detect(ctx, spec.Name)
	if err != nil {
		return &ProvisionError{Toolchain: spec.Name, Version: spec.Version, Reason: "unable to detect installed version", Err: err}
	}
	if !CompareMajorMinor(spec.Version, info.Version) {
		return &ProvisionError{
			Toolchain: spec.Name,
			Version:   spec.Version,
			Reason:    fmt.Sprintf("installed version is %s", info.Version),
		}
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx != -1 {
		s = s[:idx]
	}
	if s == "" {
		return "command failed"
	}
	return s
}
