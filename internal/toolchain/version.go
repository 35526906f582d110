package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Info captures an installed toolchain version.
type Info struct {
	Name    string
	Version string
}

var versionRegex = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?)`)

// detect returns the installed version of a toolchain by calling
// `<name> --version` and extracting the first semver-looking token.
func (i *Installer) detect(ctx context.Context, name string) (Info, error) {
	out, err := i.runCommand(ctx, name, "--version")
	if err != nil {
		return Info{}, err
	}
	match := versionRegex.FindStringSubmatch(out)
	if len(match) < 2 {
		return Info{}, fmt.Errorf("unable to parse %s version from %q", name, out)
	}
	return Info{Name: name, Version: match[1]}, nil
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return strings.TrimSpace(buf.String()), err
	}
	return strings.TrimSpace(buf.String()), nil
}

// CompareMajorMinor compares major.minor portions of two semver-like
// versions. Non-numeric channels like "stable" never match by prefix and
// return false.
func CompareMajorMinor(desired, actual string) bool {
	d := semverPrefix(desired)
	a := semverPrefix(actual)
	if d == "" || a == "" {
		return false
	}
	return strings.EqualFold(d, a)
}

func semverPrefix(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) < 2 {
		return ""
	}
	return fmt.Sprintf("%s.%s", parts[0], parts[1])
}

// Missing reports whether executing the command returned a not-found error.
func Missing(cmdErr error) bool {
	return errors.Is(cmdErr, exec.ErrNotFound)
}
