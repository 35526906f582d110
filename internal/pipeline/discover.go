package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoPipeline indicates that no pipeline file was found during discovery.
var ErrNoPipeline = errors.New("no pipeline file discovered")

// DefaultCandidates are the pipeline file locations probed, in order,
// when no explicit path is given.
var DefaultCandidates = []string{
	"gantry.yml",
	"gantry.yaml",
	filepath.Join(".gantry", "pipeline.yml"),
}

// Discover resolves the pipeline file path. An explicit path is validated
// and returned as given; otherwise the default candidates under root are
// probed in order.
func Discover(root, explicit string) (string, error) {
	if explicit != "" {
		full := explicit
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, explicit)
		}
		info, err := os.Stat(full)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("pipeline %q not found", explicit)
			}
			return "", fmt.Errorf("stat %q: %w", explicit, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("pipeline %q is a directory", explicit)
		}
		return full, nil
	}

	for _, candidate := range DefaultCandidates {
		full := filepath.Join(root, candidate)
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}
		return full, nil
	}
	return "", ErrNoPipeline
}
