package main

import (
	"fmt"
	"strings"

	"github.com/gantryci/gantry/internal/config"
	"github.com/gantryci/gantry/internal/output"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the pipeline's triggers, jobs and steps",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	pipe, err := loadPipelineFile(root, cfg)
	if err != nil {
		return err
	}

	warnings := collapseWarnings(pipe.Warnings)

	switch strings.ToLower(cfg.Format) {
	case config.FormatPretty:
		renderer := output.NewPretty(cmd.OutOrStdout())
		if err := renderer.RenderList(pipe); err != nil {
			return err
		}
		printWarnings(cmd, warnings)
		return nil
	case config.FormatJSON:
		renderer := output.NewJSON(cmd.OutOrStdout())
		return renderer.Render(output.Report{
			Pipeline: pipe.Name,
			Path:     pipe.Path,
			Triggers: pipe.Triggers.Describe(),
			Jobs:     pipe.Jobs,
			Warnings: warnings,
		})
	default:
		return fmt.Errorf("unsupported format %q", cfg.Format)
	}
}
