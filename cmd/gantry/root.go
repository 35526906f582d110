package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gantry",
		Short:         "Gantry evaluates pipeline triggers and runs CI jobs locally",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("pipeline", "", "pipeline file to load (default: discover gantry.yml)")
	persistent.String("job", "", "job to run when the pipeline defines several")
	persistent.String("format", "pretty", "output format (pretty|json)")
	persistent.Int("tail-lines", 20, "captured output lines kept per failed step")
	persistent.String("cache-dir", "", "directory for dependency cache archives")
	persistent.Bool("no-cache", false, "treat every cache restore as a miss and skip saves")
	persistent.Bool("dry-run", false, "print steps without executing them")
	persistent.BoolP("verbose", "v", false, "stream command output in real time")

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}
