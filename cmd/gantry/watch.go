package main

import (
	"fmt"
	"io/fs"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const watchDebounce = 500 * time.Millisecond

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the pipeline whenever the workspace changes",
		RunE:  runWatch,
	}
	addEventFlags(cmd)
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, root, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ev, err := gatherEvent(cmd)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	execute := func() {
		pipe, err := loadPipelineFile(root, cfg)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "gantry: %v\n", err)
			return
		}
		if _, err := executeOnce(ctx, cmd, cfg, root, pipe, ev); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "gantry: %v\n", err)
		}
	}

	execute()
	fmt.Fprintln(cmd.OutOrStdout(), "watching for changes (ctrl-c to stop)")

	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: watch: %v\n", err)
		case <-debounce.C:
			execute()
		}
	}
}

// addWatchDirs registers root and its non-hidden subdirectories. Hidden
// directories are skipped except .gantry, which may hold the pipeline file.
func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") && name != ".gantry" {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %q: %w", path, err)
		}
		return nil
	})
}
