package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kayz/promptstudio/internal/continuity"
	"github.com/kayz/promptstudio/internal/logger"
	"github.com/kayz/promptstudio/internal/promptbuild"
	"github.com/kayz/promptstudio/internal/sandbox"
	"github.com/kayz/promptstudio/internal/workspace"
	"github.com/spf13/cobra"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-check a workspace file every time it is saved",
	RunE: func(cmd *cobra.Command, args []string) error {
		if workspacePath == "" {
			return fmt.Errorf("--workspace is required")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return watchWorkspace(ctx, workspacePath, watchDebounce, cmd.OutOrStdout())
	},
}

// watchWorkspace reports on path once, then again after every burst of
// writes. Editors often replace the file instead of writing it, so the
// directory is watched rather than the file.
func watchWorkspace(ctx context.Context, path string, debounce time.Duration, out io.Writer) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("Watching %s", abs)

	reportWorkspace(abs, out)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("Workspace event %s", event.Op)
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watcher error: %v", err)

		case <-timer.C:
			reportWorkspace(abs, out)
		}
	}
}

func reportWorkspace(path string, out io.Writer) {
	fmt.Fprintln(out, mutedStyle.Render(time.Now().Format("15:04:05")+" "+path))

	ws, err := workspace.Load(path)
	if err != nil {
		fmt.Fprintln(out, errStyle.Render("✗ "+err.Error()))
		return
	}

	for _, p := range ws.Prompts {
		fmt.Fprintln(out, promptHeading(p))
		writeContinuityIssues(out, continuity.Validate(p, promptbuild.Compose(p), ws))
	}
	fmt.Fprintln(out)
	writeSandboxIssues(out, sandbox.Validate(ws.SceneList(), ws))
	fmt.Fprintln(out)
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Wait this long after the last change before re-checking")
	rootCmd.AddCommand(watchCmd)
}
