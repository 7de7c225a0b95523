package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kayz/promptstudio/internal/sandbox"
	"github.com/kayz/promptstudio/internal/studio"
	"github.com/spf13/cobra"
)

var (
	sandboxMoves   []string
	sandboxRemoves []int
	sandboxExport  string
	sandboxRender  bool
	sandboxJSON    bool
)

var sandboxCmd = &cobra.Command{
	Use:   "sandbox [prompt-id...]",
	Short: "Check a sequence of scenes for cross-scene conflicts",
	Long: `Check a sequence of scenes for cross-scene conflicts: CAPs reused across
scenes and forbidden terms of any scene's CAPs appearing in another scene.

Scenes are the given prompt ids in order, or the workspace scene list.
Edits are applied in order before checking; positions are 1-based:
  promptstudio sandbox -w story.yaml --move 3:1 --remove 2 --export outline.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		defer lib.Close()

		var scenes []*studio.Prompt
		if len(args) == 0 {
			scenes, err = lib.Scenes()
		} else {
			scenes, err = promptsByID(lib, args)
		}
		if err != nil {
			return err
		}

		for _, m := range sandboxMoves {
			from, to, err := parseMove(m)
			if err != nil {
				return err
			}
			if from >= len(scenes) || to >= len(scenes) {
				return fmt.Errorf("move %s: only %d scenes", m, len(scenes))
			}
			scenes = sandbox.Move(scenes, from, to)
		}
		for _, n := range sandboxRemoves {
			if n < 1 || n > len(scenes) {
				return fmt.Errorf("remove %d: only %d scenes", n, len(scenes))
			}
			scenes = sandbox.Remove(scenes, n-1)
		}

		issues := sandbox.Validate(scenes, lib)

		if sandboxExport != "" {
			md := sandbox.ExportMarkdown(scenes, lib)
			if err := os.WriteFile(sandboxExport, []byte(md), 0644); err != nil {
				return fmt.Errorf("write outline: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		if sandboxJSON {
			if issues == nil {
				issues = []sandbox.Issue{}
			}
			return writeJSON(out, issues)
		}
		if sandboxRender {
			fmt.Fprint(out, renderMarkdown(sandbox.ExportMarkdown(scenes, lib)))
		} else {
			for i, s := range scenes {
				fmt.Fprintf(out, "%s %s\n", mutedStyle.Render(fmt.Sprintf("%2d.", i+1)), promptHeading(s))
			}
		}
		fmt.Fprintln(out)
		writeSandboxIssues(out, issues)
		return nil
	},
}

// parseMove parses a 1-based "from:to" pair into 0-based indexes.
func parseMove(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid move %q (want from:to)", s)
	}
	from, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	to, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || from < 1 || to < 1 {
		return 0, 0, fmt.Errorf("invalid move %q (positions start at 1)", s)
	}
	return from - 1, to - 1, nil
}

func init() {
	sandboxCmd.Flags().StringArrayVar(&sandboxMoves, "move", nil, "Move a scene, from:to (repeatable)")
	sandboxCmd.Flags().IntSliceVar(&sandboxRemoves, "remove", nil, "Remove the scene at a position (repeatable)")
	sandboxCmd.Flags().StringVar(&sandboxExport, "export", "", "Write the story outline Markdown to a file")
	sandboxCmd.Flags().BoolVar(&sandboxRender, "render", false, "Render the story outline in the terminal")
	sandboxCmd.Flags().BoolVar(&sandboxJSON, "json", false, "Print issues as JSON")
	rootCmd.AddCommand(sandboxCmd)
}
