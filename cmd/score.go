package cmd

import (
	"fmt"
	"runtime"

	"github.com/kayz/promptstudio/internal/scoring"
	"github.com/kayz/promptstudio/internal/studio"
	"github.com/spf13/cobra"
)

var scoreJSON bool

type scoreResult struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Score studio.Score `json:"score"`
}

var scoreCmd = &cobra.Command{
	Use:   "score [prompt-id...]",
	Short: "Score prompts for clarity, constraints, continuity and risk",
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		defer lib.Close()

		var prompts []*studio.Prompt
		if len(args) == 0 {
			prompts, err = lib.Scenes()
		} else {
			prompts, err = promptsByID(lib, args)
		}
		if err != nil {
			return err
		}

		scores, err := scoring.ScoreAll(cmd.Context(), prompts, lib, runtime.NumCPU())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if scoreJSON {
			results := make([]scoreResult, len(prompts))
			for i, p := range prompts {
				results[i] = scoreResult{ID: p.ID, Title: p.Title, Score: scores[i]}
			}
			return writeJSON(out, results)
		}
		for i, p := range prompts {
			fmt.Fprintln(out, promptHeading(p))
			writeScore(out, scores[i])
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print scores as JSON")
	rootCmd.AddCommand(scoreCmd)
}
