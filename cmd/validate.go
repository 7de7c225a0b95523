package cmd

import (
	"fmt"

	"github.com/kayz/promptstudio/internal/continuity"
	"github.com/kayz/promptstudio/internal/promptbuild"
	"github.com/kayz/promptstudio/internal/studio"
	"github.com/spf13/cobra"
)

var (
	validateJSON   bool
	validateStrict bool
)

type validateResult struct {
	ID     string             `json:"id"`
	Title  string             `json:"title"`
	Issues []continuity.Issue `json:"issues"`
}

var validateCmd = &cobra.Command{
	Use:   "validate [prompt-id...]",
	Short: "Check prompts against their CAPs",
	Long: `Check prompts against their CAPs. Without ids every prompt in the library
(or every scene of the workspace) is checked.`,
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

		results := make([]validateResult, 0, len(prompts))
		failing := 0
		for _, p := range prompts {
			issues := continuity.Validate(p, promptbuild.Compose(p), lib)
			if len(issues) > 0 {
				failing++
			}
			results = append(results, validateResult{ID: p.ID, Title: p.Title, Issues: nonNilIssues(issues)})
		}

		out := cmd.OutOrStdout()
		if validateJSON {
			if err := writeJSON(out, results); err != nil {
				return err
			}
		} else {
			for i, r := range results {
				fmt.Fprintln(out, promptHeading(prompts[i]))
				writeContinuityIssues(out, r.Issues)
			}
		}

		if validateStrict && failing > 0 {
			return fmt.Errorf("%d of %d prompts have continuity issues", failing, len(results))
		}
		return nil
	},
}

func nonNilIssues(issues []continuity.Issue) []continuity.Issue {
	if issues == nil {
		return []continuity.Issue{}
	}
	return issues
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print results as JSON")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Exit non-zero when any prompt has issues")
	rootCmd.AddCommand(validateCmd)
}
