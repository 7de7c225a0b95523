package cmd

import (
	"fmt"
	"os"

	"github.com/kayz/promptstudio/internal/logger"
	"github.com/kayz/promptstudio/internal/promptbuild"
	"github.com/spf13/cobra"
)

var composeOutputPath string

var composeCmd = &cobra.Command{
	Use:   "compose <prompt-id>",
	Short: "Compose the final prompt text from a prompt's params",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary()
		if err != nil {
			return err
		}
		defer lib.Close()

		p, err := lib.Prompt(args[0])
		if err != nil {
			return err
		}

		builder := promptbuild.NewBuilder(cfg.PromptBuild)
		out, err := builder.Build(p)
		if err != nil {
			logger.Warn("record promptbuild failed: %v", err)
		}
		if err := builder.CleanupOldAuditFiles(); err != nil {
			logger.Warn("cleanup promptbuild audit files failed: %v", err)
		}

		if composeOutputPath == "" {
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		}
		if err := os.WriteFile(composeOutputPath, []byte(out+"\n"), 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		return nil
	},
}

func init() {
	composeCmd.Flags().StringVarP(&composeOutputPath, "output", "o", "", "Write output to file (default: stdout)")
	rootCmd.AddCommand(composeCmd)
}
