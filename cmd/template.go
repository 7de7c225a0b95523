package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kayz/promptstudio/internal/studio"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	templateFile          string
	templateType          string
	templateTitle         string
	templateInputs        []string
	templateContent       string
	templateBestPractices string
	templateTags          []string
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage reusable prompt templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		templates, err := store.ListTemplates()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(templates) == 0 {
			fmt.Fprintln(out, "No templates.")
			return nil
		}
		for _, t := range templates {
			fmt.Fprintf(out, "%-40s %-9s %s", t.ID, t.Type, titleStyle.Render(t.Title))
			if len(t.Inputs) > 0 {
				fmt.Fprint(out, mutedStyle.Render("  inputs: "+strings.Join(t.Inputs, ", ")))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <template-id>",
	Short: "Show a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		t, err := store.GetTemplate(args[0])
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(t)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(t.Title)+" "+mutedStyle.Render("("+string(t.Type)+")"))
		fmt.Fprintln(out, string(data))
		return nil
	},
}

var templateAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a template from a file or from flags",
	Example: `  promptstudio template add --type image --title "Hero portrait" --input subject --input mood \
    --content "Portrait of {subject}, {mood} lighting"
  promptstudio template add --file portrait.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var t studio.Template
		if templateFile != "" {
			data, err := os.ReadFile(templateFile)
			if err != nil {
				return err
			}
			if strings.EqualFold(filepath.Ext(templateFile), ".json") {
				err = json.Unmarshal(data, &t)
			} else {
				err = yaml.Unmarshal(data, &t)
			}
			if err != nil {
				return fmt.Errorf("parse %s: %w", templateFile, err)
			}
		} else {
			t = studio.Template{
				Type:          studio.ParsePromptType(templateType),
				Title:         templateTitle,
				Inputs:        templateInputs,
				Content:       templateContent,
				BestPractices: templateBestPractices,
				Tags:          templateTags,
			}
		}
		if !t.Type.Known() {
			return fmt.Errorf("unknown template type %q (use video, image, story or workflow)", t.Type)
		}
		if !studio.Filled(t.Title) {
			return fmt.Errorf("template title is required")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		created, err := store.CreateTemplate(t)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", created.ID, created.Title)
		return nil
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <template-id>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteTemplate(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	templateAddCmd.Flags().StringVarP(&templateFile, "file", "f", "", "Template file (YAML, or JSON by extension)")
	templateAddCmd.Flags().StringVar(&templateType, "type", "", "Prompt type: video, image, story or workflow")
	templateAddCmd.Flags().StringVar(&templateTitle, "title", "", "Template title")
	templateAddCmd.Flags().StringArrayVar(&templateInputs, "input", nil, "Named input (repeatable)")
	templateAddCmd.Flags().StringVar(&templateContent, "content", "", "Template body")
	templateAddCmd.Flags().StringVar(&templateBestPractices, "best-practices", "", "Usage notes")
	templateAddCmd.Flags().StringSliceVar(&templateTags, "tag", nil, "Tag (repeatable)")

	templateCmd.AddCommand(templateListCmd, templateShowCmd, templateAddCmd, templateDeleteCmd)
	rootCmd.AddCommand(templateCmd)
}
