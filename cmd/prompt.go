package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kayz/promptstudio/internal/exchange"
	"github.com/kayz/promptstudio/internal/logger"
	"github.com/kayz/promptstudio/internal/persist"
	"github.com/kayz/promptstudio/internal/promptbuild"
	"github.com/kayz/promptstudio/internal/scoring"
	"github.com/kayz/promptstudio/internal/studio"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	promptListProject string
	promptSaveFile    string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Manage prompts in the library",
}

var promptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		var prompts []*studio.Prompt
		if promptListProject != "" {
			prompts, err = store.ListPromptsByProject(promptListProject)
		} else {
			prompts, err = store.ListPrompts()
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(prompts) == 0 {
			fmt.Fprintln(out, "No prompts.")
			return nil
		}
		for _, p := range prompts {
			score := mutedStyle.Render("unscored")
			if p.Score != nil {
				score = fmt.Sprintf("c%d/k%d/n%d/r%d", p.Score.Clarity, p.Score.Constraints, p.Score.Continuity, p.Score.Risk)
			}
			fmt.Fprintf(out, "%-40s %-9s v%-3d %-16s %s\n", p.ID, p.Type, p.Version, score, p.Title)
		}
		return nil
	},
}

var promptShowCmd = &cobra.Command{
	Use:   "show <prompt-id>",
	Short: "Show a prompt and its composed text",
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
		data, err := yaml.Marshal(p)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, promptHeading(p))
		fmt.Fprintln(out, string(data))
		fmt.Fprintln(out, titleStyle.Render("Composed"))
		fmt.Fprintln(out, promptbuild.Compose(p))
		return nil
	},
}

var promptSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create or update a prompt from a YAML/JSON file",
	Long: `Create or update a prompt from a YAML/JSON file. A prompt without an id is
created; otherwise the stored prompt with that id is replaced. The content
snapshot is recomposed from params and the prompt is re-scored on every save.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if promptSaveFile == "" {
			return fmt.Errorf("--file is required")
		}
		p, err := readPromptFile(promptSaveFile)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		saved, err := savePrompt(store, promptbuild.NewBuilder(cfg.PromptBuild), p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (version %d)\n", saved.ID, saved.Version)
		writeScore(cmd.OutOrStdout(), *saved.Score)
		return nil
	},
}

var promptDeleteCmd = &cobra.Command{
	Use:   "delete <prompt-id>",
	Short: "Delete a prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeletePrompt(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

// savePrompt refreshes the content snapshot and score of p, then creates or
// updates it. The id and version are settled before the build so the audit
// record names the prompt being saved.
func savePrompt(store *persist.Store, builder *promptbuild.Builder, p *studio.Prompt) (*studio.Prompt, error) {
	if !p.Type.Known() {
		return nil, fmt.Errorf("unknown prompt type %q (use video, image, story or workflow)", p.Type)
	}
	if p.Params == nil {
		p.Params = studio.NewParams(p.Type)
	}

	create := p.ID == ""
	if create {
		p.ID = exchange.NewID("p")
		p.Version = 1
	} else {
		current, err := store.GetPrompt(p.ID)
		if errors.Is(err, persist.ErrNotFound) {
			return nil, fmt.Errorf("prompt %s does not exist; drop the id to create it", p.ID)
		}
		if err != nil {
			return nil, err
		}
		p.Version = current.Version
		if promptbuild.Compose(p) != current.Content {
			p.Version++
		}
	}

	content, err := builder.Build(p)
	if err != nil {
		logger.Warn("record promptbuild failed: %v", err)
	}
	p.Content = content

	caps, err := store.ListCAPs()
	if err != nil {
		return nil, fmt.Errorf("load caps: %w", err)
	}
	score := scoring.Score(p, studio.NewCAPIndex(caps))
	p.Score = &score

	if create {
		return store.CreatePrompt(p)
	}
	return store.UpdatePrompt(p)
}

func readPromptFile(path string) (*studio.Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p studio.Prompt
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &p)
	} else {
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &p, nil
}

func init() {
	promptListCmd.Flags().StringVar(&promptListProject, "project", "", "Only list prompts of this project")
	promptSaveCmd.Flags().StringVarP(&promptSaveFile, "file", "f", "", "Prompt file (YAML, or JSON by extension)")

	promptCmd.AddCommand(promptListCmd, promptShowCmd, promptSaveCmd, promptDeleteCmd)
	rootCmd.AddCommand(promptCmd)
}
