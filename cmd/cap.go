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
	capFile      string
	capScope     string
	capSignature []string
	capForbid    []string
	capPalette   []string
	capCamera    []string
	capHint      string
)

var capCmd = &cobra.Command{
	Use:   "cap",
	Short: "Manage Continuity & Asset Profiles",
}

var capListCmd = &cobra.Command{
	Use:   "list",
	Short: "List CAPs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		caps, err := store.ListCAPs()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(caps) == 0 {
			fmt.Fprintln(out, "No CAPs.")
			return nil
		}
		for _, c := range caps {
			fmt.Fprintf(out, "%-40s %-12s %s", c.ID, c.Scope, titleStyle.Render(c.DisplayName()))
			if len(c.Forbid) > 0 {
				fmt.Fprint(out, mutedStyle.Render("  forbid: "+strings.Join(c.Forbid, ", ")))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

var capAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a CAP from a file or from flags",
	Example: `  promptstudio cap add --scope character --signature "Mara Voss" --signature "silver braid" --forbid umbrella
  promptstudio cap add --file hero.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var c studio.CAP
		if capFile != "" {
			var err error
			if c, err = readCAPFile(capFile); err != nil {
				return err
			}
		} else {
			c = studio.CAP{
				Scope:     studio.ParseScope(capScope),
				Signature: capSignature,
				Forbid:    capForbid,
				Palette:   capPalette,
				Camera:    capCamera,
				UsageHint: capHint,
			}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		created, err := store.CreateCAP(c)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", created.ID, created.DisplayName())
		return nil
	},
}

var capEditCmd = &cobra.Command{
	Use:   "edit <cap-id>",
	Short: "Edit a CAP from a file or from flags",
	Long: `Edit a CAP. With --file the stored CAP is replaced by the file's contents;
otherwise only the fields whose flags are given change. List flags replace
the whole list.`,
	Example: `  promptstudio cap edit cap-1234 --forbid umbrella --forbid sunglasses
  promptstudio cap edit cap-1234 --file hero.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		c, err := store.GetCAP(args[0])
		if err != nil {
			return err
		}
		if capFile != "" {
			if c, err = readCAPFile(capFile); err != nil {
				return err
			}
		} else {
			flags := cmd.Flags()
			if flags.Changed("scope") {
				c.Scope = studio.ParseScope(capScope)
			}
			if flags.Changed("signature") {
				c.Signature = capSignature
			}
			if flags.Changed("forbid") {
				c.Forbid = capForbid
			}
			if flags.Changed("palette") {
				c.Palette = capPalette
			}
			if flags.Changed("camera") {
				c.Camera = capCamera
			}
			if flags.Changed("hint") {
				c.UsageHint = capHint
			}
		}
		c.ID = args[0]

		updated, err := store.UpdateCAP(c)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", updated.ID, updated.DisplayName())
		return nil
	},
}

func readCAPFile(path string) (studio.CAP, error) {
	var c studio.CAP
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &c)
	} else {
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

var capDeleteCmd = &cobra.Command{
	Use:   "delete <cap-id>",
	Short: "Delete a CAP; prompts that reference it report missing_cap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteCAP(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{capAddCmd, capEditCmd} {
		c.Flags().StringVarP(&capFile, "file", "f", "", "CAP file (YAML, or JSON by extension)")
		c.Flags().StringVar(&capScope, "scope", "character", "Scope: character, environment or style")
		c.Flags().StringArrayVar(&capSignature, "signature", nil, "Signature keyword; the first one names the CAP (repeatable)")
		c.Flags().StringArrayVar(&capForbid, "forbid", nil, "Forbidden term (repeatable)")
		c.Flags().StringArrayVar(&capPalette, "palette", nil, "Palette entry (repeatable)")
		c.Flags().StringArrayVar(&capCamera, "camera", nil, "Camera preference (repeatable)")
		c.Flags().StringVar(&capHint, "hint", "", "Usage hint")
	}

	capCmd.AddCommand(capListCmd, capAddCmd, capEditCmd, capDeleteCmd)
	rootCmd.AddCommand(capCmd)
}
