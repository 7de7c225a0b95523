package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/kayz/promptstudio/internal/exchange"
	"github.com/spf13/cobra"
)

var (
	importRemap  bool
	importDryRun bool
)

var importCmd = &cobra.Command{
	Use:   "import <bundle.json|->",
	Short: "Import a JSON bundle into the library",
	Long: `Import a JSON bundle into the library. A preview of what would be added is
printed first. Records whose id already exists block the import unless
--remap assigns fresh ids to everything in the bundle.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			r = f
		}
		bundle, err := exchange.Decode(r)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if importRemap {
			bundle = exchange.Remap(bundle)
		}
		current, err := store.Snapshot()
		if err != nil {
			return err
		}
		preview := exchange.NewPreview(current, bundle)

		out := cmd.OutOrStdout()
		writePreview(out, preview)

		if preview.HasCollisions() {
			return fmt.Errorf("bundle ids already exist in the library; re-run with --remap")
		}
		if importDryRun {
			fmt.Fprintln(out, mutedStyle.Render("dry run, nothing imported"))
			return nil
		}
		if err := store.Import(bundle); err != nil {
			return fmt.Errorf("import: %w", err)
		}
		fmt.Fprintln(out, okStyle.Render("✓ imported"))
		return nil
	},
}

func writePreview(w io.Writer, p *exchange.Preview) {
	c := p.Counts
	fmt.Fprintln(w, titleStyle.Render("Import preview"))
	fmt.Fprintf(w, "  projects %d, prompts %d, CAPs %d, templates %d\n", c.Projects, c.Prompts, c.CAPs, c.Templates)

	kinds := make([]string, 0, len(p.Collisions))
	for kind := range p.Collisions {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		if names := p.Collisions[kind]; len(names) > 0 {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  existing %s: %s", kind, strings.Join(names, ", "))))
		}
	}
}

func init() {
	importCmd.Flags().BoolVar(&importRemap, "remap", false, "Assign fresh ids to every imported record")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Only print the preview")
	rootCmd.AddCommand(importCmd)
}
