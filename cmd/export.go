package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/kayz/promptstudio/internal/exchange"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
	exportRender bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the library as a JSON bundle or Markdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		bundle, err := store.Snapshot()
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		switch exportFormat {
		case "json":
			if err := exchange.Encode(&buf, bundle); err != nil {
				return err
			}
		case "md", "markdown":
			md := exchange.Markdown(bundle)
			if exportRender && exportOutput == "" {
				md = renderMarkdown(md)
			}
			buf.WriteString(md)
		default:
			return fmt.Errorf("unknown format %q (use json or md)", exportFormat)
		}

		if exportOutput == "" {
			_, err := io.Copy(cmd.OutOrStdout(), &buf)
			return err
		}
		if err := os.WriteFile(exportOutput, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		c := bundle.Counts()
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d projects, %d prompts, %d CAPs, %d templates to %s\n",
			c.Projects, c.Prompts, c.CAPs, c.Templates, exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format: json or md")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportRender, "render", false, "Render Markdown for the terminal (stdout only)")
	rootCmd.AddCommand(exportCmd)
}
