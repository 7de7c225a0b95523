package cmd

import (
	"fmt"

	"github.com/kayz/promptstudio/internal/studio"
	"github.com/spf13/cobra"
)

var (
	projectName        string
	projectDescription string
	projectTags        []string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		projects, err := store.ListProjects()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(projects) == 0 {
			fmt.Fprintln(out, "No projects.")
			return nil
		}
		for _, p := range projects {
			fmt.Fprintf(out, "%-40s %s", p.ID, titleStyle.Render(p.Name))
			if p.Description != "" {
				fmt.Fprint(out, mutedStyle.Render("  "+p.Description))
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := store.CreateProject(studio.Project{Name: args[0], Description: projectDescription, Tags: projectTags})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", p.ID, p.Name)
		return nil
	},
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update <project-id>",
	Short: "Rename a project or change its description and tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := store.GetProject(args[0])
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("name") {
			p.Name = projectName
		}
		if flags.Changed("description") {
			p.Description = projectDescription
		}
		if flags.Changed("tag") {
			p.Tags = projectTags
		}

		p, err = store.UpdateProject(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", p.ID, p.Name)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project and its prompts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteProject(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	projectUpdateCmd.Flags().StringVar(&projectName, "name", "", "New project name")
	for _, c := range []*cobra.Command{projectCreateCmd, projectUpdateCmd} {
		c.Flags().StringVar(&projectDescription, "description", "", "Project description")
		c.Flags().StringSliceVar(&projectTags, "tag", nil, "Tag (repeatable)")
	}

	projectCmd.AddCommand(projectListCmd, projectCreateCmd, projectUpdateCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}
