package cmd

import (
	"fmt"
	"os"

	"github.com/kayz/promptstudio/internal/config"
	"github.com/kayz/promptstudio/internal/service"
	"github.com/spf13/cobra"
)

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the scheduled re-scoring service",
	Long: `Install, uninstall, start, stop, or check the status of the service that runs
"promptstudio rescore --daemon" (requires root/admin privileges).`,
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the re-scoring service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Rescore.Schedule == "" {
			return fmt.Errorf("set rescore.schedule in the config before installing the service")
		}
		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("get executable path: %w", err)
		}

		daemonConfig := configPath
		if daemonConfig == "" {
			daemonConfig = config.ConfigPath()
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Installing promptstudio re-scoring service...")
		if err := service.Install(execPath, daemonConfig); err != nil {
			return fmt.Errorf("install service: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Service installed successfully!")
		return nil
	},
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the re-scoring service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := service.Uninstall(); err != nil {
			return fmt.Errorf("uninstall service: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Service uninstalled successfully!")
		return nil
	},
}

var serviceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the re-scoring service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := service.Start(); err != nil {
			return fmt.Errorf("start service: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Service started!")
		return nil
	},
}

var serviceStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the re-scoring service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := service.Stop(); err != nil {
			return fmt.Errorf("stop service: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Service stopped!")
		return nil
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the status of the re-scoring service",
	RunE: func(cmd *cobra.Command, args []string) error {
		binaryPath, definitionPath, err := service.Paths()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "=== promptstudio Service Status ===")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Installed:  %v\n", service.IsInstalled())
		fmt.Fprintf(out, "Running:    %v\n", service.IsRunning())
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Binary:     %s\n", binaryPath)
		fmt.Fprintf(out, "Definition: %s\n", definitionPath)
		return nil
	},
}

func init() {
	serviceCmd.AddCommand(serviceInstallCmd, serviceUninstallCmd, serviceStartCmd, serviceStopCmd, serviceStatusCmd)
	rootCmd.AddCommand(serviceCmd)
}
