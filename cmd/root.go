package cmd

import (
	"fmt"
	"os"

	"github.com/kayz/promptstudio/internal/config"
	"github.com/kayz/promptstudio/internal/logger"
	"github.com/kayz/promptstudio/internal/persist"
	"github.com/spf13/cobra"
)

var (
	logLevel      string
	configPath    string
	dbPath        string
	workspacePath string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "promptstudio",
	Short: "Compose, score and validate generative prompts",
	Long: `promptstudio composes prompts from structured params, checks them against
Continuity & Asset Profiles (CAPs) and scores them.

Prompts and CAPs come from the SQLite library, or from a workspace file:
  promptstudio validate p-1
  promptstudio sandbox --workspace story.yaml
  promptstudio watch --workspace story.yaml`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromPath(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}

		// --log wins over the configured level
		levelName := cfg.Logging.Level
		if cmd.Flags().Changed("log") || levelName == "" {
			levelName = logLevel
		}
		level, err := logger.ParseLevel(levelName)
		if err != nil {
			return err
		}
		logger.Init(logger.Config{
			Level:      level,
			File:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: trace, debug, info, warn, error, panic")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default: .promptstudio.yaml next to the executable)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "",
		"SQLite library path (overrides database.path)")
	rootCmd.PersistentFlags().StringVarP(&workspacePath, "workspace", "w", "",
		"Read prompts and CAPs from a YAML/JSON workspace file instead of the library")
}

// openStore opens the configured SQLite library.
func openStore() (*persist.Store, error) {
	store, err := persist.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open library %s: %w", cfg.Database.Path, err)
	}
	logger.Debug("Opened library %s", cfg.Database.Path)
	return store, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
