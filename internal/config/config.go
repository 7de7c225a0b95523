package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PROMPTSTUDIO_DATABASE_PATH.
const EnvPrefix = "PROMPTSTUDIO"

var (
	exeDirCache string
)

// getExecutableDir returns the directory where the executable is located
func getExecutableDir() string {
	if exeDirCache != "" {
		return exeDirCache
	}
	execPath, err := os.Executable()
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	exeDirCache = filepath.Dir(execPath)
	return exeDirCache
}

type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Logging     LoggingConfig     `yaml:"logging"`
	PromptBuild PromptBuildConfig `yaml:"promptbuild"`
	Rescore     RescoreConfig     `yaml:"rescore"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" split_words:"true"`
}

type LoggingConfig struct {
	Level string `yaml:"level" split_words:"true"`
	// File is optional; when set, logs are also written there and rotated.
	File       string `yaml:"file,omitempty" split_words:"true"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" split_words:"true"`
	MaxBackups int    `yaml:"max_backups,omitempty" split_words:"true"`
}

// PromptBuildConfig configures the audit trail kept for composed prompts.
type PromptBuildConfig struct {
	RootDir            string `yaml:"root_dir,omitempty" split_words:"true"`
	AuditEnabled       bool   `yaml:"audit_enabled" split_words:"true"`
	AuditDir           string `yaml:"audit_dir,omitempty" split_words:"true"`
	AuditRetentionDays int    `yaml:"audit_retention_days,omitempty" split_words:"true"`
	AuditFilePrefix    string `yaml:"audit_file_prefix,omitempty" split_words:"true"`
}

// RescoreConfig configures scheduled re-scoring of stored prompts.
type RescoreConfig struct {
	// Schedule is a 5-field cron expression or a descriptor such as "@hourly".
	// Empty disables scheduling.
	Schedule    string `yaml:"schedule,omitempty" split_words:"true"`
	Workers     int    `yaml:"workers,omitempty" split_words:"true"`
	MetricsFile string `yaml:"metrics_file,omitempty" split_words:"true"`
}

func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(ConfigDir(), "studio.db"),
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		PromptBuild: PromptBuildConfig{
			RootDir:            ".",
			AuditEnabled:       false,
			AuditDir:           ".promptstudio/audit",
			AuditRetentionDays: 7,
			AuditFilePrefix:    "promptbuild",
		},
		Rescore: RescoreConfig{
			Workers: 4,
		},
	}
}

func ConfigDir() string {
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".promptstudio")
}

func ConfigPath() string {
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".promptstudio.yaml")
}

// Load reads the config next to the executable. A missing file yields the
// defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

// LoadFromPath reads the config at path, then applies environment overrides.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}
	return cfg, nil
}

func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
