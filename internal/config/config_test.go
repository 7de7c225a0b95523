package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromPathReadsSections(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, ".promptstudio.yaml")
	content := `database:
  path: /tmp/work/studio.db
logging:
  level: debug
promptbuild:
  audit_enabled: true
  audit_retention_days: 30
rescore:
  schedule: "@hourly"
  workers: 8
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Database.Path != "/tmp/work/studio.db" {
		t.Fatalf("unexpected database path: %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
	if !cfg.PromptBuild.AuditEnabled || cfg.PromptBuild.AuditRetentionDays != 30 {
		t.Fatalf("unexpected promptbuild section: %#v", cfg.PromptBuild)
	}
	if cfg.PromptBuild.AuditFilePrefix != "promptbuild" {
		t.Fatalf("expected default audit prefix to survive, got %q", cfg.PromptBuild.AuditFilePrefix)
	}
	if cfg.Rescore.Schedule != "@hourly" || cfg.Rescore.Workers != 8 {
		t.Fatalf("unexpected rescore section: %#v", cfg.Rescore)
	}
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Logging.Level != "info" || cfg.Rescore.Workers != 4 {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, ".promptstudio.yaml")
	if err := os.WriteFile(cfgPath, []byte("database:\n  path: from-file.db\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PROMPTSTUDIO_DATABASE_PATH", "from-env.db")
	t.Setenv("PROMPTSTUDIO_RESCORE_WORKERS", "2")

	cfg, err := LoadFromPath(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Database.Path != "from-env.db" {
		t.Fatalf("expected env override, got %q", cfg.Database.Path)
	}
	if cfg.Rescore.Workers != 2 {
		t.Fatalf("expected env workers override, got %d", cfg.Rescore.Workers)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := DefaultConfig()
	cfg.Rescore.Schedule = "*/5 * * * *"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save config: %v", err)
	}
	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if loaded.Rescore.Schedule != "*/5 * * * *" {
		t.Fatalf("schedule lost on save: %q", loaded.Rescore.Schedule)
	}
}

func TestEnvironmentIgnoresUnprefixedNames(t *testing.T) {
	t.Setenv("PATH", "/usr/bin:/bin")
	t.Setenv("LEVEL", "panic")
	t.Setenv("FILE", "/tmp/leak.log")
	t.Setenv("SCHEDULE", "@hourly")
	t.Setenv("WORKERS", "99")
	t.Setenv("PROMPTSTUDIO_LOGGING_MAX_SIZE_MB", "25")
	t.Setenv("PROMPTSTUDIO_PROMPTBUILD_AUDIT_RETENTION_DAYS", "3")

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Database.Path != DefaultConfig().Database.Path {
		t.Fatalf("database path read from $PATH: %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.File != "" {
		t.Fatalf("logging read unprefixed env: %#v", cfg.Logging)
	}
	if cfg.Rescore.Schedule != "" || cfg.Rescore.Workers != 4 {
		t.Fatalf("rescore read unprefixed env: %#v", cfg.Rescore)
	}
	if cfg.Logging.MaxSizeMB != 25 || cfg.PromptBuild.AuditRetentionDays != 3 {
		t.Fatalf("multi-word prefixed names not applied: %#v %#v", cfg.Logging, cfg.PromptBuild)
	}
}
