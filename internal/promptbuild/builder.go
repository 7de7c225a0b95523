package promptbuild

import (
	"path/filepath"
	"strings"

	"github.com/kayz/promptstudio/internal/config"
	"github.com/kayz/promptstudio/internal/logger"
	"github.com/kayz/promptstudio/internal/studio"
)

// Builder composes prompts for the CLI and keeps an audit trail of every
// text it hands out.
type Builder struct {
	cfg config.PromptBuildConfig
}

// NewBuilder creates a new Builder from config.
func NewBuilder(cfg config.PromptBuildConfig) *Builder {
	b := &Builder{cfg: cfg}
	b.applyDefaults()
	return b
}

// Build composes p and records the result when auditing is enabled. The
// composed text is returned even if the audit write fails.
func (b *Builder) Build(p *studio.Prompt) (string, error) {
	text := Compose(p)
	if p != nil {
		logger.Debug("Composed prompt %s (%s, %d chars)", p.ID, p.Type, len(text))
	}
	if err := b.writeAuditRecord(p, text); err != nil {
		return text, err
	}
	return text, nil
}

func (b *Builder) applyDefaults() {
	if b.cfg.RootDir == "" {
		b.cfg.RootDir = "."
	}
	if strings.TrimSpace(b.cfg.AuditDir) == "" {
		b.cfg.AuditDir = ".promptstudio/audit"
	}
	if strings.TrimSpace(b.cfg.AuditFilePrefix) == "" {
		b.cfg.AuditFilePrefix = "promptbuild"
	}
}

func (b *Builder) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(b.cfg.RootDir, p)
}
