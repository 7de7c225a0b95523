// Package exchange moves a whole prompt library in and out of the studio as a
// JSON bundle, and renders it as Markdown.
package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/kayz/promptstudio/internal/promptbuild"
	"github.com/kayz/promptstudio/internal/studio"
)

// ErrInvalidBundle is returned when a bundle lacks one of its collections.
var ErrInvalidBundle = errors.New("invalid bundle: projects, prompts, caps and templates are all required")

// Bundle is a complete export of the library.
type Bundle struct {
	Projects  []studio.Project  `json:"projects"`
	Prompts   []*studio.Prompt  `json:"prompts"`
	CAPs      []studio.CAP      `json:"caps"`
	Templates []studio.Template `json:"templates"`
}

// Encode writes b as indented JSON. Nil collections are written as empty
// arrays so the output always decodes.
func Encode(w io.Writer, b *Bundle) error {
	out := Bundle{
		Projects:  nonNil(b.Projects),
		Prompts:   nonNil(b.Prompts),
		CAPs:      nonNil(b.CAPs),
		Templates: nonNil(b.Templates),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode bundle: %w", err)
	}
	return nil
}

// Decode reads a JSON bundle. All four collections must be present.
func Decode(r io.Reader) (*Bundle, error) {
	var raw struct {
		Projects  *[]studio.Project  `json:"projects"`
		Prompts   *[]*studio.Prompt  `json:"prompts"`
		CAPs      *[]studio.CAP      `json:"caps"`
		Templates *[]studio.Template `json:"templates"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if raw.Projects == nil || raw.Prompts == nil || raw.CAPs == nil || raw.Templates == nil {
		return nil, ErrInvalidBundle
	}
	return &Bundle{
		Projects:  *raw.Projects,
		Prompts:   *raw.Prompts,
		CAPs:      *raw.CAPs,
		Templates: *raw.Templates,
	}, nil
}

// Markdown renders the bundle's prompts grouped by project. Prompt text is
// recomposed from params rather than taken from the stored snapshot.
func Markdown(b *Bundle) string {
	var md strings.Builder
	md.WriteString("# Prompt Studio Export\n\n")
	for _, project := range b.Projects {
		fmt.Fprintf(&md, "## Project: %s\n\n", project.Name)
		for _, p := range b.Prompts {
			if p == nil || p.ProjectID != project.ID {
				continue
			}
			fmt.Fprintf(&md, "### Prompt: %s\n", p.Title)
			fmt.Fprintf(&md, "**Type:** %s\n", p.Type)
			fmt.Fprintf(&md, "**Tags:** %s\n\n", strings.Join(p.Tags, ", "))
			md.WriteString("```\n" + promptbuild.Compose(p) + "\n```\n\n")
		}
	}
	return md.String()
}

// Counts holds the number of records per collection.
type Counts struct {
	Projects  int `json:"projects"`
	Prompts   int `json:"prompts"`
	CAPs      int `json:"caps"`
	Templates int `json:"templates"`
}

// Counts returns the number of records in b.
func (b *Bundle) Counts() Counts {
	return Counts{
		Projects:  len(b.Projects),
		Prompts:   len(b.Prompts),
		CAPs:      len(b.CAPs),
		Templates: len(b.Templates),
	}
}

// Preview describes what importing a bundle would add. Collisions list the
// display names of incoming records whose id already exists.
type Preview struct {
	Counts     Counts              `json:"counts"`
	Collisions map[string][]string `json:"collisions"`
}

// HasCollisions reports whether any incoming id already exists.
func (p *Preview) HasCollisions() bool {
	for _, names := range p.Collisions {
		if len(names) > 0 {
			return true
		}
	}
	return false
}

// NewPreview compares incoming against current.
func NewPreview(current, incoming *Bundle) *Preview {
	projectIDs := make(map[string]bool, len(current.Projects))
	for _, p := range current.Projects {
		projectIDs[p.ID] = true
	}
	promptIDs := make(map[string]bool, len(current.Prompts))
	for _, p := range current.Prompts {
		if p != nil {
			promptIDs[p.ID] = true
		}
	}
	capIDs := make(map[string]bool, len(current.CAPs))
	for _, c := range current.CAPs {
		capIDs[c.ID] = true
	}
	templateIDs := make(map[string]bool, len(current.Templates))
	for _, t := range current.Templates {
		templateIDs[t.ID] = true
	}

	collisions := map[string][]string{
		"projects":  {},
		"prompts":   {},
		"caps":      {},
		"templates": {},
	}
	for _, p := range incoming.Projects {
		if projectIDs[p.ID] {
			collisions["projects"] = append(collisions["projects"], p.Name)
		}
	}
	for _, p := range incoming.Prompts {
		if p != nil && promptIDs[p.ID] {
			collisions["prompts"] = append(collisions["prompts"], p.Title)
		}
	}
	for _, c := range incoming.CAPs {
		if capIDs[c.ID] {
			collisions["caps"] = append(collisions["caps"], c.DisplayName())
		}
	}
	for _, t := range incoming.Templates {
		if templateIDs[t.ID] {
			collisions["templates"] = append(collisions["templates"], t.Title)
		}
	}

	return &Preview{Counts: incoming.Counts(), Collisions: collisions}
}

// Remap returns a copy of b with fresh ids. Each new id keeps the prefix of
// the old one. Prompt project and CAP references are rewritten when they
// point inside the bundle and left alone otherwise.
func Remap(b *Bundle) *Bundle {
	ids := make(map[string]string)
	remap := func(old string) string {
		if id, ok := ids[old]; ok {
			return id
		}
		id := NewID(idPrefix(old))
		ids[old] = id
		return id
	}
	ref := func(old string) string {
		if id, ok := ids[old]; ok {
			return id
		}
		return old
	}

	out := &Bundle{
		Projects:  make([]studio.Project, 0, len(b.Projects)),
		Prompts:   make([]*studio.Prompt, 0, len(b.Prompts)),
		CAPs:      make([]studio.CAP, 0, len(b.CAPs)),
		Templates: make([]studio.Template, 0, len(b.Templates)),
	}
	for _, p := range b.Projects {
		p.ID = remap(p.ID)
		out.Projects = append(out.Projects, p)
	}
	for _, c := range b.CAPs {
		c.ID = remap(c.ID)
		out.CAPs = append(out.CAPs, c)
	}
	for _, t := range b.Templates {
		t.ID = remap(t.ID)
		out.Templates = append(out.Templates, t)
	}
	for _, p := range b.Prompts {
		if p == nil {
			continue
		}
		cp := *p
		cp.ID = remap(p.ID)
		cp.ProjectID = ref(p.ProjectID)
		cp.Caps = make([]string, len(p.Caps))
		for i, id := range p.Caps {
			cp.Caps[i] = ref(id)
		}
		out.Prompts = append(out.Prompts, &cp)
	}
	return out
}

// NewID returns a fresh id of the form <prefix>-<uuid>.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func idPrefix(id string) string {
	prefix, _, _ := strings.Cut(id, "-")
	if prefix == "" {
		return "imported"
	}
	return prefix
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
