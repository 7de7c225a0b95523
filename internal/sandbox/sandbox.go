// Package sandbox validates an ordered list of prompts played as scenes.
package sandbox

import (
	"fmt"
	"strings"

	"github.com/kayz/promptstudio/internal/promptbuild"
	"github.com/kayz/promptstudio/internal/studio"
)

// IssueType classifies a cross-scene issue.
type IssueType string

const (
	DuplicateCAP    IssueType = "duplicate_cap"
	ForbidCollision IssueType = "forbid_collision"
)

// Issue is one cross-scene finding.
type Issue struct {
	Type    IssueType `json:"type"`
	Message string    `json:"message"`
}

// Validate checks a scene list. Fewer than two scenes never produce issues.
//
// Every CAP id resolvable from any scene is counted across the whole list and
// each one used more than once is reported. Then every scene's composed text
// is checked against the forbidden terms of all CAPs in the list, not only
// the scene's own.
func Validate(scenes []*studio.Prompt, caps studio.CAPLookup) []Issue {
	if len(scenes) < 2 {
		return nil
	}

	var resolved []studio.CAP
	for _, s := range scenes {
		if s == nil {
			continue
		}
		resolved = append(resolved, studio.ResolveCAPs(caps, s.Caps)...)
	}

	var issues []Issue

	counts := make(map[string]int)
	var order []string
	for _, c := range resolved {
		if counts[c.ID] == 0 {
			order = append(order, c.ID)
		}
		counts[c.ID]++
	}
	byID := studio.NewCAPIndex(resolved)
	for _, id := range order {
		if n := counts[id]; n > 1 {
			issues = append(issues, Issue{
				Type:    DuplicateCAP,
				Message: fmt.Sprintf("CAP %q is used in %d scenes.", byID[id].DisplayName(), n),
			})
		}
	}

	terms := forbiddenTerms(resolved)
	for i, s := range scenes {
		if s == nil {
			continue
		}
		text := studio.LowerText(promptbuild.Compose(s))
		for _, term := range terms {
			if strings.Contains(text, studio.LowerText(term)) {
				issues = append(issues, Issue{
					Type:    ForbidCollision,
					Message: fmt.Sprintf("Scene %d (%q) contains forbidden term: %q.", i+1, s.Title, term),
				})
			}
		}
	}

	return issues
}

// forbiddenTerms returns the distinct non-blank forbidden terms of caps in
// first-seen order.
func forbiddenTerms(caps []studio.CAP) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, c := range caps {
		for _, term := range c.Forbid {
			if !studio.Filled(term) || seen[term] {
				continue
			}
			seen[term] = true
			terms = append(terms, term)
		}
	}
	return terms
}

// Move returns a copy of scenes with the scene at from moved to index to.
// Out-of-range indexes leave the order unchanged.
func Move(scenes []*studio.Prompt, from, to int) []*studio.Prompt {
	out := append([]*studio.Prompt(nil), scenes...)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]*studio.Prompt{moved}, out[to:]...)...)
	return out
}

// Remove returns a copy of scenes without the scene at index i.
func Remove(scenes []*studio.Prompt, i int) []*studio.Prompt {
	out := append([]*studio.Prompt(nil), scenes...)
	if i < 0 || i >= len(out) {
		return out
	}
	return append(out[:i], out[i+1:]...)
}

// ExportMarkdown renders the scene list as a story outline.
func ExportMarkdown(scenes []*studio.Prompt, caps studio.CAPLookup) string {
	var b strings.Builder
	b.WriteString("# Story Outline\n\n")
	for i, s := range scenes {
		if s == nil {
			continue
		}
		fmt.Fprintf(&b, "## Scene %d: %s\n\n", i+1, s.Title)
		fmt.Fprintf(&b, "**Applied CAPs:** %s\n\n", capNames(s.Caps, caps))
		b.WriteString("```\n")
		b.WriteString(promptbuild.Compose(s))
		b.WriteString("\n```\n\n---\n\n")
	}
	return b.String()
}

func capNames(ids []string, caps studio.CAPLookup) string {
	if len(ids) == 0 {
		return "None"
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name := "Unknown"
		if caps != nil {
			if c, ok := caps.LookupCAP(id); ok && c.DisplayName() != "" {
				name = c.DisplayName()
			}
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
