// Package continuity checks a composed prompt against the CAPs attached to it.
package continuity

import (
	"fmt"
	"strings"

	"github.com/kayz/promptstudio/internal/studio"
)

// Kind names a class of continuity issue.
type Kind string

const (
	MissingCAP      Kind = "missing_cap"
	ForbidViolation Kind = "forbid_violation"
	NoCamera        Kind = "no_camera"
	NoLighting      Kind = "no_lighting"
)

// Issue is one continuity finding. Term is set only for ForbidViolation.
type Issue struct {
	Kind Kind
	Term string
}

// String renders the issue in its wire form, e.g. "forbid_violation:rain".
func (i Issue) String() string {
	if i.Kind == ForbidViolation {
		return string(i.Kind) + ":" + i.Term
	}
	return string(i.Kind)
}

// ParseIssue parses the wire form produced by String.
func ParseIssue(s string) (Issue, error) {
	if term, ok := strings.CutPrefix(s, string(ForbidViolation)+":"); ok {
		return Issue{Kind: ForbidViolation, Term: term}, nil
	}
	switch Kind(s) {
	case MissingCAP, NoCamera, NoLighting:
		return Issue{Kind: Kind(s)}, nil
	}
	return Issue{}, fmt.Errorf("unknown continuity issue %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (i Issue) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Issue) UnmarshalText(text []byte) error {
	parsed, err := ParseIssue(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Validate inspects p and its composed text. Rules run in a fixed order and
// never short-circuit: missing CAPs, forbidden terms (one issue per matching
// CAP and term), missing camera, missing lighting. CAP ids that caps cannot
// resolve are skipped. A nil prompt has no issues.
func Validate(p *studio.Prompt, composed string, caps studio.CAPLookup) []Issue {
	if p == nil {
		return nil
	}

	var issues []Issue
	if p.Type.Visual() && len(p.Caps) == 0 {
		issues = append(issues, Issue{Kind: MissingCAP})
	}

	text := studio.LowerText(composed)
	for _, c := range studio.ResolveCAPs(caps, p.Caps) {
		for _, term := range c.Forbid {
			if !studio.Filled(term) {
				continue
			}
			if strings.Contains(text, studio.LowerText(term)) {
				issues = append(issues, Issue{Kind: ForbidViolation, Term: term})
			}
		}
	}

	if p.Type == studio.TypeVideo && !p.Video().Camera.Entries().AnyFilled() {
		issues = append(issues, Issue{Kind: NoCamera})
	}

	if p.Type.Visual() && !studio.Filled(lighting(p)) {
		issues = append(issues, Issue{Kind: NoLighting})
	}

	return issues
}

// Has reports whether issues contains an issue of kind k.
func Has(issues []Issue, k Kind) bool {
	for _, i := range issues {
		if i.Kind == k {
			return true
		}
	}
	return false
}

func lighting(p *studio.Prompt) string {
	switch p.Type {
	case studio.TypeVideo:
		return p.Video().Lighting
	case studio.TypeImage:
		return p.Image().Lighting
	}
	return ""
}
