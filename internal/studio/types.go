package studio

import (
	"strings"
	"time"
)

// PromptType selects the composition and scoring rules applied to a prompt.
type PromptType string

const (
	TypeVideo    PromptType = "video"
	TypeImage    PromptType = "image"
	TypeStory    PromptType = "story"
	TypeWorkflow PromptType = "workflow"
)

// ParsePromptType normalizes a prompt type name. The legacy "veo3" name maps
// to video; unknown names are kept verbatim.
func ParsePromptType(s string) PromptType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video", "veo3":
		return TypeVideo
	case "image":
		return TypeImage
	case "story":
		return TypeStory
	case "workflow":
		return TypeWorkflow
	default:
		return PromptType(s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *PromptType) UnmarshalText(text []byte) error {
	*t = ParsePromptType(string(text))
	return nil
}

// Known reports whether t is one of the four supported prompt types.
func (t PromptType) Known() bool {
	switch t {
	case TypeVideo, TypeImage, TypeStory, TypeWorkflow:
		return true
	}
	return false
}

// Visual reports whether t renders to a picture or a clip.
func (t PromptType) Visual() bool {
	return t == TypeVideo || t == TypeImage
}

// Scope is the kind of continuity a CAP enforces.
type Scope string

const (
	ScopeCharacter   Scope = "character"
	ScopeEnvironment Scope = "environment"
	ScopeStyle       Scope = "style"
)

// ParseScope normalizes a scope name; "env" is accepted for environment.
func ParseScope(s string) Scope {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "character":
		return ScopeCharacter
	case "environment", "env":
		return ScopeEnvironment
	case "style":
		return ScopeStyle
	default:
		return Scope(s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scope) UnmarshalText(text []byte) error {
	*s = ParseScope(string(text))
	return nil
}

// Score is the four-axis quality rating of a prompt.
type Score struct {
	Clarity     int `json:"clarity" yaml:"clarity"`
	Constraints int `json:"constraints" yaml:"constraints"`
	Continuity  int `json:"continuity" yaml:"continuity"`
	Risk        int `json:"risk" yaml:"risk"`
}

// Prompt is a unit of generative intent. Content is the last saved composed
// text and is never used to re-validate a prompt.
type Prompt struct {
	ID        string     `json:"id" yaml:"id"`
	ProjectID string     `json:"projectId,omitempty" yaml:"project_id,omitempty"`
	Type      PromptType `json:"type" yaml:"type"`
	Title     string     `json:"title" yaml:"title"`
	Content   string     `json:"content" yaml:"content,omitempty"`
	Params    Params     `json:"-" yaml:"-"`
	Caps      []string   `json:"caps" yaml:"caps,omitempty"`
	Score     *Score     `json:"score,omitempty" yaml:"score,omitempty"`
	Version   int        `json:"version" yaml:"version,omitempty"`
	Tags      []string   `json:"tags" yaml:"tags,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt" yaml:"updated_at,omitempty"`
}

// Video returns the video params, or empty ones when the prompt holds
// something else.
func (p *Prompt) Video() *VideoParams {
	if v, ok := p.Params.(*VideoParams); ok && v != nil {
		return v
	}
	return &VideoParams{}
}

// Image returns the image params, or empty ones.
func (p *Prompt) Image() *ImageParams {
	if v, ok := p.Params.(*ImageParams); ok && v != nil {
		return v
	}
	return &ImageParams{}
}

// Story returns the story params, or empty ones.
func (p *Prompt) Story() *StoryParams {
	if v, ok := p.Params.(*StoryParams); ok && v != nil {
		return v
	}
	return &StoryParams{}
}

// Workflow returns the workflow params, or empty ones.
func (p *Prompt) Workflow() *WorkflowParams {
	if v, ok := p.Params.(*WorkflowParams); ok && v != nil {
		return v
	}
	return &WorkflowParams{}
}

// CAP is a Continuity & Asset Profile: a reusable constraint bundle attached
// to prompts. Signature always holds at least one entry; the first one is the
// display name.
type CAP struct {
	ID        string   `json:"id" yaml:"id"`
	Scope     Scope    `json:"scope" yaml:"scope"`
	Signature []string `json:"signature" yaml:"signature"`
	Forbid    []string `json:"forbid" yaml:"forbid,omitempty"`
	Palette   []string `json:"palette,omitempty" yaml:"palette,omitempty"`
	Camera    []string `json:"camera,omitempty" yaml:"camera,omitempty"`
	UsageHint string   `json:"usageHint,omitempty" yaml:"usage_hint,omitempty"`
}

// DisplayName returns the canonical name of the CAP.
func (c CAP) DisplayName() string {
	if len(c.Signature) == 0 {
		return ""
	}
	return c.Signature[0]
}

// Project groups prompts.
type Project struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string  `json:"tags" yaml:"tags,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updated_at,omitempty"`
}

// Template is a reusable prompt scaffold with named inputs.
type Template struct {
	ID            string     `json:"id" yaml:"id"`
	Type          PromptType `json:"type" yaml:"type"`
	Title         string     `json:"title" yaml:"title"`
	Inputs        []string   `json:"inputs" yaml:"inputs,omitempty"`
	Content       string     `json:"content" yaml:"content"`
	BestPractices string     `json:"bestPractices,omitempty" yaml:"best_practices,omitempty"`
	Tags          []string   `json:"tags" yaml:"tags,omitempty"`
}
