package exchange

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kayz/promptstudio/internal/studio"
)

func sampleBundle() *Bundle {
	return &Bundle{
		Projects: []studio.Project{{ID: "proj-1", Name: "Cyberpunk Saga", Tags: []string{"sci-fi"}}},
		Prompts: []*studio.Prompt{
			{
				ID:        "p-1",
				ProjectID: "proj-1",
				Type:      studio.TypeWorkflow,
				Title:     "Pipeline",
				Caps:      []string{"cap-hero", "cap-elsewhere"},
				Tags:      []string{"ops", "daily"},
				Params:    &studio.WorkflowParams{Steps: []string{"render"}},
				Content:   "stale",
			},
			{ID: "p-2", ProjectID: "proj-9", Type: studio.TypeStory, Title: "Orphan"},
		},
		CAPs:      []studio.CAP{{ID: "cap-hero", Scope: studio.ScopeCharacter, Signature: []string{"brave"}}},
		Templates: []studio.Template{{ID: "t-1", Type: studio.TypeImage, Title: "Product Showcase"}},
	}
}

func TestEncodeDecodeBundle(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, sampleBundle()); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"projects\": [") {
		t.Fatalf("expected indented output, got:\n%s", buf.String())
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Prompts) != 2 {
		t.Fatalf("expected 2 prompts, got %d", len(got.Prompts))
	}
	if diff := cmp.Diff([]string{"render"}, got.Prompts[0].Workflow().Steps); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
	if name := got.CAPs[0].DisplayName(); name != "brave" {
		t.Fatalf("cap display name = %q", name)
	}
}

func TestEncodeEmptyBundleDecodes(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, &Bundle{}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(&buf); err != nil {
		t.Fatalf("decode empty bundle: %v", err)
	}
}

func TestDecodeRejectsMissingCollections(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"projects":[],"prompts":[],"caps":[]}`))
	if !errors.Is(err, ErrInvalidBundle) {
		t.Fatalf("expected ErrInvalidBundle, got %v", err)
	}

	if _, err := Decode(strings.NewReader(`not json`)); err == nil {
		t.Fatalf("expected error for malformed input")
	}
}

func TestMarkdownGroupsByProjectAndRecomposes(t *testing.T) {
	md := Markdown(sampleBundle())
	want := "# Prompt Studio Export\n\n" +
		"## Project: Cyberpunk Saga\n\n" +
		"### Prompt: Pipeline\n" +
		"**Type:** workflow\n" +
		"**Tags:** ops, daily\n\n" +
		"```\n[CAP:cap-hero] [CAP:cap-elsewhere]\n\nWorkflow Steps:\n1. render\n```\n\n"
	if diff := cmp.Diff(want, md); diff != "" {
		t.Fatalf("markdown mismatch (-want +got):\n%s", diff)
	}
}

func TestPreviewReportsCollisions(t *testing.T) {
	current := sampleBundle()
	incoming := sampleBundle()
	incoming.Prompts = incoming.Prompts[:1]
	incoming.Templates = append(incoming.Templates, studio.Template{ID: "t-2", Title: "New"})

	p := NewPreview(current, incoming)
	if diff := cmp.Diff(Counts{Projects: 1, Prompts: 1, CAPs: 1, Templates: 2}, p.Counts); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
	want := map[string][]string{
		"projects":  {"Cyberpunk Saga"},
		"prompts":   {"Pipeline"},
		"caps":      {"brave"},
		"templates": {"Product Showcase"},
	}
	for kind, names := range want {
		if diff := cmp.Diff(names, p.Collisions[kind]); diff != "" {
			t.Errorf("%s collisions mismatch (-want +got):\n%s", kind, diff)
		}
	}
	if !p.HasCollisions() {
		t.Fatalf("expected collisions")
	}

	if NewPreview(&Bundle{}, incoming).HasCollisions() {
		t.Fatalf("expected no collisions against an empty library")
	}
}

func TestRemapKeepsPrefixesAndReferences(t *testing.T) {
	in := sampleBundle()
	out := Remap(in)

	if len(out.Projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(out.Projects))
	}
	newProject := out.Projects[0].ID
	if !strings.HasPrefix(newProject, "proj-") || newProject == "proj-1" {
		t.Fatalf("project id not remapped: %q", newProject)
	}

	newCAP := out.CAPs[0].ID
	if !strings.HasPrefix(newCAP, "cap-") {
		t.Fatalf("cap id lost its prefix: %q", newCAP)
	}
	if !strings.HasPrefix(out.Templates[0].ID, "t-") {
		t.Fatalf("template id lost its prefix: %q", out.Templates[0].ID)
	}

	first := out.Prompts[0]
	if !strings.HasPrefix(first.ID, "p-") {
		t.Fatalf("prompt id lost its prefix: %q", first.ID)
	}
	if first.ProjectID != newProject {
		t.Fatalf("project reference = %q, want %q", first.ProjectID, newProject)
	}
	if diff := cmp.Diff([]string{newCAP, "cap-elsewhere"}, first.Caps); diff != "" {
		t.Fatalf("cap references mismatch (-want +got):\n%s", diff)
	}
	if got := out.Prompts[1].ProjectID; got != "proj-9" {
		t.Fatalf("dangling project reference rewritten to %q", got)
	}

	// The input is untouched.
	if in.Prompts[0].ID != "p-1" {
		t.Fatalf("input prompt id changed to %q", in.Prompts[0].ID)
	}
	if diff := cmp.Diff([]string{"cap-hero", "cap-elsewhere"}, in.Prompts[0].Caps); diff != "" {
		t.Fatalf("input caps changed (-want +got):\n%s", diff)
	}

	if NewPreview(in, out).HasCollisions() {
		t.Fatalf("remapped bundle still collides")
	}
}

func TestIDPrefix(t *testing.T) {
	for id, want := range map[string]string{
		"cap-char-hero": "cap",
		"-odd":          "imported",
		"plain":         "plain",
	} {
		if got := idPrefix(id); got != want {
			t.Errorf("idPrefix(%q) = %q, want %q", id, got, want)
		}
	}
}
