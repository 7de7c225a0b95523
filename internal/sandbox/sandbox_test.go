package sandbox

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kayz/promptstudio/internal/studio"
)

func sceneCAPs() studio.CAPIndex {
	return studio.NewCAPIndex([]studio.CAP{
		{ID: "hero", Signature: []string{"Mara", "pilot"}, Forbid: []string{"Smoking"}},
		{ID: "city", Signature: []string{"Drowned City"}, Forbid: []string{"sunshine", "smoking", ""}},
		{ID: "style", Signature: []string{"Gouache"}},
	})
}

func workflowScene(id, title string, caps []string, steps ...string) *studio.Prompt {
	return &studio.Prompt{ID: id, Title: title, Type: studio.TypeWorkflow, Caps: caps, Params: &studio.WorkflowParams{Steps: steps}}
}

func TestValidateNeedsTwoScenes(t *testing.T) {
	caps := sceneCAPs()
	one := []*studio.Prompt{workflowScene("a", "A", []string{"hero", "hero"}, "smoking")}
	if got := Validate(one, caps); len(got) != 0 {
		t.Fatalf("expected no issues for one scene, got %v", got)
	}
	if got := Validate(nil, caps); len(got) != 0 {
		t.Fatalf("expected no issues for no scenes, got %v", got)
	}
}

func TestValidateDuplicateCAP(t *testing.T) {
	scenes := []*studio.Prompt{
		workflowScene("a", "Opening", []string{"style", "missing"}),
		workflowScene("b", "Chase", []string{"style"}),
	}
	got := Validate(scenes, sceneCAPs())
	want := []Issue{{Type: DuplicateCAP, Message: `CAP "Gouache" is used in 2 scenes.`}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateDuplicateCAPOrderAndCount(t *testing.T) {
	scenes := []*studio.Prompt{
		workflowScene("a", "A", []string{"style", "hero"}),
		workflowScene("b", "B", []string{"hero", "style"}),
		workflowScene("c", "C", []string{"hero"}),
	}
	var got []string
	for _, issue := range Validate(scenes, sceneCAPs()) {
		if issue.Type == DuplicateCAP {
			got = append(got, issue.Message)
		}
	}
	want := []string{`CAP "Gouache" is used in 2 scenes.`, `CAP "Mara" is used in 3 scenes.`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("duplicate order mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateForbidCollisionAcrossScenes(t *testing.T) {
	scenes := []*studio.Prompt{
		workflowScene("a", "Rooftops", nil, "Mara is SMOKING on the ledge"),
		workflowScene("b", "Harbor", []string{"city"}, "boats in fog"),
	}
	got := Validate(scenes, sceneCAPs())
	want := []Issue{{Type: ForbidCollision, Message: `Scene 1 ("Rooftops") contains forbidden term: "smoking".`}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateCaseVariantsAreDistinctTerms(t *testing.T) {
	scenes := []*studio.Prompt{
		workflowScene("a", "One", []string{"hero"}, "no smoking here"),
		workflowScene("b", "Two", []string{"city"}),
	}
	got := Validate(scenes, sceneCAPs())
	want := []Issue{
		{Type: ForbidCollision, Message: `Scene 1 ("One") contains forbidden term: "Smoking".`},
		{Type: ForbidCollision, Message: `Scene 1 ("One") contains forbidden term: "smoking".`},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestMove(t *testing.T) {
	a, b, c := workflowScene("a", "A", nil), workflowScene("b", "B", nil), workflowScene("c", "C", nil)
	scenes := []*studio.Prompt{a, b, c}

	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{name: "forward", from: 0, to: 2, want: []string{"b", "c", "a"}},
		{name: "backward", from: 2, to: 0, want: []string{"c", "a", "b"}},
		{name: "same", from: 1, to: 1, want: []string{"a", "b", "c"}},
		{name: "out of range", from: 5, to: 0, want: []string{"a", "b", "c"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Move(scenes, tc.from, tc.to)
			if diff := cmp.Diff(tc.want, ids(got)); diff != "" {
				t.Fatalf("order mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"a", "b", "c"}, ids(scenes)); diff != "" {
				t.Fatalf("input was modified:\n%s", diff)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	scenes := []*studio.Prompt{workflowScene("a", "A", nil), workflowScene("b", "B", nil)}
	if diff := cmp.Diff([]string{"b"}, ids(Remove(scenes, 0))); diff != "" {
		t.Fatalf("remove mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, ids(Remove(scenes, 9))); diff != "" {
		t.Fatalf("out of range remove changed order:\n%s", diff)
	}
}

func TestExportMarkdown(t *testing.T) {
	scenes := []*studio.Prompt{
		workflowScene("a", "Opening", []string{"hero", "ghost"}, "wake up"),
		workflowScene("b", "Close", nil),
	}
	got := ExportMarkdown(scenes, sceneCAPs())
	want := "# Story Outline\n\n" +
		"## Scene 1: Opening\n\n" +
		"**Applied CAPs:** Mara, Unknown\n\n" +
		"```\n[CAP:hero] [CAP:ghost]\n\nWorkflow Steps:\n1. wake up\n```\n\n---\n\n" +
		"## Scene 2: Close\n\n" +
		"**Applied CAPs:** None\n\n" +
		"```\nWorkflow Steps:\n```\n\n---\n\n"
	if got != want {
		t.Fatalf("unexpected markdown:\n%s", got)
	}
	if !strings.HasPrefix(ExportMarkdown(nil, nil), "# Story Outline") {
		t.Fatalf("expected header for empty export")
	}
}

func ids(scenes []*studio.Prompt) []string {
	out := make([]string, 0, len(scenes))
	for _, s := range scenes {
		out = append(out, s.ID)
	}
	return out
}
