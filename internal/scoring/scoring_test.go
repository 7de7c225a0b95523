package scoring

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kayz/promptstudio/internal/continuity"
	"github.com/kayz/promptstudio/internal/studio"
)

var caps = studio.NewCAPIndex([]studio.CAP{
	{ID: "hero", Signature: []string{"Mara"}, Forbid: []string{"rain"}},
	{ID: "style", Signature: []string{"Gouache"}},
})

func TestScoreVideo(t *testing.T) {
	p := &studio.Prompt{
		Type: studio.TypeVideo,
		Caps: []string{"style"},
		Params: &studio.VideoParams{
			Genre:    "western",
			Action:   "a rider crests the hill",
			Lighting: "golden hour",
			Negative: []string{},
			Camera:   &studio.CameraSettings{Movement: "dolly"},
		},
	}
	want := studio.Score{Clarity: 7, Constraints: 3, Continuity: 10, Risk: 2}
	if diff := cmp.Diff(want, Score(p, caps)); diff != "" {
		t.Fatalf("score mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreBlankNegativeListIsNotAConstraint(t *testing.T) {
	video := func(negative []string) *studio.Prompt {
		return &studio.Prompt{
			Type:   studio.TypeVideo,
			Caps:   []string{"style"},
			Params: &studio.VideoParams{Lighting: "golden hour", Negative: negative},
		}
	}
	empty := Score(video(nil), caps).Constraints
	if got := Score(video([]string{"", "  "}), caps).Constraints; got != empty {
		t.Fatalf("blank negatives scored %d constraints, want %d", got, empty)
	}
	if got := Score(video([]string{"", "blur"}), caps).Constraints; got <= empty {
		t.Fatalf("filled negative scored %d constraints, want more than %d", got, empty)
	}

	image := &studio.Prompt{Type: studio.TypeImage, Params: &studio.ImageParams{Negative: []string{""}}}
	if got := Score(image, caps).Constraints; got != 1 {
		t.Fatalf("image constraints = %d, want 1", got)
	}
}

func TestScoreImageFloorsAtOne(t *testing.T) {
	got := Score(&studio.Prompt{Type: studio.TypeImage}, caps)
	// missing_cap and no_lighting
	want := studio.Score{Clarity: 1, Constraints: 1, Continuity: 3, Risk: Risk}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("score mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreForbidViolationPinsContinuity(t *testing.T) {
	p := &studio.Prompt{
		Type:   studio.TypeVideo,
		Caps:   []string{"hero"},
		Params: &studio.VideoParams{Action: "RAIN on the glass"},
	}
	if got := Score(p, caps).Continuity; got != 1 {
		t.Fatalf("continuity = %d, want 1", got)
	}
}

func TestScoreStory(t *testing.T) {
	tests := []struct {
		name   string
		params *studio.StoryParams
		want   studio.Score
	}{
		{
			name:   "empty",
			params: &studio.StoryParams{},
			want:   studio.Score{Clarity: 1, Constraints: 4, Continuity: 10, Risk: 2},
		},
		{
			name:   "logline and blank beats",
			params: &studio.StoryParams{Logline: "x", Beats: studio.Fields{{Key: "opening", Value: " "}}},
			want:   studio.Score{Clarity: 5, Constraints: 4, Continuity: 10, Risk: 2},
		},
		{
			name:   "full",
			params: &studio.StoryParams{Logline: "x", Theme: "y", Beats: studio.Fields{{Key: "climax", Value: "boom"}}},
			want:   studio.Score{Clarity: 10, Constraints: 8, Continuity: 10, Risk: 2},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(&studio.Prompt{Type: studio.TypeStory, Params: tc.params}, caps)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("score mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScoreWorkflow(t *testing.T) {
	short := &studio.Prompt{Type: studio.TypeWorkflow, Params: &studio.WorkflowParams{Steps: []string{"a", "b"}}}
	long := &studio.Prompt{Type: studio.TypeWorkflow, Params: &studio.WorkflowParams{Steps: []string{"a", "b", "c"}}}
	want := studio.Score{Clarity: 5, Constraints: 7, Continuity: 10, Risk: 2}
	if diff := cmp.Diff(want, Score(short, caps)); diff != "" {
		t.Fatalf("short workflow mismatch (-want +got):\n%s", diff)
	}
	if got := Score(long, caps).Clarity; got != 9 {
		t.Fatalf("long workflow clarity = %d, want 9", got)
	}
}

func TestScoreUnknownTypeReturnsStoredScore(t *testing.T) {
	stored := &studio.Score{Clarity: 4, Constraints: 6, Continuity: 8, Risk: 9}
	p := &studio.Prompt{Type: "audio", Score: stored}
	if got := Score(p, caps); got != *stored {
		t.Fatalf("score = %+v, want stored %+v", got, *stored)
	}

	p.Score = nil
	if got := Score(p, caps); got != (studio.Score{}) {
		t.Fatalf("expected zero score without a stored one, got %+v", got)
	}
	if got := Score(nil, caps); got != (studio.Score{}) {
		t.Fatalf("expected zero score for nil prompt, got %+v", got)
	}
}

func TestScoreIgnoresStoredScoreForKnownTypes(t *testing.T) {
	p := &studio.Prompt{
		Type:   studio.TypeWorkflow,
		Score:  &studio.Score{Clarity: 1, Constraints: 1, Continuity: 1, Risk: 1},
		Params: &studio.WorkflowParams{Steps: []string{"a", "b", "c"}},
	}
	want := studio.Score{Clarity: 9, Constraints: 7, Continuity: 10, Risk: 2}
	if diff := cmp.Diff(want, Score(p, caps)); diff != "" {
		t.Fatalf("score mismatch (-want +got):\n%s", diff)
	}
}

func TestContinuity(t *testing.T) {
	tests := []struct {
		name   string
		issues []continuity.Issue
		want   int
	}{
		{name: "clean", want: 10},
		{name: "missing cap", issues: []continuity.Issue{{Kind: continuity.MissingCAP}}, want: 5},
		{name: "all deductions", issues: []continuity.Issue{{Kind: continuity.MissingCAP}, {Kind: continuity.NoCamera}, {Kind: continuity.NoLighting}}, want: 1},
		{name: "forbid dominates", issues: []continuity.Issue{{Kind: continuity.NoCamera}, {Kind: continuity.ForbidViolation, Term: "x"}}, want: 1},
		{name: "camera and lighting", issues: []continuity.Issue{{Kind: continuity.NoCamera}, {Kind: continuity.NoLighting}}, want: 6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Continuity(tc.issues); got != tc.want {
				t.Fatalf("Continuity = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScoreAllMatchesSequentialScoring(t *testing.T) {
	var prompts []*studio.Prompt
	for i := 0; i < 40; i++ {
		steps := make([]string, i%5)
		for j := range steps {
			steps[j] = fmt.Sprintf("step %d", j)
		}
		prompts = append(prompts, &studio.Prompt{Type: studio.TypeWorkflow, Params: &studio.WorkflowParams{Steps: steps}})
	}
	prompts = append(prompts, &studio.Prompt{Type: studio.TypeVideo, Caps: []string{"hero"}, Params: &studio.VideoParams{Genre: "rain"}})

	got, err := ScoreAll(context.Background(), prompts, caps, 4)
	if err != nil {
		t.Fatalf("ScoreAll: %v", err)
	}
	if len(got) != len(prompts) {
		t.Fatalf("got %d scores for %d prompts", len(got), len(prompts))
	}
	for i, p := range prompts {
		if want := Score(p, caps); got[i] != want {
			t.Errorf("prompt %d: score = %+v, want %+v", i, got[i], want)
		}
	}
}

func TestScoreAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ScoreAll(ctx, []*studio.Prompt{{Type: studio.TypeStory}}, caps, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
