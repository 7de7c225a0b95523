package promptbuild

import (
	"strings"
	"testing"

	"github.com/kayz/promptstudio/internal/studio"
)

func TestComposeNilPrompt(t *testing.T) {
	if got := Compose(nil); got != "" {
		t.Fatalf("expected empty text for nil prompt, got %q", got)
	}
}

func TestComposeVideoPlaceholders(t *testing.T) {
	p := &studio.Prompt{ID: "v", Type: studio.TypeVideo, Caps: []string{}}
	got := Compose(p)

	for _, want := range []string{"{{genre}}", "{{location}}", "{{timeOfDay}}", "{{action}}", "{{ambience}}", "{{lighting}}", "{{palette}}"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %s in composed text:\n%s", want, got)
		}
	}
	if strings.Contains(got, "[CAP:") {
		t.Fatalf("unexpected CAP token in:\n%s", got)
	}
	if strings.Contains(got, "Camera") || strings.Contains(got, "Negative") || strings.Contains(got, "Style Refs") {
		t.Fatalf("empty optional sections should be omitted:\n%s", got)
	}
}

func TestComposeVideoFull(t *testing.T) {
	p := &studio.Prompt{
		Type: studio.TypeVideo,
		Caps: []string{"c1", "c2"},
		Params: &studio.VideoParams{
			Genre:     "noir",
			Location:  "harbor",
			TimeOfDay: "dusk",
			Action:    "she lights a match",
			Ambience:  "foghorns",
			Lighting:  "sodium vapor",
			Camera:    &studio.CameraSettings{Lens: "35mm", Movement: " ", Duration: "8s"},
			Palette:   "teal",
			StyleRefs: []string{"Melville", "Mann"},
			Negative:  []string{"text", "logos"},
		},
	}
	want := strings.Join([]string{
		"[CAP:c1] [CAP:c2]",
		"",
		"A VEO video.",
		"Genre: noir. Location: harbor. Time of Day: dusk.",
		"Action: she lights a match",
		"Ambience: foghorns",
		"Lighting: sodium vapor",
		"Camera: { lens: 35mm, duration: 8s }",
		"Palette: teal",
		"Style Refs: Melville, Mann",
		"Negative: text, logos",
	}, "\n")
	if got := Compose(p); got != want {
		t.Fatalf("unexpected composition:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestComposeCAPPrefixFollowedByBlankLine(t *testing.T) {
	p := &studio.Prompt{Type: studio.TypeVideo, Caps: []string{"c1"}}
	if got := Compose(p); !strings.HasPrefix(got, "[CAP:c1]\n\n") {
		t.Fatalf("expected CAP prefix and blank line, got:\n%s", got)
	}
}

func TestComposeCameraWithoutValuesIsOmitted(t *testing.T) {
	p := &studio.Prompt{Type: studio.TypeVideo, Params: &studio.VideoParams{Camera: &studio.CameraSettings{}}}
	if got := Compose(p); strings.Contains(got, "Camera") {
		t.Fatalf("expected camera line omitted:\n%s", got)
	}
}

func TestComposeImage(t *testing.T) {
	p := &studio.Prompt{
		Type: studio.TypeImage,
		Params: &studio.ImageParams{
			Subject:  "an old sailor",
			Lighting: "rembrandt",
			Negative: []string{"blur"},
		},
	}
	got := Compose(p)
	lines := strings.Split(got, "\n")
	if lines[0] != "An image of an old sailor." {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	for _, want := range []string{"Pose: {{pose}}", "Lighting: rembrandt", "Camera Lens: {{lens}}", "Depth of Field: {{depth}}", "Post-processing Style: {{postStyle}}", "Grain: {{grain}}"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if lines[len(lines)-1] != "Negative: blur" {
		t.Fatalf("expected negative line last, got %q", lines[len(lines)-1])
	}
}

func TestComposeStory(t *testing.T) {
	p := &studio.Prompt{
		Type: studio.TypeStory,
		Params: &studio.StoryParams{
			Logline: "A courier crosses a flooded city",
			Beats: studio.Fields{
				{Key: "climax", Value: "the bridge gives way"},
				{Key: "epilogue", Value: "years later"},
				{Key: "opening", Value: "rain on tin roofs"},
			},
			SceneCard: studio.Fields{
				{Key: "location", Value: "rooftops"},
				{Key: "intExt", Value: "EXT"},
			},
		},
	}
	want := strings.Join([]string{
		"Logline: A courier crosses a flooded city",
		"Theme: {{theme}}",
		"",
		"Beats:",
		"- Opening: rain on tin roofs",
		"- Climax: the bridge gives way",
		"- Epilogue: years later",
		"",
		"Scene Card:",
		"- location: rooftops",
		"- intExt: EXT",
	}, "\n")
	if got := Compose(p); got != want {
		t.Fatalf("unexpected composition:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestComposeStoryOmitsAbsentSections(t *testing.T) {
	p := &studio.Prompt{Type: studio.TypeStory, Params: &studio.StoryParams{Logline: "x", Theme: "y"}}
	if got := Compose(p); got != "Logline: x\nTheme: y" {
		t.Fatalf("unexpected composition %q", got)
	}

	p.Params = &studio.StoryParams{Beats: studio.Fields{}}
	if got := Compose(p); !strings.HasSuffix(got, "Beats:") {
		t.Fatalf("present but empty beats should keep the header, got %q", got)
	}
}

func TestComposeWorkflow(t *testing.T) {
	tests := []struct {
		name  string
		steps []string
		want  string
	}{
		{name: "no steps", want: "Workflow Steps:"},
		{name: "two steps", steps: []string{"A", "B"}, want: "Workflow Steps:\n1. A\n2. B"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &studio.Prompt{Type: studio.TypeWorkflow, Params: &studio.WorkflowParams{Steps: tc.steps}}
			if got := Compose(p); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

// Unknown types return the stored content only; the CAP prefix is not kept.
func TestComposeUnknownTypeFallsBackToContent(t *testing.T) {
	p := &studio.Prompt{
		Type:    studio.PromptType("audio"),
		Caps:    []string{"c1"},
		Content: "  raw stored text \n",
	}
	if got := Compose(p); got != "raw stored text" {
		t.Fatalf("got %q", got)
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	p := &studio.Prompt{
		Type:   studio.TypeStory,
		Caps:   []string{"a"},
		Params: &studio.StoryParams{Beats: studio.Fields{{Key: "resolution", Value: "home"}, {Key: "opening", Value: "away"}}},
	}
	first := Compose(p)
	for i := 0; i < 5; i++ {
		if got := Compose(p); got != first {
			t.Fatalf("composition changed between calls:\n%s\nvs\n%s", first, got)
		}
	}
}
