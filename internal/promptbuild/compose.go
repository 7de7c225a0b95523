package promptbuild

import (
	"fmt"
	"strings"

	"github.com/kayz/promptstudio/internal/studio"
)

// Compose renders a prompt's params into its final text. The output is
// deterministic for a given prompt and never fails: blank video and image
// fields render as {{fieldName}} placeholders, absent story sections are
// left out. A nil prompt composes to "".
func Compose(p *studio.Prompt) string {
	if p == nil {
		return ""
	}

	var out strings.Builder
	if tokens := capTokens(p.Caps); tokens != "" {
		out.WriteString(tokens)
		out.WriteString("\n\n")
	}

	switch p.Type {
	case studio.TypeVideo:
		writeVideo(&out, p.Video())
	case studio.TypeImage:
		writeImage(&out, p.Image())
	case studio.TypeStory:
		writeStory(&out, p.Story())
	case studio.TypeWorkflow:
		writeWorkflow(&out, p.Workflow())
	default:
		// The CAP prefix is dropped here: unknown types fall back to the
		// stored text as-is.
		return strings.TrimSpace(p.Content)
	}

	return strings.TrimSpace(out.String())
}

func capTokens(caps []string) string {
	tokens := make([]string, 0, len(caps))
	for _, id := range caps {
		tokens = append(tokens, "[CAP:"+id+"]")
	}
	return strings.Join(tokens, " ")
}

func orPlaceholder(value, field string) string {
	if studio.Filled(value) {
		return value
	}
	return "{{" + field + "}}"
}

func writeVideo(out *strings.Builder, v *studio.VideoParams) {
	fmt.Fprintf(out, "A VEO video.\nGenre: %s. Location: %s. Time of Day: %s.",
		orPlaceholder(v.Genre, "genre"),
		orPlaceholder(v.Location, "location"),
		orPlaceholder(v.TimeOfDay, "timeOfDay"))
	writeLine(out, "Action", orPlaceholder(v.Action, "action"))
	writeLine(out, "Ambience", orPlaceholder(v.Ambience, "ambience"))
	writeLine(out, "Lighting", orPlaceholder(v.Lighting, "lighting"))
	writeObject(out, "Camera", v.Camera.Entries())
	writeLine(out, "Palette", orPlaceholder(v.Palette, "palette"))
	writeList(out, "Style Refs", v.StyleRefs)
	writeList(out, "Negative", v.Negative)
}

func writeImage(out *strings.Builder, v *studio.ImageParams) {
	fmt.Fprintf(out, "An image of %s.", orPlaceholder(v.Subject, "subject"))
	writeLine(out, "Pose", orPlaceholder(v.Pose, "pose"))
	writeLine(out, "Wardrobe", orPlaceholder(v.Wardrobe, "wardrobe"))
	writeLine(out, "Framing", orPlaceholder(v.Framing, "framing"))
	writeLine(out, "Composition", orPlaceholder(v.Composition, "composition"))
	writeLine(out, "Lighting", orPlaceholder(v.Lighting, "lighting"))
	writeLine(out, "Mood", orPlaceholder(v.Mood, "mood"))
	writeLine(out, "Camera Lens", orPlaceholder(v.Lens, "lens"))
	writeLine(out, "Depth of Field", orPlaceholder(v.Depth, "depth"))
	writeLine(out, "Post-processing Style", orPlaceholder(v.PostStyle, "postStyle"))
	writeLine(out, "Palette", orPlaceholder(v.Palette, "palette"))
	writeLine(out, "Grain", orPlaceholder(v.Grain, "grain"))
	writeList(out, "Negative", v.Negative)
}

func writeStory(out *strings.Builder, s *studio.StoryParams) {
	fmt.Fprintf(out, "Logline: %s\nTheme: %s",
		orPlaceholder(s.Logline, "logline"),
		orPlaceholder(s.Theme, "theme"))

	if s.Beats != nil {
		out.WriteString("\n\nBeats:")
		for _, b := range orderBeats(s.Beats) {
			fmt.Fprintf(out, "\n- %s: %s", studio.Capitalize(b.Key), b.Value)
		}
	}
	if s.SceneCard != nil {
		out.WriteString("\n\nScene Card:")
		for _, f := range s.SceneCard {
			fmt.Fprintf(out, "\n- %s: %s", f.Key, f.Value)
		}
	}
}

// orderBeats puts the canonical story beats first, in story order, followed
// by any other keys in the order they were written.
func orderBeats(beats studio.Fields) studio.Fields {
	ordered := make(studio.Fields, 0, len(beats))
	canonical := make(map[string]bool, len(studio.StoryBeats))
	for _, key := range studio.StoryBeats {
		canonical[key] = true
		if v, ok := beats.Get(key); ok {
			ordered = append(ordered, studio.Field{Key: key, Value: v})
		}
	}
	for _, b := range beats {
		if !canonical[b.Key] {
			ordered = append(ordered, b)
		}
	}
	return ordered
}

func writeWorkflow(out *strings.Builder, w *studio.WorkflowParams) {
	out.WriteString("Workflow Steps:")
	for i, step := range w.Steps {
		fmt.Fprintf(out, "\n%d. %s", i+1, step)
	}
}

func writeLine(out *strings.Builder, label, value string) {
	out.WriteString("\n")
	out.WriteString(label)
	out.WriteString(": ")
	out.WriteString(value)
}

func writeList(out *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	writeLine(out, label, strings.Join(items, ", "))
}

func writeObject(out *strings.Builder, label string, entries studio.Fields) {
	var parts []string
	for _, e := range entries {
		if studio.Filled(e.Value) {
			parts = append(parts, e.Key+": "+e.Value)
		}
	}
	if len(parts) == 0 {
		return
	}
	writeLine(out, label, "{ "+strings.Join(parts, ", ")+" }")
}
