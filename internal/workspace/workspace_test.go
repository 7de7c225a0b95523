package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kayz/promptstudio/internal/studio"
)

const sampleYAML = `
caps:
  - id: hero
    scope: character
    signature: [Mara, pilot]
    forbid: [smoking]
  - id: city
    scope: env
    signature: [Drowned City]
prompts:
  - id: s1
    type: veo3
    title: Rooftops
    caps: [hero, city]
    params:
      genre: noir
      camera:
        lens: 35mm
  - id: s2
    type: workflow
    title: Cleanup
    params:
      steps: [grade, export]
scenes: [s2, s1, s2]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	ws, err := Load(writeFile(t, "ws.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("load workspace: %v", err)
	}

	c, ok := ws.LookupCAP("city")
	if !ok || c.Scope != studio.ScopeEnvironment {
		t.Fatalf("unexpected city cap: %+v ok=%v", c, ok)
	}
	if _, ok := ws.LookupCAP("ghost"); ok {
		t.Fatalf("unexpected lookup hit")
	}

	p, ok := ws.Prompt("s1")
	if !ok || p.Type != studio.TypeVideo || p.Video().Camera.Lens != "35mm" {
		t.Fatalf("unexpected prompt s1: %+v", p)
	}

	var order []string
	for _, s := range ws.SceneList() {
		order = append(order, s.ID)
	}
	if diff := cmp.Diff([]string{"s2", "s1", "s2"}, order); diff != "" {
		t.Fatalf("scene order mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadJSONByExtension(t *testing.T) {
	doc := `{"caps":[{"id":"c","scope":"style","signature":["Gouache"]}],
	"prompts":[{"id":"p","type":"image","title":"Portrait","params":{"subject":"a fox"}}]}`
	ws, err := Load(writeFile(t, "ws.json", doc))
	if err != nil {
		t.Fatalf("load workspace: %v", err)
	}
	scenes := ws.SceneList()
	if len(scenes) != 1 || scenes[0].Image().Subject != "a fox" {
		t.Fatalf("unexpected scenes: %+v", scenes)
	}
}

func TestLoadRejectsInvalidWorkspaces(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "cap without id",
			doc:     "caps:\n  - signature: [x]\n",
			wantErr: "cap id is required",
		},
		{
			name:    "duplicate cap",
			doc:     "caps:\n  - {id: a, signature: [x]}\n  - {id: a, signature: [y]}\n",
			wantErr: "duplicate cap id: a",
		},
		{
			name:    "empty signature",
			doc:     "caps:\n  - {id: a, signature: []}\n",
			wantErr: "cap a signature is required",
		},
		{
			name:    "duplicate prompt",
			doc:     "prompts:\n  - {id: p, type: story}\n  - {id: p, type: image}\n",
			wantErr: "duplicate prompt id: p",
		},
		{
			name:    "unknown scene",
			doc:     "prompts:\n  - {id: p, type: story}\nscenes: [p, q]\n",
			wantErr: "scene 2 references unknown prompt: q",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "ws.yaml", tc.doc))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
