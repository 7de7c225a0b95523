// Package workspace loads CAPs, prompts and a scene order from a single YAML
// or JSON file so the engine can run without a database.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kayz/promptstudio/internal/studio"
)

// Workspace is the content of a workspace file.
type Workspace struct {
	CAPs    []studio.CAP     `json:"caps" yaml:"caps"`
	Prompts []*studio.Prompt `json:"prompts" yaml:"prompts"`
	// Scenes lists prompt ids in sandbox order. Ids may repeat.
	Scenes []string `json:"scenes,omitempty" yaml:"scenes,omitempty"`

	caps    studio.CAPIndex
	prompts map[string]*studio.Prompt
}

// Load reads and validates the workspace file at path. Files ending in .json
// are parsed as JSON, everything else as YAML.
func Load(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspace file %s: %w", path, err)
	}
	ws, err := Parse(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("workspace file %s: %w", path, err)
	}
	return ws, nil
}

// Parse decodes and validates workspace data.
func Parse(data []byte, isJSON bool) (*Workspace, error) {
	var ws Workspace
	if isJSON {
		if err := json.Unmarshal(data, &ws); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &ws); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}
	if err := validate(&ws); err != nil {
		return nil, fmt.Errorf("invalid: %w", err)
	}
	ws.index()
	return &ws, nil
}

func validate(ws *Workspace) error {
	capIDs := make(map[string]struct{}, len(ws.CAPs))
	for _, c := range ws.CAPs {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return fmt.Errorf("cap id is required")
		}
		if _, exists := capIDs[id]; exists {
			return fmt.Errorf("duplicate cap id: %s", id)
		}
		capIDs[id] = struct{}{}
		if len(c.Signature) == 0 || !studio.Filled(c.Signature[0]) {
			return fmt.Errorf("cap %s signature is required", id)
		}
	}

	promptIDs := make(map[string]struct{}, len(ws.Prompts))
	for i, p := range ws.Prompts {
		if p == nil {
			return fmt.Errorf("prompt %d is empty", i+1)
		}
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return fmt.Errorf("prompt %d id is required", i+1)
		}
		if _, exists := promptIDs[id]; exists {
			return fmt.Errorf("duplicate prompt id: %s", id)
		}
		promptIDs[id] = struct{}{}
	}

	for i, id := range ws.Scenes {
		if _, ok := promptIDs[id]; !ok {
			return fmt.Errorf("scene %d references unknown prompt: %s", i+1, id)
		}
	}
	return nil
}

func (ws *Workspace) index() {
	ws.caps = studio.NewCAPIndex(ws.CAPs)
	ws.prompts = make(map[string]*studio.Prompt, len(ws.Prompts))
	for _, p := range ws.Prompts {
		ws.prompts[p.ID] = p
	}
}

// LookupCAP implements studio.CAPLookup.
func (ws *Workspace) LookupCAP(id string) (studio.CAP, bool) {
	return ws.caps.LookupCAP(id)
}

// Prompt returns the prompt with the given id.
func (ws *Workspace) Prompt(id string) (*studio.Prompt, bool) {
	p, ok := ws.prompts[id]
	return p, ok
}

// SceneList returns the prompts in scene order. Without an explicit scene
// list every prompt is a scene, in file order.
func (ws *Workspace) SceneList() []*studio.Prompt {
	if len(ws.Scenes) == 0 {
		return append([]*studio.Prompt(nil), ws.Prompts...)
	}
	scenes := make([]*studio.Prompt, 0, len(ws.Scenes))
	for _, id := range ws.Scenes {
		scenes = append(scenes, ws.prompts[id])
	}
	return scenes
}
