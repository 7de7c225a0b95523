package studio

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Params is the type-specific parameter record of a prompt. The concrete
// value always matches the prompt type: *VideoParams, *ImageParams,
// *StoryParams or *WorkflowParams.
type Params interface {
	promptType() PromptType
}

// CameraSettings describes the camera of a video prompt.
type CameraSettings struct {
	Lens     string `json:"lens,omitempty" yaml:"lens,omitempty"`
	Movement string `json:"movement,omitempty" yaml:"movement,omitempty"`
	Framing  string `json:"framing,omitempty" yaml:"framing,omitempty"`
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Entries returns the camera settings as ordered key/value pairs.
func (c *CameraSettings) Entries() Fields {
	if c == nil {
		return nil
	}
	return Fields{
		{Key: "lens", Value: c.Lens},
		{Key: "movement", Value: c.Movement},
		{Key: "framing", Value: c.Framing},
		{Key: "duration", Value: c.Duration},
	}
}

type VideoParams struct {
	Genre     string          `json:"genre,omitempty" yaml:"genre,omitempty"`
	Location  string          `json:"location,omitempty" yaml:"location,omitempty"`
	TimeOfDay string          `json:"timeOfDay,omitempty" yaml:"timeOfDay,omitempty"`
	Action    string          `json:"action,omitempty" yaml:"action,omitempty"`
	Ambience  string          `json:"ambience,omitempty" yaml:"ambience,omitempty"`
	Lighting  string          `json:"lighting,omitempty" yaml:"lighting,omitempty"`
	Camera    *CameraSettings `json:"camera,omitempty" yaml:"camera,omitempty"`
	Palette   string          `json:"palette,omitempty" yaml:"palette,omitempty"`
	StyleRefs []string        `json:"styleRefs,omitempty" yaml:"styleRefs,omitempty"`
	Negative  []string        `json:"negative,omitempty" yaml:"negative,omitempty"`
}

type ImageParams struct {
	Subject     string   `json:"subject,omitempty" yaml:"subject,omitempty"`
	Pose        string   `json:"pose,omitempty" yaml:"pose,omitempty"`
	Wardrobe    string   `json:"wardrobe,omitempty" yaml:"wardrobe,omitempty"`
	Framing     string   `json:"framing,omitempty" yaml:"framing,omitempty"`
	Composition string   `json:"composition,omitempty" yaml:"composition,omitempty"`
	Lighting    string   `json:"lighting,omitempty" yaml:"lighting,omitempty"`
	Mood        string   `json:"mood,omitempty" yaml:"mood,omitempty"`
	Lens        string   `json:"lens,omitempty" yaml:"lens,omitempty"`
	Depth       string   `json:"depth,omitempty" yaml:"depth,omitempty"`
	PostStyle   string   `json:"postStyle,omitempty" yaml:"postStyle,omitempty"`
	Palette     string   `json:"palette,omitempty" yaml:"palette,omitempty"`
	Grain       string   `json:"grain,omitempty" yaml:"grain,omitempty"`
	Negative    []string `json:"negative,omitempty" yaml:"negative,omitempty"`
}

// StoryParams holds a story outline. Beats and SceneCard keep the order in
// which their keys were written.
type StoryParams struct {
	Logline   string `json:"logline,omitempty" yaml:"logline,omitempty"`
	Theme     string `json:"theme,omitempty" yaml:"theme,omitempty"`
	Beats     Fields `json:"beats" yaml:"beats"`
	SceneCard Fields `json:"sceneCard" yaml:"sceneCard"`
}

type WorkflowParams struct {
	Steps []string `json:"steps,omitempty" yaml:"steps,omitempty"`
}

func (*VideoParams) promptType() PromptType    { return TypeVideo }
func (*ImageParams) promptType() PromptType    { return TypeImage }
func (*StoryParams) promptType() PromptType    { return TypeStory }
func (*WorkflowParams) promptType() PromptType { return TypeWorkflow }

// StoryBeats lists the canonical beat keys in story order.
var StoryBeats = []string{"opening", "inciting incident", "rising action", "climax", "falling action", "resolution"}

// NewParams returns empty params for t, or nil when t is not a known type.
func NewParams(t PromptType) Params {
	switch t {
	case TypeVideo:
		return &VideoParams{}
	case TypeImage:
		return &ImageParams{}
	case TypeStory:
		return &StoryParams{}
	case TypeWorkflow:
		return &WorkflowParams{}
	default:
		return nil
	}
}

// UnmarshalParams decodes a JSON params object for the given prompt type.
// Unknown types yield nil params.
func UnmarshalParams(t PromptType, raw []byte) (Params, error) {
	p := NewParams(t)
	if p == nil {
		return nil, nil
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return p, nil
	}
	text, err := scalarsAsText(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s params: %w", t, err)
	}
	if err := json.Unmarshal(text, p); err != nil {
		return nil, fmt.Errorf("decode %s params: %w", t, err)
	}
	return p, nil
}

// scalarsAsText rewrites numbers and booleans as JSON strings holding their
// literal text, so "duration": 8 reads as "8". Object key order is kept.
func scalarsAsText(raw json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return raw, nil
	}
	switch raw[0] {
	case '"', 'n':
		return raw, nil
	case '{', '[':
	default:
		return json.Marshal(string(raw))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	object := raw[0] == '{'
	var buf bytes.Buffer
	buf.WriteByte(raw[0])
	for i := 0; dec.More(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if object {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, err := json.Marshal(tok)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
		}
		var elem json.RawMessage
		if err := dec.Decode(&elem); err != nil {
			return nil, err
		}
		text, err := scalarsAsText(elem)
		if err != nil {
			return nil, err
		}
		buf.Write(text)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if object {
		buf.WriteByte('}')
	} else {
		buf.WriteByte(']')
	}
	return buf.Bytes(), nil
}

// MarshalParams encodes params as JSON; nil params encode as "{}".
func MarshalParams(p Params) ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func decodeParamsYAML(t PromptType, node *yaml.Node) (Params, error) {
	p := NewParams(t)
	if p == nil || node == nil || node.Kind == 0 {
		return p, nil
	}
	if err := node.Decode(p); err != nil {
		return nil, fmt.Errorf("decode %s params: %w", t, err)
	}
	return p, nil
}

type promptAlias Prompt

// MarshalJSON implements json.Marshaler.
func (p Prompt) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		promptAlias
		Params Params `json:"params,omitempty"`
	}{promptAlias(p), p.Params})
}

// UnmarshalJSON implements json.Unmarshaler, decoding params by prompt type.
func (p *Prompt) UnmarshalJSON(data []byte) error {
	var aux struct {
		promptAlias
		Params json.RawMessage `json:"params,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	params, err := UnmarshalParams(aux.Type, aux.Params)
	if err != nil {
		return fmt.Errorf("prompt %s: %w", aux.ID, err)
	}
	*p = Prompt(aux.promptAlias)
	p.Params = params
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Prompt) MarshalYAML() (interface{}, error) {
	return struct {
		promptAlias `yaml:",inline"`
		Params      Params `yaml:"params,omitempty"`
	}{promptAlias(p), p.Params}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler, decoding params by prompt type.
func (p *Prompt) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		promptAlias `yaml:",inline"`
		Params      yaml.Node `yaml:"params,omitempty"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	params, err := decodeParamsYAML(aux.Type, &aux.Params)
	if err != nil {
		return fmt.Errorf("prompt %s: %w", aux.ID, err)
	}
	*p = Prompt(aux.promptAlias)
	p.Params = params
	return nil
}
