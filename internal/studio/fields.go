package studio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Field is one key/value entry of an ordered record.
type Field struct {
	Key   string
	Value string
}

// Fields is a string record that remembers the order its keys were written
// in. A nil Fields is absent; an empty non-nil Fields is present but empty.
type Fields []Field

// Get returns the value stored under key.
func (f Fields) Get(key string) (string, bool) {
	for _, e := range f {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// AnyFilled reports whether at least one value is filled.
func (f Fields) AnyFilled() bool {
	for _, e := range f {
		if Filled(e.Value) {
			return true
		}
	}
	return false
}

// MarshalJSON writes the fields as a JSON object in order.
func (f Fields) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order. Non-string values are
// kept as their JSON text.
func (f *Fields) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields: expected object, got %v", tok)
	}
	out := Fields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("fields: expected key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("fields: value of %q: %w", key, err)
		}
		out = append(out, Field{Key: key, Value: rawText(raw)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*f = out
	return nil
}

func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// MarshalYAML writes the fields as a YAML mapping in order.
func (f Fields) MarshalYAML() (interface{}, error) {
	if f == nil {
		return nil, nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range f {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value},
		)
	}
	return node, nil
}

// UnmarshalYAML reads a YAML mapping keeping key order.
func (f *Fields) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		*f = nil
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("fields: expected mapping at line %d", value.Line)
	}
	out := make(Fields, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		out = append(out, Field{Key: k.Value, Value: v.Value})
	}
	*f = out
	return nil
}

// Filled reports whether a free-text value carries content.
func Filled(s string) bool {
	return strings.TrimSpace(s) != ""
}

// FilledList reports whether a list has at least one filled entry.
func FilledList(items []string) bool {
	for _, item := range items {
		if Filled(item) {
			return true
		}
	}
	return false
}

// ContainsFold reports whether term occurs in text ignoring case. Blank
// terms never match.
func ContainsFold(text, term string) bool {
	if !Filled(term) {
		return false
	}
	lower := cases.Lower(language.Und)
	return strings.Contains(lower.String(text), lower.String(term))
}

// LowerText folds text the way ContainsFold does, for callers that test one
// text against many terms.
func LowerText(text string) string {
	return cases.Lower(language.Und).String(text)
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
