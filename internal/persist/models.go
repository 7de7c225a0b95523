package persist

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/kayz/promptstudio/internal/studio"
)

// scanner interface for both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

const (
	projectColumns  = `id, name, description, tags, created_at, updated_at`
	promptColumns   = `id, project_id, type, title, content, params, caps, score, version, tags, updated_at`
	capColumns      = `id, scope, signature, forbid, palette, camera, usage_hint`
	templateColumns = `id, type, title, inputs, content, best_practices, tags`
)

func scanProject(row scanner) (studio.Project, error) {
	var p studio.Project
	var tags, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &tags, &createdAt, &updatedAt); err != nil {
		return p, err
	}
	_ = fromJSON(tags, &p.Tags)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

func scanPrompt(row scanner) (*studio.Prompt, error) {
	var p studio.Prompt
	var promptType, params, caps, tags, updatedAt string
	var score sql.NullString
	if err := row.Scan(&p.ID, &p.ProjectID, &promptType, &p.Title, &p.Content, &params,
		&caps, &score, &p.Version, &tags, &updatedAt); err != nil {
		return nil, err
	}
	p.Type = studio.ParsePromptType(promptType)
	decoded, err := studio.UnmarshalParams(p.Type, []byte(params))
	if err != nil {
		return nil, err
	}
	p.Params = decoded
	_ = fromJSON(caps, &p.Caps)
	_ = fromJSON(tags, &p.Tags)
	if score.Valid && score.String != "" {
		var s studio.Score
		if fromJSON(score.String, &s) == nil {
			p.Score = &s
		}
	}
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func scanCAP(row scanner) (studio.CAP, error) {
	var c studio.CAP
	var scope, signature, forbid, palette, camera string
	if err := row.Scan(&c.ID, &scope, &signature, &forbid, &palette, &camera, &c.UsageHint); err != nil {
		return c, err
	}
	c.Scope = studio.ParseScope(scope)
	_ = fromJSON(signature, &c.Signature)
	_ = fromJSON(forbid, &c.Forbid)
	_ = fromJSON(palette, &c.Palette)
	_ = fromJSON(camera, &c.Camera)
	return c, nil
}

func scanTemplate(row scanner) (studio.Template, error) {
	var t studio.Template
	var templateType, inputs, tags string
	if err := row.Scan(&t.ID, &templateType, &t.Title, &inputs, &t.Content, &t.BestPractices, &tags); err != nil {
		return t, err
	}
	t.Type = studio.ParsePromptType(templateType)
	_ = fromJSON(inputs, &t.Inputs)
	_ = fromJSON(tags, &t.Tags)
	return t, nil
}

func scoreJSON(s *studio.Score) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: toJSON(s), Valid: true}
}

func paramsJSON(p studio.Params) string {
	data, err := studio.MarshalParams(p)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// toJSON converts an object to JSON string
func toJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// fromJSON parses JSON string into an object
func fromJSON(data string, v interface{}) error {
	if data == "" || data == "[]" || data == "null" {
		return nil
	}
	return json.Unmarshal([]byte(data), v)
}
