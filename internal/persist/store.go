package persist

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kayz/promptstudio/internal/exchange"
	"github.com/kayz/promptstudio/internal/studio"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store persists projects, prompts, CAPs and templates in SQLite. Every read
// returns a fresh snapshot that callers may modify freely.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewStore creates a new SQLite-backed store at the given path
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db, now: time.Now}

	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// init creates the necessary tables if they don't exist
func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			tags        TEXT NOT NULL DEFAULT '[]',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS prompts (
			id          TEXT PRIMARY KEY,
			project_id  TEXT NOT NULL DEFAULT '',
			type        TEXT NOT NULL,
			title       TEXT NOT NULL DEFAULT '',
			content     TEXT NOT NULL DEFAULT '',
			params      TEXT NOT NULL DEFAULT '{}',
			caps        TEXT NOT NULL DEFAULT '[]',
			score       TEXT,
			version     INTEGER NOT NULL DEFAULT 1,
			tags        TEXT NOT NULL DEFAULT '[]',
			updated_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS caps (
			id          TEXT PRIMARY KEY,
			scope       TEXT NOT NULL,
			signature   TEXT NOT NULL DEFAULT '[]',
			forbid      TEXT NOT NULL DEFAULT '[]',
			palette     TEXT NOT NULL DEFAULT '[]',
			camera      TEXT NOT NULL DEFAULT '[]',
			usage_hint  TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS templates (
			id             TEXT PRIMARY KEY,
			type           TEXT NOT NULL,
			title          TEXT NOT NULL DEFAULT '',
			inputs         TEXT NOT NULL DEFAULT '[]',
			content        TEXT NOT NULL DEFAULT '',
			best_practices TEXT NOT NULL DEFAULT '',
			tags           TEXT NOT NULL DEFAULT '[]'
		);

		CREATE INDEX IF NOT EXISTS idx_prompts_project ON prompts(project_id);
	`)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

func affected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

// --- Projects ---

// ListProjects returns all projects in creation order.
func (s *Store) ListProjects() ([]studio.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ` + projectColumns + ` FROM projects ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []studio.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject returns the project with the given id.
func (s *Store) GetProject(id string) (studio.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanProject(s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, notFound("project", id)
	}
	return p, err
}

// CreateProject stores a new project with a fresh id and timestamps.
func (s *Store) CreateProject(p studio.Project) (studio.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p.ID = exchange.NewID("proj")
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := insertProject(s.db, p); err != nil {
		return studio.Project{}, err
	}
	return p, nil
}

// UpdateProject replaces the name, description and tags of a project.
func (s *Store) UpdateProject(p studio.Project) (studio.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.UpdatedAt = s.now()
	res, err := s.db.Exec(`
		UPDATE projects SET name = ?, description = ?, tags = ?, updated_at = ? WHERE id = ?
	`, p.Name, p.Description, toJSON(nonNilStrings(p.Tags)), formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return studio.Project{}, err
	}
	if err := affected(res, "project", p.ID); err != nil {
		return studio.Project{}, err
	}
	return scanProject(s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, p.ID))
}

// DeleteProject removes a project together with its prompts.
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM prompts WHERE project_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := affected(res, "project", id); err != nil {
		return err
	}
	return tx.Commit()
}

func insertProject(db execer, p studio.Project) error {
	_, err := db.Exec(`
		INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Description, toJSON(nonNilStrings(p.Tags)), formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert project %s: %w", p.ID, err)
	}
	return nil
}

// --- Prompts ---

// ListPrompts returns all prompts in creation order.
func (s *Store) ListPrompts() ([]*studio.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryPrompts(`SELECT ` + promptColumns + ` FROM prompts ORDER BY rowid`)
}

// ListPromptsByProject returns the prompts of one project.
func (s *Store) ListPromptsByProject(projectID string) ([]*studio.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryPrompts(`SELECT `+promptColumns+` FROM prompts WHERE project_id = ? ORDER BY rowid`, projectID)
}

func (s *Store) queryPrompts(query string, args ...any) ([]*studio.Prompt, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prompts []*studio.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

// GetPrompt returns the prompt with the given id.
func (s *Store) GetPrompt(id string) (*studio.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPrompt(id)
}

func (s *Store) getPrompt(id string) (*studio.Prompt, error) {
	p, err := scanPrompt(s.db.QueryRow(`SELECT `+promptColumns+` FROM prompts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("prompt", id)
	}
	return p, err
}

// CreatePrompt stores a new prompt at version 1. A fresh id is assigned
// unless p already carries one.
func (s *Store) CreatePrompt(p *studio.Prompt) (*studio.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	if cp.ID == "" {
		cp.ID = exchange.NewID("p")
	}
	cp.Version = 1
	cp.UpdatedAt = s.now()
	if err := insertPrompt(s.db, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// UpdatePrompt saves p over the stored prompt with the same id. The version
// is bumped only when the content snapshot changes.
func (s *Store) UpdatePrompt(p *studio.Prompt) (*studio.Prompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getPrompt(p.ID)
	if err != nil {
		return nil, err
	}

	cp := *p
	cp.Version = current.Version
	if cp.Content != "" && cp.Content != current.Content {
		cp.Version++
	}
	cp.UpdatedAt = s.now()

	_, err = s.db.Exec(`
		UPDATE prompts SET project_id = ?, type = ?, title = ?, content = ?, params = ?, caps = ?,
			score = ?, version = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`, cp.ProjectID, string(cp.Type), cp.Title, cp.Content, paramsJSON(cp.Params), toJSON(nonNilStrings(cp.Caps)),
		scoreJSON(cp.Score), cp.Version, toJSON(nonNilStrings(cp.Tags)), formatTime(cp.UpdatedAt), cp.ID)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// SetPromptScore stores a score without touching version or timestamps.
func (s *Store) SetPromptScore(id string, score studio.Score) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE prompts SET score = ? WHERE id = ?`, toJSON(score), id)
	if err != nil {
		return err
	}
	return affected(res, "prompt", id)
}

// DeletePrompt removes a prompt.
func (s *Store) DeletePrompt(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM prompts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(res, "prompt", id)
}

func insertPrompt(db execer, p *studio.Prompt) error {
	version := p.Version
	if version < 1 {
		version = 1
	}
	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := db.Exec(`
		INSERT INTO prompts (`+promptColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.ProjectID, string(p.Type), p.Title, p.Content, paramsJSON(p.Params), toJSON(nonNilStrings(p.Caps)),
		scoreJSON(p.Score), version, toJSON(nonNilStrings(p.Tags)), formatTime(updatedAt))
	if err != nil {
		return fmt.Errorf("insert prompt %s: %w", p.ID, err)
	}
	return nil
}

// --- CAPs ---

// ListCAPs returns all CAPs in creation order.
func (s *Store) ListCAPs() ([]studio.CAP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ` + capColumns + ` FROM caps ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var caps []studio.CAP
	for rows.Next() {
		c, err := scanCAP(rows)
		if err != nil {
			return nil, err
		}
		caps = append(caps, c)
	}
	return caps, rows.Err()
}

// GetCAP returns the CAP with the given id.
func (s *Store) GetCAP(id string) (studio.CAP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := scanCAP(s.db.QueryRow(`SELECT `+capColumns+` FROM caps WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return c, notFound("cap", id)
	}
	return c, err
}

// LookupCAP implements studio.CAPLookup. Read errors count as not found.
func (s *Store) LookupCAP(id string) (studio.CAP, bool) {
	c, err := s.GetCAP(id)
	return c, err == nil
}

// CreateCAP stores a new CAP with a fresh id. The signature must name it.
func (s *Store) CreateCAP(c studio.CAP) (studio.CAP, error) {
	if err := checkSignature(c); err != nil {
		return studio.CAP{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = exchange.NewID("cap")
	if err := insertCAP(s.db, c); err != nil {
		return studio.CAP{}, err
	}
	return c, nil
}

// UpdateCAP replaces a stored CAP.
func (s *Store) UpdateCAP(c studio.CAP) (studio.CAP, error) {
	if err := checkSignature(c); err != nil {
		return studio.CAP{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE caps SET scope = ?, signature = ?, forbid = ?, palette = ?, camera = ?, usage_hint = ? WHERE id = ?
	`, string(c.Scope), toJSON(c.Signature), toJSON(nonNilStrings(c.Forbid)), toJSON(nonNilStrings(c.Palette)),
		toJSON(nonNilStrings(c.Camera)), c.UsageHint, c.ID)
	if err != nil {
		return studio.CAP{}, err
	}
	if err := affected(res, "cap", c.ID); err != nil {
		return studio.CAP{}, err
	}
	return c, nil
}

// DeleteCAP removes a CAP. Prompts keep their references; they simply stop
// resolving.
func (s *Store) DeleteCAP(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM caps WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(res, "cap", id)
}

func checkSignature(c studio.CAP) error {
	if len(c.Signature) == 0 || !studio.Filled(c.Signature[0]) {
		return fmt.Errorf("cap signature needs at least one keyword")
	}
	return nil
}

func insertCAP(db execer, c studio.CAP) error {
	_, err := db.Exec(`
		INSERT INTO caps (`+capColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, string(c.Scope), toJSON(nonNilStrings(c.Signature)), toJSON(nonNilStrings(c.Forbid)),
		toJSON(nonNilStrings(c.Palette)), toJSON(nonNilStrings(c.Camera)), c.UsageHint)
	if err != nil {
		return fmt.Errorf("insert cap %s: %w", c.ID, err)
	}
	return nil
}

// --- Templates ---

// ListTemplates returns all templates in creation order.
func (s *Store) ListTemplates() ([]studio.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ` + templateColumns + ` FROM templates ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []studio.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// GetTemplate returns the template with the given id.
func (s *Store) GetTemplate(id string) (studio.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := scanTemplate(s.db.QueryRow(`SELECT `+templateColumns+` FROM templates WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, notFound("template", id)
	}
	return t, err
}

// CreateTemplate stores a new template with a fresh id.
func (s *Store) CreateTemplate(t studio.Template) (studio.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = exchange.NewID("t")
	if err := insertTemplate(s.db, t); err != nil {
		return studio.Template{}, err
	}
	return t, nil
}

// DeleteTemplate removes a template.
func (s *Store) DeleteTemplate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(res, "template", id)
}

func insertTemplate(db execer, t studio.Template) error {
	_, err := db.Exec(`
		INSERT INTO templates (`+templateColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.ID, string(t.Type), t.Title, toJSON(nonNilStrings(t.Inputs)), t.Content, t.BestPractices,
		toJSON(nonNilStrings(t.Tags)))
	if err != nil {
		return fmt.Errorf("insert template %s: %w", t.ID, err)
	}
	return nil
}

// --- Bulk ---

// Snapshot returns the whole library.
func (s *Store) Snapshot() (*exchange.Bundle, error) {
	projects, err := s.ListProjects()
	if err != nil {
		return nil, err
	}
	prompts, err := s.ListPrompts()
	if err != nil {
		return nil, err
	}
	caps, err := s.ListCAPs()
	if err != nil {
		return nil, err
	}
	templates, err := s.ListTemplates()
	if err != nil {
		return nil, err
	}
	return &exchange.Bundle{Projects: projects, Prompts: prompts, CAPs: caps, Templates: templates}, nil
}

// Import appends every record of b in one transaction. Records keep their
// ids, so an id that already exists fails the whole import; remap first to
// avoid that.
func (s *Store) Import(b *exchange.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := importBundle(tx, b); err != nil {
		return err
	}
	return tx.Commit()
}

func importBundle(tx execer, b *exchange.Bundle) error {
	for _, p := range b.Projects {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now()
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
		if err := insertProject(tx, p); err != nil {
			return err
		}
	}
	for _, c := range b.CAPs {
		if err := insertCAP(tx, c); err != nil {
			return err
		}
	}
	for _, t := range b.Templates {
		if err := insertTemplate(tx, t); err != nil {
			return err
		}
	}
	for _, p := range b.Prompts {
		if p == nil {
			continue
		}
		if err := insertPrompt(tx, p); err != nil {
			return err
		}
	}
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
