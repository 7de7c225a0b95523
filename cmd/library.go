package cmd

import (
	"errors"
	"fmt"

	"github.com/kayz/promptstudio/internal/persist"
	"github.com/kayz/promptstudio/internal/studio"
	"github.com/kayz/promptstudio/internal/workspace"
)

// library is where read-only commands find prompts and CAPs: a workspace
// file when --workspace is set, the SQLite library otherwise.
type library interface {
	studio.CAPLookup
	Prompt(id string) (*studio.Prompt, error)
	// Scenes returns the default scene list.
	Scenes() ([]*studio.Prompt, error)
	Close() error
}

type workspaceLibrary struct {
	ws *workspace.Workspace
}

func (l workspaceLibrary) LookupCAP(id string) (studio.CAP, bool) { return l.ws.LookupCAP(id) }

func (l workspaceLibrary) Prompt(id string) (*studio.Prompt, error) {
	p, ok := l.ws.Prompt(id)
	if !ok {
		return nil, fmt.Errorf("prompt %s not found in %s", id, workspacePath)
	}
	return p, nil
}

func (l workspaceLibrary) Scenes() ([]*studio.Prompt, error) { return l.ws.SceneList(), nil }

func (workspaceLibrary) Close() error { return nil }

// storeLibrary snapshots the CAPs once so a command sees one consistent set.
type storeLibrary struct {
	store *persist.Store
	caps  studio.CAPIndex
}

func (l *storeLibrary) LookupCAP(id string) (studio.CAP, bool) { return l.caps.LookupCAP(id) }

func (l *storeLibrary) Prompt(id string) (*studio.Prompt, error) {
	p, err := l.store.GetPrompt(id)
	if errors.Is(err, persist.ErrNotFound) {
		return nil, fmt.Errorf("prompt %s not found (list prompts with: promptstudio prompt list)", id)
	}
	return p, err
}

func (l *storeLibrary) Scenes() ([]*studio.Prompt, error) { return l.store.ListPrompts() }

func (l *storeLibrary) Close() error { return l.store.Close() }

func openLibrary() (library, error) {
	if workspacePath != "" {
		ws, err := workspace.Load(workspacePath)
		if err != nil {
			return nil, err
		}
		return workspaceLibrary{ws: ws}, nil
	}

	store, err := openStore()
	if err != nil {
		return nil, err
	}
	caps, err := store.ListCAPs()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load caps: %w", err)
	}
	return &storeLibrary{store: store, caps: studio.NewCAPIndex(caps)}, nil
}

// promptsByID resolves ids in order. Repeated ids yield repeated prompts.
func promptsByID(lib library, ids []string) ([]*studio.Prompt, error) {
	prompts := make([]*studio.Prompt, 0, len(ids))
	for _, id := range ids {
		p, err := lib.Prompt(id)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}
