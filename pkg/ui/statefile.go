package ui

import (
	"log"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/covview/covview/pkg/viewtree"
)

// TreeState is the persistent expand/collapse state of the tree view,
// saved to .covview/tree-state.json so it survives sessions.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "expanded": {
//	    "coverage/pkg/loader": true,   // explicitly expanded
//	    "coverage/pkg/ui": false       // explicitly collapsed
//	  }
//	}
//
// Only explicit user changes are stored; nodes not in the map use the
// default (expanded for depth < 2). A corrupted or missing file silently
// falls back to defaults. Keys are structural node paths, so entries for
// nodes that no longer exist are simply ignored.
type TreeState struct {
	Version  int             `json:"version"`
	Expanded map[string]bool `json:"expanded"`
}

// TreeStateVersion is the current schema version for tree persistence.
const TreeStateVersion = 1

// treeStateFileName is the filename for persisted tree state.
const treeStateFileName = "tree-state.json"

// TreeStatePath returns the path to the tree state file. stateDir
// overrides the default ".covview" directory.
func TreeStatePath(stateDir string) string {
	if stateDir == "" {
		stateDir = ".covview"
	}
	return filepath.Join(stateDir, treeStateFileName)
}

// saveState persists the current expand/collapse state to disk.
// Errors are logged but do not interrupt the user experience.
func (t *TreeModel) saveState() {
	if t.root == nil {
		return
	}

	state := &TreeState{
		Version:  TreeStateVersion,
		Expanded: make(map[string]bool),
	}

	var walk func(n *viewtree.Node, depth int)
	walk = func(n *viewtree.Node, depth int) {
		defaultExpanded := depth < 2
		if n.IsExpanded() != defaultExpanded {
			state.Expanded[nodePath(n)] = n.IsExpanded()
		}
		for i := 0; i < n.Children().Len(); i++ {
			walk(n.Children().At(i), depth+1)
		}
	}
	walk(t.root, 0)

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Printf("warning: failed to marshal tree state: %v", err)
		return
	}

	path := TreeStatePath(t.stateDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Printf("warning: failed to create state directory: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("warning: failed to write tree state to %s: %v", path, err)
		return
	}
}

// loadState restores expand/collapse state from disk. A missing file is a
// first run; an invalid file is logged and ignored.
func (t *TreeModel) loadState() {
	path := TreeStatePath(t.stateDir)
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var state TreeState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("warning: invalid tree state file, using defaults: %v", err)
		return
	}
	t.applyState(&state)
}

// applyState sets expand state on nodes matched by path. Stale paths are
// silently ignored.
func (t *TreeModel) applyState(state *TreeState) {
	if t.root == nil || state == nil || len(state.Expanded) == 0 {
		return
	}

	byPath := make(map[string]*viewtree.Node)
	for n := range t.root.Walk() {
		byPath[nodePath(n)] = n
	}

	for path, expanded := range state.Expanded {
		if n, ok := byPath[path]; ok {
			n.SetExpanded(expanded)
		}
	}
}
