package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/covview/covview/pkg/model"
)

// TestTreeStateRoundTrip verifies explicit expand changes survive a save
// and load cycle keyed by node path.
func TestTreeStateRoundTrip(t *testing.T) {
	stateDir := t.TempDir()

	build := func() *TreeModel {
		tree := NewTreeModel(DarkTheme(lipgloss.DefaultRenderer()))
		tree.SetStateDir(stateDir)
		tree.SetSize(80, 40)
		tree.SetRoot(viewRoot(t, snap(t, "root", model.KindNamespace,
			snap(t, "a", model.KindNamespace,
				snap(t, "x.go", model.KindClass),
			),
			snap(t, "b", model.KindNamespace,
				snap(t, "y.go", model.KindClass),
			),
		)))
		return &tree
	}

	first := build()
	first.MoveDown() // onto "a"
	first.ToggleExpand()
	if first.SelectedNode().IsExpanded() {
		t.Fatal("expected a collapsed after toggle")
	}

	// Fresh model over an equivalent tree picks the saved override up.
	second := build()
	found := false
	for n := range second.root.Walk() {
		if n.DisplayName() == "a" {
			found = true
			if n.IsExpanded() {
				t.Error("expected persisted collapse of a")
			}
		}
		if n.DisplayName() == "b" && !n.IsExpanded() {
			t.Error("b should keep the default expanded state")
		}
	}
	if !found {
		t.Fatal("node a missing from rebuilt tree")
	}
}

// TestTreeStateOnlyStoresOverrides verifies default states are not
// written.
func TestTreeStateOnlyStoresOverrides(t *testing.T) {
	stateDir := t.TempDir()
	tree := NewTreeModel(DarkTheme(lipgloss.DefaultRenderer()))
	tree.SetStateDir(stateDir)
	tree.SetSize(80, 40)
	tree.SetRoot(viewRoot(t, snap(t, "root", model.KindNamespace,
		snap(t, "a.go", model.KindClass),
		snap(t, "b.go", model.KindClass),
	)))

	tree.saveState()

	data, err := os.ReadFile(TreeStatePath(stateDir))
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	if string(data) == "" {
		t.Fatal("empty state file")
	}
	// Everything is at its default; the expanded map should be empty.
	if got := string(data); strings.Contains(got, "root/a.go") || strings.Contains(got, "root/b.go") {
		t.Errorf("default states leaked into file:\n%s", got)
	}
}

// TestTreeStateCorruptFile verifies an invalid state file falls back to
// defaults instead of failing.
func TestTreeStateCorruptFile(t *testing.T) {
	stateDir := t.TempDir()
	path := TreeStatePath(stateDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	tree := NewTreeModel(DarkTheme(lipgloss.DefaultRenderer()))
	tree.SetStateDir(stateDir)
	tree.SetSize(80, 40)
	tree.SetRoot(viewRoot(t, snap(t, "root", model.KindNamespace,
		snap(t, "a.go", model.KindClass),
	)))

	if !tree.root.IsExpanded() {
		t.Error("corrupt state file should leave defaults intact")
	}
}

// TestTreeStatePathDefault verifies the default state directory.
func TestTreeStatePathDefault(t *testing.T) {
	if got := TreeStatePath(""); got != filepath.Join(".covview", "tree-state.json") {
		t.Errorf("TreeStatePath = %q", got)
	}
}
