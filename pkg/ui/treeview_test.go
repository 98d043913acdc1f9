package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/covview/covview/pkg/model"
	"github.com/covview/covview/pkg/viewtree"
)

func snap(t *testing.T, name string, kind model.NodeKind, children ...*model.Node) *model.Node {
	t.Helper()
	n, err := model.NewNode(name, kind, model.Stats{}, children)
	if err != nil {
		t.Fatalf("build snapshot %q: %v", name, err)
	}
	return n
}

func viewRoot(t *testing.T, snapshot *model.Node) *viewtree.Node {
	t.Helper()
	root, err := viewtree.New(snapshot)
	if err != nil {
		t.Fatalf("build view tree: %v", err)
	}
	return root
}

func testTree(t *testing.T, snapshot *model.Node) (*TreeModel, *viewtree.Node) {
	t.Helper()
	tree := NewTreeModel(DarkTheme(lipgloss.DefaultRenderer()))
	tree.SetStateDir(t.TempDir())
	tree.SetSize(80, 40)
	root := viewRoot(t, snapshot)
	tree.SetRoot(root)
	return &tree, root
}

func rowNames(tree *TreeModel) []string {
	names := make([]string, 0, len(tree.rows))
	for _, r := range tree.rows {
		names = append(names, r.node.FlatName())
	}
	return names
}

// TestTreeRowsFollowExpansion verifies only expanded subtrees contribute
// rows, with the first two levels expanded by default.
func TestTreeRowsFollowExpansion(t *testing.T) {
	tree, _ := testTree(t, snap(t, "root", model.KindNamespace,
		snap(t, "a", model.KindNamespace,
			snap(t, "x.go", model.KindClass,
				snap(t, "L1-L2", model.KindMethod),
			),
		),
		snap(t, "b.go", model.KindClass),
	))

	// Depth 0 and 1 expand by default, and expanding "a" cascades through
	// its single-child chain down to the block row.
	got := rowNames(tree)
	want := []string{"root", "a", "x.go", "L1-L2", "b.go"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

// TestTreeRowsFlattenChains verifies a single-namespace chain renders as
// one dotted row and its tail's children hang underneath.
func TestTreeRowsFlattenChains(t *testing.T) {
	tree, _ := testTree(t, snap(t, "covview", model.KindNamespace,
		snap(t, "pkg", model.KindNamespace,
			snap(t, "internal", model.KindNamespace,
				snap(t, "f.go", model.KindClass),
			),
		),
	))

	got := rowNames(tree)
	// Root flattens the whole chain; pkg and internal never get own rows.
	want := []string{"covview.pkg.internal", "f.go"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

// TestTreeCursorSurvivesRebuild verifies the cursor follows the selected
// node across a synchronize-driven rebuild.
func TestTreeCursorSurvivesRebuild(t *testing.T) {
	keep := snap(t, "keep.go", model.KindClass)
	tree, root := testTree(t, snap(t, "root", model.KindNamespace,
		snap(t, "a.go", model.KindClass),
		keep,
	))

	tree.MoveDown()
	tree.MoveDown()
	if tree.SelectedNode().DisplayName() != "keep.go" {
		t.Fatalf("selected %q, want keep.go", tree.SelectedNode().DisplayName())
	}

	// A new file sorts before keep.go, shifting its row index.
	if err := root.Synchronize(snap(t, "root", model.KindNamespace,
		snap(t, "a.go", model.KindClass),
		snap(t, "b.go", model.KindClass),
		keep,
	)); err != nil {
		t.Fatalf("synchronize: %v", err)
	}
	tree.Rebuild()

	if tree.SelectedNode() == nil || tree.SelectedNode().DisplayName() != "keep.go" {
		t.Errorf("cursor lost selection after rebuild: %v", rowNames(tree))
	}
}

// TestTreeToggleExpand verifies toggling hides and reveals a subtree.
func TestTreeToggleExpand(t *testing.T) {
	tree, _ := testTree(t, snap(t, "root", model.KindNamespace,
		snap(t, "a", model.KindNamespace,
			snap(t, "x.go", model.KindClass),
		),
		snap(t, "b", model.KindNamespace),
	))

	tree.MoveDown() // onto "a"
	tree.ToggleExpand()
	got := rowNames(tree)
	want := []string{"root", "a", "b"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("rows after collapse = %v, want %v", got, want)
	}

	tree.ToggleExpand()
	if len(tree.rows) != 4 {
		t.Errorf("expected subtree back after re-expand, rows = %v", rowNames(tree))
	}
}

// TestTreeJumpTo verifies jumping expands ancestors and lands the cursor.
func TestTreeJumpTo(t *testing.T) {
	leaf := snap(t, "L1-L2", model.KindMethod)
	tree, root := testTree(t, snap(t, "root", model.KindNamespace,
		snap(t, "a", model.KindNamespace,
			snap(t, "x.go", model.KindClass, leaf),
		),
	))

	target, err := root.FindChild(leaf)
	if err != nil || target == nil {
		t.Fatalf("FindChild: %v, %v", target, err)
	}

	if !tree.JumpTo(target) {
		t.Fatal("JumpTo returned false for reachable node")
	}
	if tree.SelectedNode() != target {
		t.Errorf("selected %v, want jump target", tree.SelectedNode())
	}
}

// TestTreeViewRendersNames verifies the rendered output carries the
// visible names and the selected row styling does not lose content.
func TestTreeViewRendersNames(t *testing.T) {
	tree, _ := testTree(t, snap(t, "root", model.KindNamespace,
		snap(t, "alpha.go", model.KindClass),
	))

	out := tree.View()
	if !strings.Contains(out, "root") || !strings.Contains(out, "alpha.go") {
		t.Errorf("view missing node names:\n%s", out)
	}
}

// TestTreeEmptyState verifies the placeholder renders before data arrives.
func TestTreeEmptyState(t *testing.T) {
	tree := NewTreeModel(DarkTheme(lipgloss.DefaultRenderer()))
	out := tree.View()
	if !strings.Contains(out, "No coverage data") {
		t.Errorf("unexpected empty state:\n%s", out)
	}
}

// TestNodePath verifies the structural path key.
func TestNodePath(t *testing.T) {
	leaf := snap(t, "f.go", model.KindClass)
	root := viewRoot(t, snap(t, "root", model.KindNamespace,
		snap(t, "pkg", model.KindNamespace, leaf),
	))

	target, err := root.FindChild(leaf)
	if err != nil || target == nil {
		t.Fatalf("FindChild: %v, %v", target, err)
	}
	if got := nodePath(target); got != "root/pkg/f.go" {
		t.Errorf("nodePath = %q, want %q", got, "root/pkg/f.go")
	}
}
