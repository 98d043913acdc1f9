package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/covview/covview/pkg/model"
	"github.com/covview/covview/pkg/viewtree"
)

// treeRow is one visible line of the tree. Flattened namespace chains
// occupy a single row: the chain head carries the dotted name and the
// chain tail's children follow underneath.
type treeRow struct {
	node   *viewtree.Node
	depth  int
	prefix string // branch characters, unstyled
}

// TreeModel renders the coverage tree and owns cursor and scroll state.
type TreeModel struct {
	theme Theme

	root   *viewtree.Node
	rows   []treeRow
	cursor int
	offset int // first visible row

	width  int
	height int

	stateDir string
	built    bool
}

// NewTreeModel creates an empty tree view.
func NewTreeModel(theme Theme) TreeModel {
	return TreeModel{theme: theme}
}

// SetStateDir sets the directory for expand-state persistence. Call before
// SetRoot if a custom state directory is desired; defaults to ".covview".
func (t *TreeModel) SetStateDir(dir string) {
	t.stateDir = dir
}

// SetSize updates the viewport dimensions.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.clampScroll()
}

// SetRoot binds the view tree, applies default expansion plus any persisted
// overrides, and builds the row list.
func (t *TreeModel) SetRoot(root *viewtree.Node) {
	t.root = root
	t.built = root != nil
	if root != nil {
		applyDefaultExpansion(root, 0)
		t.loadState()
	}
	t.cursor = 0
	t.offset = 0
	t.Rebuild()
}

// applyDefaultExpansion expands the first two levels, the same default the
// persisted state diffs against.
func applyDefaultExpansion(n *viewtree.Node, depth int) {
	if depth < 2 {
		n.SetExpanded(true)
	}
	for i := 0; i < n.Children().Len(); i++ {
		applyDefaultExpansion(n.Children().At(i), depth+1)
	}
}

// Rebuild recomputes the visible rows, keeping the cursor on the same node
// when it is still visible. Call after Synchronize or an expand change.
func (t *TreeModel) Rebuild() {
	var selected *viewtree.Node
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		selected = t.rows[t.cursor].node
	}

	t.rows = t.rows[:0]
	if t.root != nil {
		t.rows = append(t.rows, treeRow{node: t.root, depth: 0})
		if t.root.IsExpanded() {
			t.appendChildren(t.root, 1, "")
		}
	}

	t.cursor = 0
	if selected != nil {
		for i, r := range t.rows {
			if r.node == selected {
				t.cursor = i
				break
			}
		}
	}
	t.clampScroll()
}

// appendChildren emits rows for the visible children of a (chain head)
// node. Flattened chain tails never get rows of their own.
func (t *TreeModel) appendChildren(n *viewtree.Node, depth int, prefix string) {
	kids := n.VisibleChildren()
	for i := 0; i < kids.Len(); i++ {
		child := kids.At(i)
		last := i == kids.Len()-1

		branch := "├── "
		cont := "│   "
		if last {
			branch = "└── "
			cont = "    "
		}

		t.rows = append(t.rows, treeRow{node: child, depth: depth, prefix: prefix + branch})
		if child.IsExpanded() && child.VisibleChildren().Len() > 0 {
			t.appendChildren(child, depth+1, prefix+cont)
		}
	}
}

// SelectedNode returns the node under the cursor, or nil.
func (t *TreeModel) SelectedNode() *viewtree.Node {
	if t.cursor >= 0 && t.cursor < len(t.rows) {
		return t.rows[t.cursor].node
	}
	return nil
}

// RowCount returns the number of visible rows.
func (t *TreeModel) RowCount() int {
	return len(t.rows)
}

// MoveDown moves the cursor down one row.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
		t.clampScroll()
	}
}

// MoveUp moves the cursor up one row.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		t.clampScroll()
	}
}

// GotoTop moves the cursor to the first row.
func (t *TreeModel) GotoTop() {
	t.cursor = 0
	t.clampScroll()
}

// GotoBottom moves the cursor to the last row.
func (t *TreeModel) GotoBottom() {
	if len(t.rows) > 0 {
		t.cursor = len(t.rows) - 1
	}
	t.clampScroll()
}

// ToggleExpand flips the expand state of the selected node and persists it.
func (t *TreeModel) ToggleExpand() {
	node := t.SelectedNode()
	if node == nil || node.VisibleChildren().Len() == 0 {
		return
	}
	node.ToggleExpanded()
	t.Rebuild()
	t.saveState()
}

// ExpandAll expands every node in the tree.
func (t *TreeModel) ExpandAll() {
	t.setExpandedAll(true)
}

// CollapseAll collapses every node except the root.
func (t *TreeModel) CollapseAll() {
	t.setExpandedAll(false)
}

func (t *TreeModel) setExpandedAll(expanded bool) {
	if t.root == nil {
		return
	}
	for n := range t.root.Walk() {
		n.SetExpanded(expanded)
	}
	// The root line stays expanded so the tree never renders as a single
	// collapsed row.
	if !expanded {
		t.root.SetExpanded(true)
	}
	t.Rebuild()
	t.saveState()
}

// JumpTo moves the cursor onto the given node, expanding its ancestors so
// it is visible. Returns false if the node is not in this tree.
func (t *TreeModel) JumpTo(node *viewtree.Node) bool {
	if node == nil || t.root == nil {
		return false
	}
	for a := range node.Ancestors() {
		if a != node {
			a.SetExpanded(true)
		}
	}
	t.Rebuild()
	for i, r := range t.rows {
		if r.node == node {
			t.cursor = i
			t.clampScroll()
			return true
		}
	}
	return false
}

// clampScroll keeps the cursor inside the visible window.
func (t *TreeModel) clampScroll() {
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	if t.height <= 0 {
		t.offset = 0
		return
	}
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+t.height {
		t.offset = t.cursor - t.height + 1
	}
}

// View renders the visible window of rows.
func (t *TreeModel) View() string {
	if !t.built || len(t.rows) == 0 {
		return t.renderEmptyState()
	}

	end := len(t.rows)
	if t.height > 0 && t.offset+t.height < end {
		end = t.offset + t.height
	}

	var sb strings.Builder
	for i := t.offset; i < end; i++ {
		line := t.renderRow(t.rows[i])
		if i == t.cursor {
			line = t.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderEmptyState renders the view before the first snapshot arrives.
func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}

	titleStyle := r.NewStyle().Foreground(t.theme.Primary).Bold(true)
	mutedStyle := r.NewStyle().Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Coverage"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("No coverage data yet."))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Generate a profile and it will appear here:"))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("  go test -coverprofile=coverage.out ./..."))
	return sb.String()
}

// renderRow renders one tree line: branch prefix, expand indicator, kind
// icon, flattened name, coverage badge.
func (t *TreeModel) renderRow(row treeRow) string {
	r := t.theme.Renderer
	n := row.node
	var sb strings.Builder

	sb.WriteString(r.NewStyle().Foreground(t.theme.Muted).Render(row.prefix))

	indicator := "•"
	if n.VisibleChildren().Len() > 0 {
		if n.IsExpanded() {
			indicator = "▾"
		} else {
			indicator = "▸"
		}
	}
	sb.WriteString(r.NewStyle().Foreground(t.theme.Secondary).Render(indicator))
	sb.WriteString(" ")

	icon, iconColor := t.theme.KindIcon(n.Kind())
	sb.WriteString(r.NewStyle().Foreground(iconColor).Render(icon))
	sb.WriteString(" ")

	name := n.FlatName()
	// Room for prefix, indicator, icon and the trailing badge.
	maxName := t.width - lipgloss.Width(row.prefix) - 12
	if maxName < 12 {
		maxName = 12
	}
	sb.WriteString(runewidth.Truncate(name, maxName, "…"))

	if badge := t.coverageBadge(n); badge != "" {
		sb.WriteString(" ")
		sb.WriteString(badge)
	}

	return sb.String()
}

// coverageBadge formats the subtree coverage percentage, colored by the
// ramp. Data nodes and empty subtrees carry no badge.
func (t *TreeModel) coverageBadge(n *viewtree.Node) string {
	if n.Kind() == model.KindData {
		return ""
	}
	total := n.Snapshot().Total()
	if total.Total == 0 {
		return ""
	}
	pct := total.Percent()
	return t.theme.Renderer.NewStyle().
		Foreground(t.theme.CoverageColor(pct)).
		Render(fmt.Sprintf("%3.0f%%", pct*100))
}

// nodePath returns the structural path of a node from the root, slash
// separated. Used as the persistence and clipboard key.
func nodePath(n *viewtree.Node) string {
	var parts []string
	for a := range n.Ancestors() {
		parts = append(parts, a.Snapshot().Name)
	}
	// Ancestors runs leaf to root; reverse in place.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}
