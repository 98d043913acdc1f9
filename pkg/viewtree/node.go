package viewtree

import (
	"fmt"
	"iter"
	"strings"

	"github.com/covview/covview/pkg/model"
)

// Node is a mutable view node bound to exactly one snapshot node at a time.
// The binding is replaceable in place: Synchronize rebinds unchanged nodes
// rather than recreating them, which is how expansion and selection state
// survive a rescan. A node is owned by its parent's child list; the root is
// owned by whoever holds the tree handle.
type Node struct {
	snapshot *model.Node
	parent   *Node

	children *List
	view     *ChildView

	expanded bool
	selected bool

	nextID      int
	dataChanged map[int]func(*Node)
}

// ByDisplayName orders view nodes by case-insensitive display name. Equal
// names keep stable insertion order (the list policy is KeepBoth).
func ByDisplayName(a, b *Node) int {
	return strings.Compare(strings.ToLower(a.snapshot.Name), strings.ToLower(b.snapshot.Name))
}

// New builds the view tree for snapshot and returns its root. Construction
// recursively creates one view node per snapshot node.
func New(snapshot *model.Node) (*Node, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("viewtree: snapshot node is nil")
	}
	return build(snapshot, nil), nil
}

// build creates a node bound to snapshot, instantiates its subtree, and
// attaches it under parent (nil for the root).
func build(snapshot *model.Node, parent *Node) *Node {
	n := &Node{
		snapshot:    snapshot,
		parent:      parent,
		dataChanged: make(map[int]func(*Node)),
	}
	n.children = NewList(ByDisplayName)
	n.view = NewChildView(n.children)
	n.children.Subscribe(n.onChildrenChanged)

	for _, c := range snapshot.Children {
		build(c, n)
	}

	if parent != nil {
		parent.children.Add(n)
	}
	return n
}

// onChildrenChanged runs on every structural change of the direct child
// list. Added elements must already point back at this node; anything else
// is a bug in the reconciliation algorithm, not a recoverable condition.
func (n *Node) onChildrenChanged(ch Change) {
	for _, added := range ch.Added {
		if added.parent != n {
			panic(fmt.Sprintf("viewtree: node %q added under wrong parent", added.snapshot.Name))
		}
	}
	n.refreshView()
}

// Snapshot returns the currently wrapped snapshot node.
func (n *Node) Snapshot() *model.Node { return n.snapshot }

// Parent returns the owning parent, nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the direct, sorted child list.
func (n *Node) Children() *List { return n.children }

// VisibleChildren returns the flattening-aware externally visible child
// sequence.
func (n *Node) VisibleChildren() *ChildView { return n.view }

// DisplayName returns the wrapped snapshot's name.
func (n *Node) DisplayName() string { return n.snapshot.Name }

// Kind returns the wrapped snapshot's kind.
func (n *Node) Kind() model.NodeKind { return n.snapshot.Kind }

// HasChildren reports whether any direct children exist.
func (n *Node) HasChildren() bool { return n.children.Len() > 0 }

// IsSelected reports the selection flag.
func (n *Node) IsSelected() bool { return n.selected }

// SetSelected sets the selection flag.
func (n *Node) SetSelected(v bool) { n.selected = v }

// IsExpanded reports the expansion flag.
func (n *Node) IsExpanded() bool { return n.expanded }

// SetExpanded sets the expansion flag. Expanding a node with exactly one
// child cascades to that child, mirroring flattening visually; collapsing
// never cascades.
func (n *Node) SetExpanded(v bool) {
	n.expanded = v
	if v && n.children.Len() == 1 {
		n.children.At(0).SetExpanded(true)
	}
}

// ToggleExpanded flips the expansion flag with the same cascade rule.
func (n *Node) ToggleExpanded() { n.SetExpanded(!n.expanded) }

// CanNavigate reports whether the node maps to a source location worth
// jumping to.
func (n *Node) CanNavigate() bool {
	switch n.snapshot.Kind {
	case model.KindClass, model.KindMethod:
		return true
	case model.KindNamespace, model.KindData, model.KindOther:
		return false
	default:
		return false
	}
}

// IsFlattenable reports whether this node collapses into its child for
// display: a namespace with exactly one child that is also a namespace.
func (n *Node) IsFlattenable() bool {
	return n.snapshot.Kind == model.KindNamespace &&
		n.children.Len() == 1 &&
		n.children.At(0).snapshot.Kind == model.KindNamespace
}

// FlatName returns the display name with every flattenable level below
// this node joined in: "github.com.covview.pkg" style chains end at the
// first non-flattenable node.
func (n *Node) FlatName() string {
	parts := []string{n.snapshot.Name}
	cur := n
	for cur.IsFlattenable() {
		cur = cur.children.At(0)
		parts = append(parts, cur.snapshot.Name)
	}
	return strings.Join(parts, ".")
}

// flattenTail follows the single-child namespace chain to the first node
// that is not flattenable.
func (n *Node) flattenTail() *Node {
	cur := n
	for cur.IsFlattenable() {
		cur = cur.children.At(0)
	}
	return cur
}

// refreshView recomputes flattening eligibility and retargets the child
// view if the externally visible sequence changed. The recomputation
// propagates to a namespace parent, but only on an actual target change,
// so chains of refreshes always terminate.
func (n *Node) refreshView() {
	target := n.flattenTail().children
	if n.view.Target() == target {
		return
	}
	n.view.Retarget(target)
	if n.parent != nil && n.parent.snapshot.Kind == model.KindNamespace {
		n.parent.refreshView()
	}
}

// OnDataChanged registers fn to run after a Synchronize rebinds this node,
// once its children are fully reconciled. Returns an unsubscribe function.
func (n *Node) OnDataChanged(fn func(*Node)) func() {
	id := n.nextID
	n.nextID++
	n.dataChanged[id] = fn
	return func() { delete(n.dataChanged, id) }
}

func (n *Node) notifyDataChanged() {
	fns := make([]func(*Node), 0, len(n.dataChanged))
	for _, fn := range n.dataChanged {
		fns = append(fns, fn)
	}
	for _, fn := range fns {
		fn(n)
	}
}

// Detach tears the node out of the tree: children first (postorder), then
// the node itself is removed from its parent's child list and the parent
// back-reference cleared. After Detach the node is unreachable from the
// root.
func (n *Node) Detach() {
	for n.children.Len() > 0 {
		n.children.At(n.children.Len() - 1).Detach()
	}
	if p := n.parent; p != nil {
		n.parent = nil
		p.children.Remove(n)
	}
}

// childFor returns the direct child wrapping exactly this snapshot
// instance, or nil. Matching is by reference identity: the producer reuses
// snapshot instances verbatim for unchanged subtrees.
func (n *Node) childFor(snapshot *model.Node) *Node {
	for i := 0; i < n.children.Len(); i++ {
		if c := n.children.At(i); c.snapshot == snapshot {
			return c
		}
	}
	return nil
}

// Ancestors walks the parent chain upward starting at n, root last.
func (n *Node) Ancestors() iter.Seq[*Node] {
	return Crawl(n, func(cur *Node) (*Node, bool) {
		return cur.parent, cur.parent != nil
	})
}

// Walk yields n and every descendant in depth-first pre-order.
func (n *Node) Walk() iter.Seq[*Node] {
	return Flatten(n, func(cur *Node) []*Node {
		return cur.children.Items()
	})
}
