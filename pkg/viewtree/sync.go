package viewtree

import (
	"fmt"

	"github.com/covview/covview/pkg/model"
)

// Synchronize reconciles this node and its subtree against a newly built
// snapshot node. The caller guarantees snapshot denotes the same subject as
// the node currently wrapped (same package/file at a higher level); this
// method does not decide subject identity itself.
//
// The pass rebinds the wrapped snapshot and matches existing children
// against the new snapshot's children in two rounds: first by reference
// identity (the producer reuses instances verbatim for unchanged
// subtrees), then by name and kind for whatever identity could not claim.
// The fallback matters on the spine above a deep edit: every ancestor of
// the change is a fresh instance there even though most of its children
// were reused, and without it one changed leaf would tear down its whole
// top-level subtree. Matched children synchronize recursively, additions
// get fresh view nodes, and leftovers are detached. Subtrees whose
// snapshot instances were reused reduce to no-op recursive updates, so
// expansion and selection survive there. Repeated calls with the same
// snapshot are idempotent.
//
// Callers serialize Synchronize per tree; everything runs to completion on
// the calling goroutine, including change notifications.
func (n *Node) Synchronize(snapshot *model.Node) error {
	if snapshot == nil {
		return fmt.Errorf("viewtree: synchronize with nil snapshot node")
	}

	// Rebinding alone can change name or kind, which can change flattening
	// eligibility before any child moves.
	n.snapshot = snapshot
	n.refreshView()

	unmatched := n.children.Items()
	take := func(target *Node) bool {
		for i, u := range unmatched {
			if u == target {
				unmatched = append(unmatched[:i], unmatched[i+1:]...)
				return true
			}
		}
		return false
	}

	matched := make([]*Node, len(snapshot.Children))
	for i, sc := range snapshot.Children {
		if existing := n.childFor(sc); existing != nil && take(existing) {
			matched[i] = existing
		}
	}
	for i, sc := range snapshot.Children {
		if matched[i] != nil {
			continue
		}
		for j, u := range unmatched {
			if u.snapshot.Name == sc.Name && u.snapshot.Kind == sc.Kind {
				matched[i] = u
				unmatched = append(unmatched[:j], unmatched[j+1:]...)
				break
			}
		}
	}

	for i, sc := range snapshot.Children {
		if existing := matched[i]; existing != nil {
			// Recurse even when the instance is identical; the algorithm
			// stays uniform and idempotent that way.
			if err := existing.Synchronize(sc); err != nil {
				return err
			}
			continue
		}
		build(sc, n)
	}

	for _, gone := range unmatched {
		gone.Detach()
	}

	// Data-changed fires last so observers always see a consistent tree.
	n.notifyDataChanged()
	return nil
}

// FindChild locates the view node wrapping exactly the given snapshot
// instance anywhere in the subtree rooted at n. It resolves the snapshot's
// ancestor path below n's own snapshot, then walks the view tree level by
// level matching children by reference identity. A snapshot that is not in
// the subtree is not an error; the result is simply nil.
func (n *Node) FindChild(snapshot *model.Node) (*Node, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("viewtree: find child with nil snapshot node")
	}
	if snapshot == n.snapshot {
		return n, nil
	}

	path, ok := snapshotPath(n.snapshot, snapshot)
	if !ok {
		return nil, nil
	}

	cur := n
	for _, step := range path {
		cur = cur.childFor(step)
		if cur == nil {
			return nil, nil
		}
	}
	return cur, nil
}

// snapshotPath finds the chain of snapshot nodes from (but excluding) root
// down to (and including) target, using an explicit stack so arbitrarily
// deep snapshot trees cannot overflow the goroutine stack.
func snapshotPath(root, target *model.Node) ([]*model.Node, bool) {
	type frame struct {
		node *model.Node
		next int
	}

	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.node.Children) {
			stack = stack[:len(stack)-1]
			continue
		}
		child := top.node.Children[top.next]
		top.next++

		if child == target {
			path := make([]*model.Node, 0, len(stack))
			for _, f := range stack[1:] {
				path = append(path, f.node)
			}
			return append(path, child), true
		}
		stack = append(stack, frame{node: child})
	}
	return nil, false
}
