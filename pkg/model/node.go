package model

import (
	"fmt"
)

// NodeKind classifies a coverage tree node. The set is closed: rendering
// and derived-state computations switch exhaustively over it.
type NodeKind int

const (
	// KindNamespace is a package path segment ("github.com", "pkg", ...).
	KindNamespace NodeKind = iota
	// KindClass is a source file.
	KindClass
	// KindMethod is a function or instrumented block group.
	KindMethod
	// KindData is a non-code entry from the test manifest (fixture, testdata).
	KindData
	// KindOther is anything the loader could not classify.
	KindOther
)

// String returns the lowercase name used in logs and the detail pane.
func (k NodeKind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindClass:
		return "file"
	case KindMethod:
		return "func"
	case KindData:
		return "data"
	default:
		return "other"
	}
}

// IsValid reports whether k is one of the defined kinds.
func (k NodeKind) IsValid() bool {
	return k >= KindNamespace && k <= KindOther
}

// Stats holds statement coverage counts for a node (its own blocks only;
// use Node.Total for subtree aggregates).
type Stats struct {
	Covered int `json:"covered"`
	Total   int `json:"total"`
}

// Percent returns coverage as a fraction in [0, 1]. Zero-total nodes
// report 0 rather than NaN.
func (s Stats) Percent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Covered) / float64(s.Total)
}

// Add returns the element-wise sum of two stats.
func (s Stats) Add(o Stats) Stats {
	return Stats{Covered: s.Covered + o.Covered, Total: s.Total + o.Total}
}

// Node is one node of the immutable coverage snapshot tree. Nodes are
// compared by pointer identity, never by value: the loader reuses the same
// *Node instance across rebuilds for subtrees whose content is unchanged,
// and the view layer relies on that to detect unchanged regions.
//
// A Node must not be mutated after construction.
type Node struct {
	Name     string
	Kind     NodeKind
	Stats    Stats
	Children []*Node
}

// NewNode constructs a snapshot node. Children order is the producer's
// intended order; the view layer re-sorts for display.
func NewNode(name string, kind NodeKind, stats Stats, children []*Node) (*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("node name cannot be empty")
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid node kind: %d", kind)
	}
	for i, c := range children {
		if c == nil {
			return nil, fmt.Errorf("node %q: child %d is nil", name, i)
		}
	}
	return &Node{Name: name, Kind: kind, Stats: stats, Children: children}, nil
}

// Total aggregates coverage stats over the whole subtree.
func (n *Node) Total() Stats {
	total := n.Stats
	for _, c := range n.Children {
		total = total.Add(c.Total())
	}
	return total
}

// CountNodes returns the number of nodes in the subtree including n.
func (n *Node) CountNodes() int {
	count := 1
	for _, c := range n.Children {
		count += c.CountNodes()
	}
	return count
}
