// Package viewtree keeps a mutable, sorted, observable tree of view nodes
// mirrored against the immutable coverage snapshot tree produced by the
// loader. The snapshot side is rebuilt wholesale after every rescan; the
// view side is reconciled incrementally so that expansion and selection
// state survive for unchanged subtrees.
package viewtree

// DupPolicy controls what InsertSorted does when the element immediately
// preceding the insertion point compares equal to the new element.
type DupPolicy int

const (
	// KeepBoth inserts the new element after the equal one.
	KeepBoth DupPolicy = iota
	// Replace removes the equal element and puts the new one in its place.
	Replace
	// Ignore discards the new element and leaves the slice unchanged.
	Ignore
)

// InsertSorted inserts v into the already-sorted slice s at the first
// position where every preceding element compares <= v, and returns the
// updated slice. The scan is linear and stable: equal elements keep
// insertion order under KeepBoth. Equality is defined entirely by cmp;
// callers must pass a comparison consistent with their notion of duplicate.
func InsertSorted[T any](s []T, v T, cmp func(a, b T) int, policy DupPolicy) []T {
	i := 0
	for i < len(s) && cmp(s[i], v) <= 0 {
		i++
	}

	if i > 0 && cmp(s[i-1], v) == 0 {
		switch policy {
		case Replace:
			s[i-1] = v
			return s
		case Ignore:
			return s
		}
	}

	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
