package viewtree

// Change describes a single structural mutation of a List. Exactly one of
// Added/Removed is populated per mutating call, except for a facade
// retarget, which reports the full old set as removed and the full new set
// as added in one event.
type Change struct {
	Added   []*Node
	Removed []*Node
}

// Listener receives change events. Listeners run synchronously on the
// mutating goroutine, before the mutating call returns. A listener must not
// mutate the same collection from inside the callback.
type Listener func(Change)

// List is a sequence of view nodes kept sorted at all times. All insertions
// go through InsertSorted; external code never places an element directly.
type List struct {
	items []*Node
	cmp   func(a, b *Node) int

	nextID    int
	listeners map[int]Listener
}

// NewList creates an empty sorted list ordered by cmp.
func NewList(cmp func(a, b *Node) int) *List {
	return &List{cmp: cmp, listeners: make(map[int]Listener)}
}

// Len returns the number of elements.
func (l *List) Len() int { return len(l.items) }

// At returns the element at index i.
func (l *List) At(i int) *Node { return l.items[i] }

// Items returns a copy of the current elements in order.
func (l *List) Items() []*Node {
	out := make([]*Node, len(l.items))
	copy(out, l.items)
	return out
}

// IndexOf returns the index of n by reference identity, or -1.
func (l *List) IndexOf(n *Node) int {
	for i, item := range l.items {
		if item == n {
			return i
		}
	}
	return -1
}

// Add inserts n in sorted position. Equal-comparing elements keep stable
// insertion order (KeepBoth).
func (l *List) Add(n *Node) {
	l.items = InsertSorted(l.items, n, l.cmp, KeepBoth)
	l.notify(Change{Added: []*Node{n}})
}

// Remove deletes the first element equal to n by reference identity and
// reports whether anything was removed.
func (l *List) Remove(n *Node) bool {
	i := l.IndexOf(n)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.notify(Change{Removed: []*Node{n}})
	return true
}

// Subscribe registers fn for change events and returns an unsubscribe
// function.
func (l *List) Subscribe(fn Listener) func() {
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	return func() { delete(l.listeners, id) }
}

func (l *List) notify(ch Change) {
	// Snapshot the handler set so an unsubscribe during dispatch is safe.
	// Re-entrant mutation of the list itself is unsupported.
	fns := make([]Listener, 0, len(l.listeners))
	for _, fn := range l.listeners {
		fns = append(fns, fn)
	}
	for _, fn := range fns {
		fn(ch)
	}
}
