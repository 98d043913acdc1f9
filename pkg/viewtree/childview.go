package viewtree

// ChildView re-exposes some List as a node's externally visible children.
// Normally the target is the node's own child list; for a flattenable node
// it is redirected at the tail of the single-child namespace chain. The
// view re-broadcasts the target's change events as its own, so consumers
// can stay subscribed across retargets.
type ChildView struct {
	target *List
	unsub  func()

	nextID    int
	listeners map[int]Listener
}

// NewChildView creates a view over target.
func NewChildView(target *List) *ChildView {
	v := &ChildView{listeners: make(map[int]Listener)}
	v.attach(target)
	return v
}

// Target returns the list currently backing the view.
func (v *ChildView) Target() *List { return v.target }

// Len returns the visible element count.
func (v *ChildView) Len() int { return v.target.Len() }

// At returns the visible element at index i.
func (v *ChildView) At(i int) *Node { return v.target.At(i) }

// Items returns a copy of the visible elements in order.
func (v *ChildView) Items() []*Node { return v.target.Items() }

// Retarget switches the view to a different list. Consumers are notified
// as if every previously visible element were removed and every newly
// visible element added; retargets are rare (structural change only), so
// the full refresh is cheaper than diffing across unrelated lists.
func (v *ChildView) Retarget(target *List) {
	if target == v.target {
		return
	}
	old := v.target.Items()
	v.unsub()
	v.attach(target)
	v.notify(Change{Removed: old, Added: target.Items()})
}

// Subscribe registers fn for change events and returns an unsubscribe
// function.
func (v *ChildView) Subscribe(fn Listener) func() {
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	return func() { delete(v.listeners, id) }
}

func (v *ChildView) attach(target *List) {
	v.target = target
	v.unsub = target.Subscribe(v.notify)
}

func (v *ChildView) notify(ch Change) {
	fns := make([]Listener, 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	for _, fn := range fns {
		fn(ch)
	}
}
