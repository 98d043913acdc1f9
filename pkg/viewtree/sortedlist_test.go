package viewtree

import (
	"testing"

	"github.com/covview/covview/pkg/model"
)

// snap builds a snapshot node for tests, failing fast on invalid input.
func snap(t *testing.T, name string, kind model.NodeKind, children ...*model.Node) *model.Node {
	t.Helper()
	n, err := model.NewNode(name, kind, model.Stats{}, children)
	if err != nil {
		t.Fatalf("build snapshot %q: %v", name, err)
	}
	return n
}

// view builds a view tree for tests.
func view(t *testing.T, snapshot *model.Node) *Node {
	t.Helper()
	root, err := New(snapshot)
	if err != nil {
		t.Fatalf("build view tree: %v", err)
	}
	return root
}

// names collects the display names of a list in order.
func names(l *List) []string {
	out := make([]string, 0, l.Len())
	for i := 0; i < l.Len(); i++ {
		out = append(out, l.At(i).DisplayName())
	}
	return out
}

// TestListCaseInsensitiveOrder verifies "Beta", "alpha", "Gamma" sort as
// alpha, Beta, Gamma regardless of insertion order.
func TestListCaseInsensitiveOrder(t *testing.T) {
	orders := [][]string{
		{"Beta", "alpha", "Gamma"},
		{"Gamma", "Beta", "alpha"},
		{"alpha", "Gamma", "Beta"},
	}

	for _, order := range orders {
		kids := make([]*model.Node, len(order))
		for i, name := range order {
			kids[i] = snap(t, name, model.KindClass)
		}
		root := view(t, snap(t, "pkg", model.KindNamespace, kids...))

		got := names(root.Children())
		want := []string{"alpha", "Beta", "Gamma"}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("insertion order %v: children[%d] = %q, want %q", order, i, got[i], want[i])
			}
		}
	}
}

// TestListEvents verifies one synchronous event per mutation with the
// changed element set.
func TestListEvents(t *testing.T) {
	l := NewList(ByDisplayName)
	var events []Change
	l.Subscribe(func(ch Change) { events = append(events, ch) })

	a := build(snap(t, "a", model.KindClass), nil)
	l.Add(a)

	if len(events) != 1 {
		t.Fatalf("expected 1 event after Add, got %d", len(events))
	}
	if len(events[0].Added) != 1 || events[0].Added[0] != a || len(events[0].Removed) != 0 {
		t.Errorf("Add event = %+v, want single added element", events[0])
	}

	if !l.Remove(a) {
		t.Fatal("Remove returned false for present element")
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events after Remove, got %d", len(events))
	}
	if len(events[1].Removed) != 1 || events[1].Removed[0] != a || len(events[1].Added) != 0 {
		t.Errorf("Remove event = %+v, want single removed element", events[1])
	}

	if l.Remove(a) {
		t.Error("Remove should return false for absent element")
	}
	if len(events) != 2 {
		t.Errorf("no event expected for no-op Remove, got %d events", len(events))
	}
}

// TestListRemoveByIdentity verifies Remove matches by reference, not by
// name, when duplicates exist.
func TestListRemoveByIdentity(t *testing.T) {
	root := view(t, snap(t, "pkg", model.KindNamespace,
		snap(t, "dup", model.KindClass),
		snap(t, "dup", model.KindClass),
	))

	l := root.Children()
	if l.Len() != 2 {
		t.Fatalf("expected 2 children, got %d", l.Len())
	}
	second := l.At(1)
	second.Detach()

	if l.Len() != 1 {
		t.Fatalf("expected 1 child after detach, got %d", l.Len())
	}
	if l.At(0) == second {
		t.Error("wrong instance removed: remaining child is the detached one")
	}
}

// TestListUnsubscribe verifies listeners stop receiving events after the
// returned unsubscribe runs.
func TestListUnsubscribe(t *testing.T) {
	l := NewList(ByDisplayName)
	count := 0
	unsub := l.Subscribe(func(Change) { count++ })

	l.Add(build(snap(t, "a", model.KindClass), nil))
	unsub()
	l.Add(build(snap(t, "b", model.KindClass), nil))

	if count != 1 {
		t.Errorf("expected 1 event before unsubscribe, got %d", count)
	}
}
