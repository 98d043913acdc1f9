package drift

import (
	"testing"

	"github.com/covview/covview/pkg/model"
)

func node(t *testing.T, name string, kind model.NodeKind, stats model.Stats, children ...*model.Node) *model.Node {
	t.Helper()
	n, err := model.NewNode(name, kind, stats, children)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func tree(t *testing.T, files ...*model.Node) *model.Node {
	t.Helper()
	return node(t, "coverage", model.KindNamespace, model.Stats{},
		node(t, "pkg", model.KindNamespace, model.Stats{}, files...),
	)
}

func find(res Result, typ AlertType) *Alert {
	for i := range res.Alerts {
		if res.Alerts[i].Type == typ {
			return &res.Alerts[i]
		}
	}
	return nil
}

func TestCompareNoBaseline(t *testing.T) {
	curr := tree(t, node(t, "a.go", model.KindClass, model.Stats{Covered: 1, Total: 10}))
	if res := Compare(nil, curr); res.HasDrift {
		t.Error("first snapshot should not drift")
	}
}

func TestCompareUnchanged(t *testing.T) {
	prev := tree(t, node(t, "a.go", model.KindClass, model.Stats{Covered: 8, Total: 10}))
	curr := tree(t, node(t, "a.go", model.KindClass, model.Stats{Covered: 8, Total: 10}))
	if res := Compare(prev, curr); res.HasDrift {
		t.Errorf("unchanged snapshots should not drift, got %+v", res.Alerts)
	}
}

func TestCompareFileDrop(t *testing.T) {
	prev := tree(t,
		node(t, "a.go", model.KindClass, model.Stats{Covered: 9, Total: 10}),
		node(t, "b.go", model.KindClass, model.Stats{Covered: 10, Total: 10}),
	)
	curr := tree(t,
		node(t, "a.go", model.KindClass, model.Stats{Covered: 5, Total: 10}),
		node(t, "b.go", model.KindClass, model.Stats{Covered: 10, Total: 10}),
	)

	res := Compare(prev, curr)
	if !res.HasDrift {
		t.Fatal("expected drift")
	}

	a := find(res, AlertFileDrop)
	if a == nil {
		t.Fatal("expected a file drop alert")
	}
	if a.Path != "coverage/pkg/a.go" {
		t.Errorf("Path = %q", a.Path)
	}
	// 90% -> 50% exceeds the critical threshold.
	if a.Severity != SeverityCritical {
		t.Errorf("Severity = %q, want critical", a.Severity)
	}

	// 95% -> 75% overall also trips the critical overall alert.
	if o := find(res, AlertOverallDrop); o == nil {
		t.Error("expected an overall drop alert")
	} else if o.Severity != SeverityCritical {
		t.Errorf("overall Severity = %q, want critical", o.Severity)
	}
}

func TestCompareSmallDropIsWarning(t *testing.T) {
	prev := tree(t, node(t, "a.go", model.KindClass, model.Stats{Covered: 90, Total: 100}))
	curr := tree(t, node(t, "a.go", model.KindClass, model.Stats{Covered: 84, Total: 100}))

	res := Compare(prev, curr)
	a := find(res, AlertFileDrop)
	if a == nil {
		t.Fatal("expected a file drop alert")
	}
	if a.Severity != SeverityWarning {
		t.Errorf("Severity = %q, want warning", a.Severity)
	}
}

func TestCompareNewUncoveredFile(t *testing.T) {
	prev := tree(t, node(t, "a.go", model.KindClass, model.Stats{Covered: 8, Total: 10}))
	curr := tree(t,
		node(t, "a.go", model.KindClass, model.Stats{Covered: 8, Total: 10}),
		node(t, "new.go", model.KindClass, model.Stats{Covered: 0, Total: 7}),
	)

	res := Compare(prev, curr)
	a := find(res, AlertNewUncovered)
	if a == nil {
		t.Fatal("expected a new-uncovered alert")
	}
	if a.Path != "coverage/pkg/new.go" {
		t.Errorf("Path = %q", a.Path)
	}
}

func TestCompareRemovedFileIsInfo(t *testing.T) {
	prev := tree(t,
		node(t, "a.go", model.KindClass, model.Stats{Covered: 8, Total: 10}),
		node(t, "gone.go", model.KindClass, model.Stats{Covered: 2, Total: 4}),
	)
	curr := tree(t, node(t, "a.go", model.KindClass, model.Stats{Covered: 8, Total: 10}))

	res := Compare(prev, curr)
	a := find(res, AlertFileRemoved)
	if a == nil {
		t.Fatal("expected a removed alert")
	}
	if a.Severity != SeverityInfo {
		t.Errorf("Severity = %q, want info", a.Severity)
	}
	if len(res.Regressions()) != 0 {
		t.Errorf("info alerts should not count as regressions: %+v", res.Regressions())
	}
}
