package analysis

import (
	"math"
	"testing"

	"github.com/covview/covview/pkg/model"
)

func file(t *testing.T, name string, covered, total int) *model.Node {
	t.Helper()
	block, err := model.NewNode("L1-L2", model.KindMethod, model.Stats{Covered: covered, Total: total}, nil)
	if err != nil {
		t.Fatal(err)
	}
	f, err := model.NewNode(name, model.KindClass, model.Stats{}, []*model.Node{block})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// TestSummarize verifies the per-file distribution and the overall ratio.
func TestSummarize(t *testing.T) {
	pkg, err := model.NewNode("pkg", model.KindNamespace, model.Stats{}, []*model.Node{
		file(t, "a.go", 5, 10), // 0.5
		file(t, "b.go", 9, 10), // 0.9
		file(t, "c.go", 0, 10), // 0.0
		file(t, "d.go", 0, 0),  // uninstrumented, excluded from distribution
	})
	if err != nil {
		t.Fatal(err)
	}

	s := Summarize(pkg)
	if s.Files != 4 {
		t.Errorf("Files = %d, want 4", s.Files)
	}
	if want := 14.0 / 30.0; math.Abs(s.Overall-want) > 1e-9 {
		t.Errorf("Overall = %v, want %v", s.Overall, want)
	}
	if want := (0.5 + 0.9 + 0.0) / 3; math.Abs(s.Mean-want) > 1e-9 {
		t.Errorf("Mean = %v, want %v", s.Mean, want)
	}
	if s.Median != 0.5 {
		t.Errorf("Median = %v, want 0.5", s.Median)
	}
}

// TestSummarizeEmpty verifies degenerate inputs yield the zero summary.
func TestSummarizeEmpty(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("nil tree summary = %+v, want zero", s)
	}

	empty, err := model.NewNode("root", model.KindNamespace, model.Stats{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := Summarize(empty)
	if s.Files != 0 || s.Mean != 0 || s.Overall != 0 {
		t.Errorf("empty tree summary = %+v, want zero", s)
	}
}
