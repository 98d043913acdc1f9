// Package analysis computes summary statistics over coverage trees.
package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/covview/covview/pkg/model"
)

// Summary describes the distribution of per-file coverage in a snapshot.
// Files with no instrumented statements are excluded from the
// distribution but not from the file count.
type Summary struct {
	Files   int     // instrumented files in the tree
	Overall float64 // covered/total statements across the whole tree
	Mean    float64 // mean of per-file coverage fractions
	Median  float64
	P25     float64
	P75     float64
}

// Summarize walks a snapshot tree and computes its coverage distribution.
// A nil or empty tree yields the zero Summary.
func Summarize(root *model.Node) Summary {
	if root == nil {
		return Summary{}
	}

	var fractions []float64
	var files int
	var walk func(n *model.Node)
	walk = func(n *model.Node) {
		if n.Kind == model.KindClass {
			files++
			if total := n.Total(); total.Total > 0 {
				fractions = append(fractions, total.Percent())
			}
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)

	s := Summary{
		Files:   files,
		Overall: root.Total().Percent(),
	}
	if len(fractions) == 0 {
		return s
	}

	// Quantile needs sorted input.
	sort.Float64s(fractions)
	s.Mean = stat.Mean(fractions, nil)
	s.Median = stat.Quantile(0.5, stat.Empirical, fractions, nil)
	s.P25 = stat.Quantile(0.25, stat.Empirical, fractions, nil)
	s.P75 = stat.Quantile(0.75, stat.Empirical, fractions, nil)
	return s
}
