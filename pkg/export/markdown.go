package export

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/covview/covview/pkg/analysis"
	"github.com/covview/covview/pkg/model"
)

// fileEntry is one row of the per-file table.
type fileEntry struct {
	path  string
	stats model.Stats
}

// collectFiles walks the snapshot and returns every file with its
// aggregated stats, worst coverage first.
func collectFiles(root *model.Node) []fileEntry {
	var out []fileEntry
	var walk func(n *model.Node, path string)
	walk = func(n *model.Node, path string) {
		if n.Kind == model.KindClass {
			out = append(out, fileEntry{path: path, stats: n.Total()})
			return
		}
		for _, c := range n.Children {
			walk(c, path+"/"+c.Name)
		}
	}
	for _, c := range root.Children {
		walk(c, c.Name)
	}

	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].stats.Percent(), out[j].stats.Percent()
		if pi != pj {
			return pi < pj
		}
		return out[i].path < out[j].path
	})
	return out
}

// GenerateMarkdown creates a markdown coverage report for the snapshot.
func GenerateMarkdown(root *model.Node, title string) (string, error) {
	if root == nil {
		return "", fmt.Errorf("nil snapshot")
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC1123)))

	sum := analysis.Summarize(root)
	total := root.Total()

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Overall**: %.1f%% (%d of %d statements)\n",
		sum.Overall*100, total.Covered, total.Total))
	sb.WriteString(fmt.Sprintf("- **Files**: %d\n", sum.Files))
	sb.WriteString(fmt.Sprintf("- **Mean file coverage**: %.1f%%\n", sum.Mean*100))
	sb.WriteString(fmt.Sprintf("- **Median file coverage**: %.1f%%\n\n", sum.Median*100))

	files := collectFiles(root)

	sb.WriteString("## Files\n\n")
	sb.WriteString("| File | Coverage | Statements |\n")
	sb.WriteString("|---|---|---|\n")
	for _, f := range files {
		cov := "n/a"
		if f.stats.Total > 0 {
			cov = fmt.Sprintf("%.1f%%", f.stats.Percent()*100)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d/%d |\n",
			f.path, cov, f.stats.Covered, f.stats.Total))
	}
	sb.WriteString("\n")

	// Call out the files most in need of attention.
	var worst []fileEntry
	for _, f := range files {
		if f.stats.Total > 0 && f.stats.Percent() < 0.5 {
			worst = append(worst, f)
		}
	}
	if len(worst) > 0 {
		sb.WriteString("## Needs Attention\n\n")
		for _, f := range worst {
			sb.WriteString(fmt.Sprintf("- **%s**: %.1f%% (%d uncovered statements)\n",
				f.path, f.stats.Percent()*100, f.stats.Total-f.stats.Covered))
		}
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

// SaveMarkdownToFile writes the generated report to a file.
func SaveMarkdownToFile(root *model.Node, filename string) error {
	content, err := GenerateMarkdown(root, "Coverage Report")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}
