package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/covview/covview/pkg/viewtree"
)

// jumpMaxResults caps the overlay height.
const jumpMaxResults = 12

// jumpModel is the fuzzy jump-to-node overlay. Candidates are the
// structural paths of every node in the tree; selecting one moves the
// tree cursor there, expanding ancestors as needed.
type jumpModel struct {
	active  bool
	query   string
	items   []string
	nodes   []*viewtree.Node
	matches []fuzzy.Match
	sel     int
}

// open collects candidates from the current tree and activates the
// overlay.
func (j *jumpModel) open(root *viewtree.Node) {
	j.items = j.items[:0]
	j.nodes = j.nodes[:0]
	if root != nil {
		for n := range root.Walk() {
			j.items = append(j.items, nodePath(n))
			j.nodes = append(j.nodes, n)
		}
	}
	j.active = true
	j.query = ""
	j.sel = 0
	j.refilter()
}

func (j *jumpModel) close() {
	j.active = false
}

// selected returns the node under the overlay cursor, or nil.
func (j *jumpModel) selected() *viewtree.Node {
	if j.sel < 0 || j.sel >= len(j.matches) {
		return nil
	}
	return j.nodes[j.matches[j.sel].Index]
}

// handleKey processes one key while the overlay is open. It returns the
// node to jump to when the user confirms a selection.
func (j *jumpModel) handleKey(msg tea.KeyMsg) *viewtree.Node {
	switch msg.String() {
	case "esc":
		j.close()
	case "enter":
		target := j.selected()
		j.close()
		return target
	case "up", "ctrl+k":
		if j.sel > 0 {
			j.sel--
		}
	case "down", "ctrl+j":
		if j.sel < len(j.matches)-1 {
			j.sel++
		}
	case "backspace":
		if len(j.query) > 0 {
			j.query = j.query[:len(j.query)-1]
			j.refilter()
		}
	default:
		if msg.Type == tea.KeyRunes {
			j.query += string(msg.Runes)
			j.refilter()
		}
	}
	return nil
}

// refilter recomputes matches for the current query. An empty query shows
// every candidate in tree order.
func (j *jumpModel) refilter() {
	j.sel = 0
	if j.query == "" {
		j.matches = j.matches[:0]
		for i := range j.items {
			j.matches = append(j.matches, fuzzy.Match{Str: j.items[i], Index: i})
		}
		return
	}
	j.matches = fuzzy.Find(j.query, j.items)
}

// view renders the overlay box.
func (j *jumpModel) view(theme Theme, width int) string {
	r := theme.Renderer

	var sb strings.Builder
	promptStyle := r.NewStyle().Foreground(theme.Primary).Bold(true)
	sb.WriteString(promptStyle.Render("jump: "))
	sb.WriteString(j.query)
	sb.WriteString("\n")

	shown := len(j.matches)
	if shown > jumpMaxResults {
		shown = jumpMaxResults
	}
	for i := 0; i < shown; i++ {
		line := j.matches[i].Str
		if i == j.sel {
			line = theme.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(j.matches) == 0 {
		sb.WriteString(r.NewStyle().Foreground(theme.Muted).Render("  no matches"))
		sb.WriteString("\n")
	} else if len(j.matches) > shown {
		sb.WriteString(r.NewStyle().Foreground(theme.Muted).
			Render(fmt.Sprintf("  … %d more", len(j.matches)-shown)))
		sb.WriteString("\n")
	}

	boxWidth := width - 4
	if boxWidth < 20 {
		boxWidth = 20
	}
	return theme.Pane.Width(boxWidth).Render(sb.String())
}
