package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/covview/covview/pkg/analysis"
	"github.com/covview/covview/pkg/drift"
	"github.com/covview/covview/pkg/history"
	"github.com/covview/covview/pkg/model"
	"github.com/covview/covview/pkg/viewtree"
)

// Layout thresholds in columns.
const (
	SplitViewThreshold = 100
)

type focus int

const (
	focusTree focus = iota
	focusDetail
)

// Model is the root bubbletea model: tree pane, detail pane, jump overlay
// and status bar.
type Model struct {
	theme Theme

	tree     TreeModel
	viewport viewport.Model
	renderer *glamour.TermRenderer
	jump     jumpModel
	runs     runsModel

	viewRoot *viewtree.Node
	worker   *BackgroundWorker
	store    *history.Store
	summary  analysis.Summary
	drift    drift.Result
	trend    int

	// State
	focused     focus
	isSplitView bool
	showHelp    bool
	ready       bool
	status      string
	width       int
	height      int
}

// ModelConfig configures the root model. History is optional.
type ModelConfig struct {
	Theme    Theme
	StateDir string
	History  *history.Store
}

// NewModel creates the root model. The tree stays empty until the first
// SnapshotReadyMsg arrives from the worker.
func NewModel(cfg ModelConfig) Model {
	tree := NewTreeModel(cfg.Theme)
	tree.SetStateDir(cfg.StateDir)

	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return Model{
		theme:    cfg.Theme,
		tree:     tree,
		renderer: r,
		store:    cfg.History,
		focused:  focusTree,
		status:   "waiting for coverage data",
	}
}

// SetWorker attaches the background worker for manual refresh triggering.
func (m *Model) SetWorker(w *BackgroundWorker) {
	m.worker = w
}

// Root returns the current view tree root (nil before the first snapshot).
// Exposed for integration tests.
func (m *Model) Root() *viewtree.Node {
	return m.viewRoot
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.isSplitView = msg.Width >= SplitViewThreshold
		m.layout()
		m.refreshDetail()

	case SnapshotReadyMsg:
		if err := m.applySnapshot(msg.Root); err != nil {
			m.status = fmt.Sprintf("sync failed: %v", err)
		}

	case SnapshotErrorMsg:
		m.status = fmt.Sprintf("load error: %v", msg.Err)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// applySnapshot reconciles a new snapshot into the existing view tree, or
// builds the view tree on the first one.
func (m *Model) applySnapshot(root *model.Node) error {
	if m.viewRoot == nil {
		vr, err := viewtree.New(root)
		if err != nil {
			return err
		}
		m.viewRoot = vr
		m.tree.SetRoot(vr)
	} else {
		prev := m.viewRoot.Snapshot()
		if err := m.viewRoot.Synchronize(root); err != nil {
			return err
		}
		m.tree.Rebuild()
		m.drift = drift.Compare(prev, root)
	}

	m.summary = analysis.Summarize(root)
	if m.store != nil {
		total := root.Total()
		if err := m.store.Record(analysis.Fingerprint(root), total.Covered, total.Total); err == nil {
			m.trend, _ = m.store.Trend()
		}
	}

	m.refreshDetail()
	m.status = fmt.Sprintf("%d files, %.0f%% covered", m.summary.Files, m.summary.Overall*100)
	if regs := m.drift.Regressions(); len(regs) > 0 {
		// A file-level alert names the culprit; prefer it over the
		// aggregate drop.
		pick := regs[0]
		for _, a := range regs {
			if a.Path != "" {
				pick = a
				break
			}
		}
		m.status = fmt.Sprintf("%s — %s", m.status, pick.Message)
	}
	return nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.jump.active {
		if target := m.jump.handleKey(msg); target != nil {
			m.tree.JumpTo(target)
			m.refreshDetail()
		}
		return m, nil
	}

	if m.showHelp {
		switch msg.String() {
		case "esc", "?", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.runs.active {
		switch msg.String() {
		case "esc", "H", "q":
			m.runs.close()
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		if m.focused == focusDetail {
			m.viewport.LineDown(1)
		} else {
			m.tree.MoveDown()
			m.refreshDetail()
		}

	case "k", "up":
		if m.focused == focusDetail {
			m.viewport.LineUp(1)
		} else {
			m.tree.MoveUp()
			m.refreshDetail()
		}

	case "g", "home":
		m.tree.GotoTop()
		m.refreshDetail()

	case "G", "end":
		m.tree.GotoBottom()
		m.refreshDetail()

	case "enter", " ":
		m.tree.ToggleExpand()

	case "E":
		m.tree.ExpandAll()

	case "C":
		m.tree.CollapseAll()

	case "/":
		m.jump.open(m.viewRoot)

	case "?":
		m.showHelp = true

	case "H":
		m.runs.open(m.store)

	case "y":
		if node := m.tree.SelectedNode(); node != nil {
			path := nodePath(node)
			if err := clipboard.WriteAll(path); err != nil {
				m.status = fmt.Sprintf("yank failed: %v", err)
			} else {
				m.status = fmt.Sprintf("yanked %s", path)
			}
		}

	case "r":
		if m.worker != nil {
			m.worker.TriggerRefresh()
			m.status = "refreshing…"
		}

	case "tab":
		if m.isSplitView {
			if m.focused == focusTree {
				m.focused = focusDetail
			} else {
				m.focused = focusTree
			}
		}
	}

	return m, nil
}

// layout distributes the window between the panes.
func (m *Model) layout() {
	contentHeight := m.height - 2 // status bar + header
	if contentHeight < 1 {
		contentHeight = 1
	}

	if m.isSplitView {
		treeWidth := m.width / 2
		m.tree.SetSize(treeWidth, contentHeight)
		m.viewport = viewport.New(m.width-treeWidth-2, contentHeight)
	} else {
		m.tree.SetSize(m.width, contentHeight)
		m.viewport = viewport.New(m.width, contentHeight)
	}
}

// refreshDetail re-renders the detail pane for the selected node.
func (m *Model) refreshDetail() {
	node := m.tree.SelectedNode()
	if node == nil || m.renderer == nil {
		m.viewport.SetContent("")
		return
	}

	out, err := m.renderer.Render(detailMarkdown(node))
	if err != nil {
		out = detailMarkdown(node)
	}
	m.viewport.SetContent(out)
}

// detailMarkdown builds the markdown shown in the detail pane.
func detailMarkdown(n *viewtree.Node) string {
	snap := n.Snapshot()
	total := snap.Total()

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", n.FlatName())
	fmt.Fprintf(&sb, "- kind: %s\n", snap.Kind)
	fmt.Fprintf(&sb, "- path: `%s`\n", nodePath(n))
	if total.Total > 0 {
		fmt.Fprintf(&sb, "- coverage: %d/%d statements (%.1f%%)\n", total.Covered, total.Total, total.Percent()*100)
	} else {
		sb.WriteString("- coverage: no instrumented statements\n")
	}

	if n.VisibleChildren().Len() > 0 {
		sb.WriteString("\n## Children\n\n")
		sb.WriteString("| name | kind | coverage |\n|---|---|---|\n")
		kids := n.VisibleChildren()
		for i := 0; i < kids.Len(); i++ {
			child := kids.At(i)
			ct := child.Snapshot().Total()
			cov := "—"
			if ct.Total > 0 {
				cov = fmt.Sprintf("%.1f%%", ct.Percent()*100)
			}
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", child.FlatName(), child.Kind(), cov)
		}
	}

	return sb.String()
}

func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}

	var body string
	if m.isSplitView {
		detail := m.theme.Pane.Render(m.viewport.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.tree.View(), detail)
	} else {
		body = m.tree.View()
	}

	switch {
	case m.jump.active:
		body = lipgloss.JoinVertical(lipgloss.Left, m.jump.view(m.theme, m.width), body)
	case m.showHelp:
		body = lipgloss.JoinVertical(lipgloss.Left, renderHelp(m.theme, m.width), body)
	case m.runs.active:
		body = lipgloss.JoinVertical(lipgloss.Left, m.runs.view(m.theme, m.width), body)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar())
}

// statusBar renders the footer: status, distribution, trend, key hints.
func (m Model) statusBar() string {
	trend := ""
	switch m.trend {
	case 1:
		trend = " ↑"
	case -1:
		trend = " ↓"
	}

	left := m.status + trend
	right := "j/k move · enter toggle · / jump · ? help · q quit"
	if m.summary.Files > 0 {
		right = fmt.Sprintf("mean %.0f%% · median %.0f%% · %s",
			m.summary.Mean*100, m.summary.Median*100, right)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}
