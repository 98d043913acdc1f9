package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/covview/covview/pkg/history"
)

// runsMaxRows bounds the overlay height.
const runsMaxRows = 15

// runsModel is the recent-runs overlay, fed from the run history store.
type runsModel struct {
	active bool
	runs   []history.Run
	err    error
}

// open loads the most recent runs. A nil store leaves the overlay empty
// but still usable.
func (r *runsModel) open(store *history.Store) {
	r.active = true
	r.runs = nil
	r.err = nil
	if store == nil {
		return
	}
	r.runs, r.err = store.Recent(runsMaxRows)
}

func (r *runsModel) close() {
	r.active = false
}

// view renders the overlay box.
func (r *runsModel) view(theme Theme, width int) string {
	rd := theme.Renderer

	modalWidth := 56
	if modalWidth > width-4 {
		modalWidth = width - 4
	}

	titleStyle := rd.NewStyle().Bold(true).Foreground(theme.Primary)
	rowStyle := rd.NewStyle().Foreground(theme.Text)
	mutedStyle := rd.NewStyle().Foreground(theme.Muted)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent Runs"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", modalWidth-6)))
	b.WriteString("\n")

	switch {
	case r.err != nil:
		b.WriteString(mutedStyle.Render(fmt.Sprintf("history unavailable: %v", r.err)))
	case len(r.runs) == 0:
		b.WriteString(mutedStyle.Render("no runs recorded yet"))
	default:
		for i, run := range r.runs {
			// Compare against the chronologically previous run.
			arrow := " "
			if i+1 < len(r.runs) {
				prev := r.runs[i+1]
				switch {
				case run.Percent() > prev.Percent():
					arrow = "↑"
				case run.Percent() < prev.Percent():
					arrow = "↓"
				}
			}
			line := fmt.Sprintf("%s %s %5.1f%%  %d/%d",
				run.CreatedAt.Format("Jan 02 15:04"), arrow,
				run.Percent()*100, run.Covered, run.Total)
			b.WriteString(rowStyle.Render(line))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Esc or H to close"))

	modalStyle := rd.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth)

	return modalStyle.Render(b.String())
}
