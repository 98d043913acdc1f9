package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// helpContent is the quick-reference shown by the "?" overlay. It must
// fit on one screen without scrolling.
const helpContent = `j / k       move selection
g / G       jump to top / bottom
enter       expand or collapse
E / C       expand all / collapse all
/           fuzzy jump to a node
y           yank node path to clipboard
H           recent coverage runs
tab         switch pane focus (wide layouts)
r           rebuild from the profile now
?           toggle this help
q           quit`

// renderHelp renders the quick-reference modal.
func renderHelp(theme Theme, width int) string {
	r := theme.Renderer

	modalWidth := 48
	if modalWidth > width-4 {
		modalWidth = width - 4
	}

	titleStyle := r.NewStyle().
		Bold(true).
		Foreground(theme.Primary)
	contentStyle := r.NewStyle().
		Foreground(theme.Text)
	footerStyle := r.NewStyle().
		Foreground(theme.Muted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Muted).Render(strings.Repeat("─", modalWidth-6)))
	b.WriteString("\n\n")
	b.WriteString(contentStyle.Render(helpContent))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("Esc or ? to close"))

	modalStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth)

	return modalStyle.Render(b.String())
}
