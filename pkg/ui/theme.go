// Package ui provides the terminal user interface for covview.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/covview/covview/pkg/model"
)

// Color palette, Dracula-inspired.
var (
	ColorBg        = lipgloss.Color("#282A36")
	ColorBgSubtle  = lipgloss.Color("#363949")
	ColorText      = lipgloss.Color("#F8F8F2")
	ColorMuted     = lipgloss.Color("#6272A4")
	ColorPrimary   = lipgloss.Color("#BD93F9")
	ColorSecondary = lipgloss.Color("#8BE9FD")
	ColorHighlight = lipgloss.Color("#FF79C6")
	ColorSuccess   = lipgloss.Color("#50FA7B")
	ColorWarning   = lipgloss.Color("#FFB86C")
	ColorDanger    = lipgloss.Color("#FF5555")
)

// Coverage thresholds for the color ramp. Below Low is danger territory,
// between Low and High is warning, at or above High is healthy.
const (
	CoverageLowThreshold  = 0.5
	CoverageHighThreshold = 0.8
)

// Theme bundles the styles the views share. All styles are built from one
// renderer so output degrades correctly on dumb terminals.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Highlight lipgloss.Color
	Text      lipgloss.Color

	Selected  lipgloss.Style
	StatusBar lipgloss.Style
	Pane      lipgloss.Style
}

// DarkTheme returns the default theme bound to the given renderer.
func DarkTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	return Theme{
		Renderer:  r,
		Primary:   ColorPrimary,
		Secondary: ColorSecondary,
		Muted:     ColorMuted,
		Highlight: ColorHighlight,
		Text:      ColorText,
		Selected: r.NewStyle().
			Background(ColorBgSubtle).
			Foreground(ColorText).
			Bold(true),
		StatusBar: r.NewStyle().
			Foreground(ColorMuted),
		Pane: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted),
	}
}

// CoverageColor maps a coverage fraction onto the ramp.
func (t Theme) CoverageColor(pct float64) lipgloss.Color {
	switch {
	case pct < CoverageLowThreshold:
		return ColorDanger
	case pct < CoverageHighThreshold:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// KindIcon returns the single-cell icon for a node kind.
func (t Theme) KindIcon(kind model.NodeKind) (string, lipgloss.Color) {
	switch kind {
	case model.KindNamespace:
		return "▣", t.Primary
	case model.KindClass:
		return "◆", t.Secondary
	case model.KindMethod:
		return "λ", t.Highlight
	case model.KindData:
		return "≡", t.Muted
	default:
		return "•", t.Muted
	}
}
