// Package export renders coverage snapshots to shareable artifacts.
package export

import (
	"fmt"
	"io"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/covview/covview/pkg/model"
)

// Treemap export colors, matching the TUI coverage ramp.
const (
	fillDanger  = "#FF5555"
	fillWarning = "#FFB86C"
	fillSuccess = "#50FA7B"
	fillEmpty   = "#6272A4"
	strokeColor = "#282A36"
	textColor   = "#F8F8F2"
)

// minLabelWidth is the narrowest cell that still gets a text label.
const minLabelWidth = 60

// WriteTreemap renders a slice-and-dice treemap of the snapshot as SVG.
// Cell area is proportional to instrumented statements; fill follows the
// coverage ramp. Files are the leaves; namespaces only contribute layout.
func WriteTreemap(w io.Writer, root *model.Node, width, height int) error {
	if root == nil {
		return fmt.Errorf("nil snapshot")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", width, height)
	}

	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:"+strokeColor)
	layoutNode(canvas, root, 0, 0, width, height, true)
	canvas.End()
	return nil
}

// WriteTreemapFile renders the treemap into a file.
func WriteTreemapFile(path string, root *model.Node, width, height int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create treemap file: %w", err)
	}
	if err := WriteTreemap(f, root, width, height); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// layoutNode slices the rectangle among the node's weighted children,
// alternating split direction per level.
func layoutNode(canvas *svg.SVG, n *model.Node, x, y, w, h int, horizontal bool) {
	if n.Kind == model.KindClass || len(n.Children) == 0 {
		drawCell(canvas, n, x, y, w, h)
		return
	}

	total := 0
	for _, c := range n.Children {
		total += c.Total().Total
	}
	if total == 0 {
		drawCell(canvas, n, x, y, w, h)
		return
	}

	offset := 0
	span := w
	if !horizontal {
		span = h
	}
	for i, c := range n.Children {
		weight := c.Total().Total
		if weight == 0 {
			continue
		}
		size := span * weight / total
		// The last weighted child absorbs rounding leftovers.
		if i == len(n.Children)-1 {
			size = span - offset
		}
		if size <= 0 {
			continue
		}
		if horizontal {
			layoutNode(canvas, c, x+offset, y, size, h, false)
		} else {
			layoutNode(canvas, c, x, y+offset, w, size, true)
		}
		offset += size
	}
}

// drawCell renders one leaf rectangle with an optional label.
func drawCell(canvas *svg.SVG, n *model.Node, x, y, w, h int) {
	total := n.Total()
	canvas.Rect(x, y, w, h,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", coverageFill(total), strokeColor))

	if w >= minLabelWidth && h >= 14 {
		label := n.Name
		if total.Total > 0 {
			label = fmt.Sprintf("%s %.0f%%", n.Name, total.Percent()*100)
		}
		canvas.Text(x+4, y+12, label,
			fmt.Sprintf("fill:%s;font-size:10px;font-family:monospace", textColor))
	}
}

// coverageFill maps subtree stats onto the ramp.
func coverageFill(s model.Stats) string {
	if s.Total == 0 {
		return fillEmpty
	}
	switch pct := s.Percent(); {
	case pct < 0.5:
		return fillDanger
	case pct < 0.8:
		return fillWarning
	default:
		return fillSuccess
	}
}
