package board

// Default rectangle for newly created widgets, in grid units.
const (
	DefaultWidgetW = 4
	DefaultWidgetH = 4
)

// LayoutPlacer assigns a collision-avoiding position to a new widget using
// sequential left-to-right, top-to-bottom flow placement. It is not a bin
// packer: gaps left by removed widgets are never reclaimed.
type LayoutPlacer struct {
	Cols int
}

// NewLayoutPlacer builds a placer for the given column count.
func NewLayoutPlacer(cols int) *LayoutPlacer {
	if cols <= 0 {
		cols = breakpointLG.Cols
	}
	return &LayoutPlacer{Cols: cols}
}

// Place computes the position for the next widget. widgets must be in
// insertion order; only the most-recently-added rectangle matters.
func (p *LayoutPlacer) Place(widgets []Widget) Position {
	next := Position{W: DefaultWidgetW, H: DefaultWidgetH}
	if len(widgets) == 0 {
		return next
	}
	last := widgets[len(widgets)-1].Position
	edge := last.X + last.W
	next.X = edge % p.Cols
	next.Y = last.Y + (edge/p.Cols)*next.H
	// Narrow grids can land the flow cursor past the right edge; wrap to the
	// next row so x+w <= cols always holds.
	if next.X+next.W > p.Cols {
		next.X = 0
		next.Y += next.H
	}
	return next
}
