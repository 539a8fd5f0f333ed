package board

import "sort"

// Breakpoint is a named responsive layout configuration.
type Breakpoint struct {
	Name     string
	MinWidth int
	Cols     int
}

var (
	breakpointLG = Breakpoint{Name: "lg", MinWidth: 1200, Cols: 12}
	breakpointMD = Breakpoint{Name: "md", MinWidth: 996, Cols: 10}
	breakpointSM = Breakpoint{Name: "sm", MinWidth: 768, Cols: 6}
	breakpointXS = Breakpoint{Name: "xs", MinWidth: 480, Cols: 4}
)

// Breakpoints returns the breakpoint table, widest first.
func Breakpoints() []Breakpoint {
	return []Breakpoint{breakpointLG, breakpointMD, breakpointSM, breakpointXS}
}

// BreakpointFor maps a viewport width to its breakpoint. Widths below the xs
// threshold still stack as xs.
func BreakpointFor(viewportWidth int) Breakpoint {
	for _, bp := range Breakpoints() {
		if viewportWidth >= bp.MinWidth {
			return bp
		}
	}
	return breakpointXS
}

// BreakpointByName looks up a breakpoint by its short name.
func BreakpointByName(name string) (Breakpoint, bool) {
	for _, bp := range Breakpoints() {
		if bp.Name == name {
			return bp, true
		}
	}
	return Breakpoint{}, false
}

// Minimum widget dimensions enforced on every breakpoint.
const (
	MinWidgetW = 2
	MinWidgetH = 3
)

// PositionChange is one entry of an interactive layout batch.
type PositionChange struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
	W  int    `json:"w"`
	H  int    `json:"h"`
}

// GridLayoutManager maintains widget positions across breakpoints and
// reconciles drag/resize mutations. Collision prevention is disabled during
// interaction: overlapping widgets are repositioned by compaction rather than
// having the move rejected.
type GridLayoutManager struct{}

// NewGridLayoutManager builds a manager.
func NewGridLayoutManager() *GridLayoutManager {
	return &GridLayoutManager{}
}

// Reconcile applies an interactive layout batch against the stored widgets
// and returns only the entries whose rectangle actually changed, so callers
// avoid redundant store writes and downstream re-renders.
func (m *GridLayoutManager) Reconcile(widgets []Widget, batch []PositionChange, bp Breakpoint) []PositionChange {
	current := make(map[string]Position, len(widgets))
	for _, w := range widgets {
		current[w.ID] = w.Position
	}
	var changed []PositionChange
	for _, entry := range batch {
		stored, ok := current[entry.ID]
		if !ok {
			continue
		}
		next := m.clamp(Position{X: entry.X, Y: entry.Y, W: entry.W, H: entry.H}, bp)
		if stored.Equal(next) {
			continue
		}
		changed = append(changed, PositionChange{ID: entry.ID, X: next.X, Y: next.Y, W: next.W, H: next.H})
	}
	return changed
}

// ApplyBreakpoint re-caps every widget rectangle for the target breakpoint
// and compacts the result. Returned entries cover only widgets whose
// rectangle changed.
func (m *GridLayoutManager) ApplyBreakpoint(widgets []Widget, bp Breakpoint) []PositionChange {
	adjusted := make([]Widget, len(widgets))
	copy(adjusted, widgets)
	for i := range adjusted {
		adjusted[i].Position = m.clamp(adjusted[i].Position, bp)
	}
	m.Compact(adjusted)
	var changed []PositionChange
	for i, w := range adjusted {
		if widgets[i].Position.Equal(w.Position) {
			continue
		}
		p := w.Position
		changed = append(changed, PositionChange{ID: w.ID, X: p.X, Y: p.Y, W: p.W, H: p.H})
	}
	return changed
}

// Compact gravitates widgets upward, eliminating empty vertical gaps and
// pushing overlapping widgets down instead of rejecting the layout. Widgets
// are mutated in place.
func (m *GridLayoutManager) Compact(widgets []Widget) {
	order := make([]int, len(widgets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := widgets[order[a]].Position, widgets[order[b]].Position
		if pa.Y != pb.Y {
			return pa.Y < pb.Y
		}
		return pa.X < pb.X
	})
	var placed []Position
	for _, idx := range order {
		pos := widgets[idx].Position
		for pos.Y > 0 && !collides(pos.X, pos.Y-1, pos.W, pos.H, placed) {
			pos.Y--
		}
		for collides(pos.X, pos.Y, pos.W, pos.H, placed) {
			pos.Y++
		}
		widgets[idx].Position = pos
		placed = append(placed, pos)
	}
}

func collides(x, y, w, h int, placed []Position) bool {
	candidate := Position{X: x, Y: y, W: w, H: h}
	for _, p := range placed {
		if candidate.Overlaps(p) {
			return true
		}
	}
	return false
}

// clamp enforces the per-breakpoint width caps and position invariants:
// x>=0, y>=0, w>=2, h>=3, x+w <= cols. The xs breakpoint forces full
// stacking (w=4, x=0).
func (m *GridLayoutManager) clamp(pos Position, bp Breakpoint) Position {
	if pos.X < 0 {
		pos.X = 0
	}
	if pos.Y < 0 {
		pos.Y = 0
	}
	if pos.W < MinWidgetW {
		pos.W = MinWidgetW
	}
	if pos.H < MinWidgetH {
		pos.H = MinWidgetH
	}
	switch bp.Name {
	case "sm":
		if pos.W > breakpointSM.Cols {
			pos.W = breakpointSM.Cols
		}
	case "xs":
		pos.W = breakpointXS.Cols
		pos.X = 0
	}
	if pos.W > bp.Cols {
		pos.W = bp.Cols
	}
	if pos.X+pos.W > bp.Cols {
		pos.X = bp.Cols - pos.W
	}
	return pos
}
