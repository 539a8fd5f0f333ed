package board

import (
	"context"
	"time"
)

// WidgetType enumerates the supported visualization kinds.
type WidgetType string

const (
	WidgetTypePie     WidgetType = "pie"
	WidgetTypeBar     WidgetType = "bar"
	WidgetTypeLine    WidgetType = "line"
	WidgetTypeMetric  WidgetType = "metric"
	WidgetTypeTable   WidgetType = "table"
	WidgetTypeArea    WidgetType = "area"
	WidgetTypeScatter WidgetType = "scatter"
)

// WidgetTypes returns the supported widget types in display order.
func WidgetTypes() []WidgetType {
	return []WidgetType{
		WidgetTypePie,
		WidgetTypeBar,
		WidgetTypeLine,
		WidgetTypeMetric,
		WidgetTypeTable,
		WidgetTypeArea,
		WidgetTypeScatter,
	}
}

// Valid reports whether the widget type is one of the supported kinds.
func (t WidgetType) Valid() bool {
	switch t {
	case WidgetTypePie, WidgetTypeBar, WidgetTypeLine, WidgetTypeMetric,
		WidgetTypeTable, WidgetTypeArea, WidgetTypeScatter:
		return true
	}
	return false
}

// Position is a widget rectangle on the grid, measured in grid units.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Equal reports whether two positions describe the same rectangle.
func (p Position) Equal(other Position) bool {
	return p.X == other.X && p.Y == other.Y && p.W == other.W && p.H == other.H
}

// Overlaps reports whether two rectangles intersect.
func (p Position) Overlaps(other Position) bool {
	if p.X+p.W <= other.X || other.X+other.W <= p.X {
		return false
	}
	if p.Y+p.H <= other.Y || other.Y+other.H <= p.Y {
		return false
	}
	return true
}

// QueryResult is the payload returned by the query backend for one fetch.
type QueryResult struct {
	Data  []map[string]any `json:"data"`
	Total int              `json:"total"`
	Took  time.Duration    `json:"took"`
}

// Empty reports whether the result carries no rows.
func (r *QueryResult) Empty() bool {
	return r == nil || len(r.Data) == 0
}

// WidgetData bundles the query and its cached results.
type WidgetData struct {
	Query       map[string]any `json:"query"`
	Results     *QueryResult   `json:"results,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
	LastUpdated time.Time      `json:"last_updated,omitzero"`
}

// WidgetMetadata tracks record lifecycle counters.
type WidgetMetadata struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// Widget is the record describing one visualization. The index is bound at
// creation time; widgets never inherit an ambient "currently selected index".
type Widget struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Type           WidgetType     `json:"type"`
	Position       Position       `json:"position"`
	Index          string         `json:"index"`
	FixedTimeRange *TimeRange     `json:"fixedTimeRange,omitempty"`
	Data           WidgetData     `json:"data"`
	Metadata       WidgetMetadata `json:"metadata"`
}

// HasQuery reports whether the widget carries a runnable query document.
func (w Widget) HasQuery() bool {
	return len(w.Data.Query) > 0
}

// WidgetDataUpdate is the partial write applied after a successful fetch.
type WidgetDataUpdate struct {
	Results     *QueryResult
	Config      map[string]any
	LastUpdated time.Time
}

// WidgetUpdate is a partial write against top-level widget fields.
type WidgetUpdate struct {
	Title          *string
	Query          map[string]any
	FixedTimeRange *TimeRange
	ClearTimeRange bool
}

// WidgetStore is the shared widget collection. ExecutionController writes
// data/timestamp fields, the grid manager writes position fields; both are
// keyed by widget id so no cross-widget locking is required.
type WidgetStore interface {
	AddWidget(ctx context.Context, widget Widget) error
	Widget(ctx context.Context, id string) (Widget, bool, error)
	Widgets(ctx context.Context) ([]Widget, error)
	UpdateWidget(ctx context.Context, id string, update WidgetUpdate) error
	UpdateWidgetData(ctx context.Context, id string, update WidgetDataUpdate) error
	UpdateWidgetPosition(ctx context.Context, id string, position Position) error
	RemoveWidget(ctx context.Context, id string) error
}

// QueryClient executes a widget query against the backing index.
type QueryClient interface {
	ExecuteQuery(ctx context.Context, req QueryRequest) (QueryResult, error)
}

// QueryRequest carries everything one fetch needs. The time range is resolved
// before the request is built and stays immutable for the request lifetime.
type QueryRequest struct {
	Index     string
	Query     map[string]any
	ServerID  string
	TimeRange TimeRange
}

// RefreshHook notifies transports (REST/WebSocket) about widget changes.
type RefreshHook interface {
	WidgetUpdated(ctx context.Context, event WidgetEvent) error
}

// WidgetEvent describes lifecycle changes that transports might care about.
type WidgetEvent struct {
	WidgetID string     `json:"widget_id"`
	Reason   string     `json:"reason"`
	Attempt  int        `json:"attempt,omitempty"`
	Error    string     `json:"error,omitempty"`
	Position *Position  `json:"position,omitempty"`
	Range    *TimeRange `json:"range,omitempty"`
}

// Event reasons emitted by the service and execution controller.
const (
	EventCreated = "created"
	EventRemoved = "removed"
	EventLoading = "loading"
	EventData    = "data"
	EventFailed  = "failed"
	EventMoved   = "moved"
	EventRange   = "range"
)
