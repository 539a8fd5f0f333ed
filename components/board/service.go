package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options configures the board Service. Every collaborator is provided via
// interface so applications can swap implementations without importing
// internal go-gridboard packages.
type Options struct {
	Store       WidgetStore
	Client      QueryClient
	Registry    *Registry
	Validator   QueryValidator
	RefreshHook RefreshHook
	Telemetry   Telemetry

	ServerID        string
	GlobalTimeRange TimeRange
	Breakpoint      Breakpoint
	Freshness       time.Duration
	MaxAttempts     int
	Now             func() time.Time
	Sleep           func(ctx context.Context, d time.Duration) error
	NewID           func() string
}

// Service orchestrates widget creation, execution, and layout on top of the
// injected store and query client.
type Service struct {
	opts     Options
	executor *ExecutionController
	grid     *GridLayoutManager

	mu     sync.RWMutex
	global TimeRange
	bp     Breakpoint
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Validator == nil {
		opts.Validator = NewJSONSchemaValidator(opts.Registry)
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.GlobalTimeRange.IsZero() {
		opts.GlobalTimeRange = DefaultTimeRange()
	}
	if opts.Breakpoint.Cols == 0 {
		opts.Breakpoint = breakpointLG
	}
	executor := NewExecutionController(ExecutionOptions{
		Store:       opts.Store,
		Client:      opts.Client,
		RefreshHook: opts.RefreshHook,
		Telemetry:   opts.Telemetry,
		ServerID:    opts.ServerID,
		Freshness:   opts.Freshness,
		MaxAttempts: opts.MaxAttempts,
		Now:         opts.Now,
		Sleep:       opts.Sleep,
	})
	return &Service{
		opts:     opts,
		executor: executor,
		grid:     NewGridLayoutManager(),
		global:   opts.GlobalTimeRange,
		bp:       opts.Breakpoint,
	}
}

// CreateWidgetRequest captures the data required to create one widget. Index
// is bound here and never inherited later.
type CreateWidgetRequest struct {
	Title          string         `json:"title"`
	Type           WidgetType     `json:"type"`
	Index          string         `json:"index"`
	Query          map[string]any `json:"query"`
	FixedTimeRange *TimeRange     `json:"fixedTimeRange,omitempty"`
}

// CreateWidget validates the request, assigns a flow-placed position, stores
// the widget, and starts the initial fetch.
func (s *Service) CreateWidget(ctx context.Context, req CreateWidgetRequest) (Widget, error) {
	store, err := s.widgetStore()
	if err != nil {
		return Widget{}, err
	}
	if !req.Type.Valid() {
		return Widget{}, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown widget type %q", req.Type)}
	}
	if req.Index == "" {
		return Widget{}, &ValidationError{Field: "index", Reason: "index is required"}
	}
	if req.FixedTimeRange != nil {
		if err := req.FixedTimeRange.Validate(); err != nil {
			return Widget{}, err
		}
	}
	query := req.Query
	if query == nil {
		if def, ok := s.opts.Registry.Definition(req.Type); ok {
			query = def.DefaultQuery
		}
	}
	if err := s.opts.Validator.Validate(req.Type, query); err != nil {
		return Widget{}, err
	}

	existing, err := store.Widgets(ctx)
	if err != nil {
		return Widget{}, err
	}
	s.mu.RLock()
	cols := s.bp.Cols
	s.mu.RUnlock()
	position := NewLayoutPlacer(cols).Place(existing)

	now := s.opts.Now()
	widget := Widget{
		ID:       s.opts.NewID(),
		Title:    req.Title,
		Type:     req.Type,
		Position: position,
		Index:    req.Index,
		Data:     WidgetData{Query: query},
		Metadata: WidgetMetadata{CreatedAt: now, UpdatedAt: now, Version: 1},
	}
	if req.FixedTimeRange != nil {
		tr := *req.FixedTimeRange
		widget.FixedTimeRange = &tr
	}
	if err := store.AddWidget(ctx, widget); err != nil {
		return Widget{}, err
	}
	s.notify(ctx, WidgetEvent{WidgetID: widget.ID, Reason: EventCreated, Position: &position})
	s.record(ctx, "board.widget.create", map[string]any{
		"widget_id": widget.ID,
		"type":      string(widget.Type),
		"index":     widget.Index,
	})
	if err := s.executor.Trigger(ctx, widget, s.effectiveRange(widget)); err != nil {
		return widget, err
	}
	return widget, nil
}

// RemoveWidget deletes the widget and drops its execution state.
func (s *Service) RemoveWidget(ctx context.Context, widgetID string) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	if widgetID == "" {
		return errMissingWidgetID
	}
	if err := store.RemoveWidget(ctx, widgetID); err != nil {
		return err
	}
	s.executor.Forget(widgetID)
	s.notify(ctx, WidgetEvent{WidgetID: widgetID, Reason: EventRemoved})
	s.record(ctx, "board.widget.remove", map[string]any{"widget_id": widgetID})
	return nil
}

// UpdateWidgetQuery replaces the widget's query document and re-runs it.
func (s *Service) UpdateWidgetQuery(ctx context.Context, widgetID string, query map[string]any) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	widget, ok, err := store.Widget(ctx, widgetID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWidgetNotFound
	}
	if err := s.opts.Validator.Validate(widget.Type, query); err != nil {
		return err
	}
	if err := store.UpdateWidget(ctx, widgetID, WidgetUpdate{Query: query}); err != nil {
		return err
	}
	s.record(ctx, "board.widget.query_update", map[string]any{"widget_id": widgetID})
	// The execution key does not cover the query body, so drop the freshness
	// record: the edited query must run even right after a success.
	s.executor.Invalidate(widgetID)
	return s.retrigger(ctx, widgetID)
}

// SetWidgetTimeRange pins a widget to its own window. Only this widget
// re-runs; the ambient window is untouched.
func (s *Service) SetWidgetTimeRange(ctx context.Context, widgetID string, tr TimeRange) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	if err := tr.Validate(); err != nil {
		return err
	}
	if err := store.UpdateWidget(ctx, widgetID, WidgetUpdate{FixedTimeRange: &tr}); err != nil {
		return err
	}
	s.notify(ctx, WidgetEvent{WidgetID: widgetID, Reason: EventRange, Range: &tr})
	s.record(ctx, "board.widget.range_set", map[string]any{"widget_id": widgetID, "range": tr.CanonicalKey()})
	return s.retrigger(ctx, widgetID)
}

// ClearWidgetTimeRange removes the per-widget override; the widget rejoins
// the ambient window and re-runs against it.
func (s *Service) ClearWidgetTimeRange(ctx context.Context, widgetID string) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	if err := store.UpdateWidget(ctx, widgetID, WidgetUpdate{ClearTimeRange: true}); err != nil {
		return err
	}
	s.record(ctx, "board.widget.range_clear", map[string]any{"widget_id": widgetID})
	return s.retrigger(ctx, widgetID)
}

// SetGlobalTimeRange swaps the ambient window. Widgets with their own
// FixedTimeRange are isolated from this change and do not re-run.
func (s *Service) SetGlobalTimeRange(ctx context.Context, tr TimeRange) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	if err := tr.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.global = tr
	s.mu.Unlock()
	s.record(ctx, "board.range.global", map[string]any{"range": tr.CanonicalKey()})

	widgets, err := store.Widgets(ctx)
	if err != nil {
		return err
	}
	var triggerErr error
	for _, widget := range widgets {
		if widget.FixedTimeRange != nil {
			continue
		}
		if err := s.executor.Trigger(ctx, widget, tr); err != nil {
			triggerErr = err
		}
	}
	return triggerErr
}

// GlobalTimeRange returns the ambient window.
func (s *Service) GlobalTimeRange() TimeRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.global
}

// RetryWidget is the manual-retry affordance after automatic attempts are
// exhausted.
func (s *Service) RetryWidget(ctx context.Context, widgetID string) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	widget, ok, err := store.Widget(ctx, widgetID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWidgetNotFound
	}
	return s.executor.Retry(ctx, widget, s.effectiveRange(widget))
}

// RefreshAll re-triggers every widget against its effective window.
func (s *Service) RefreshAll(ctx context.Context) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	widgets, err := store.Widgets(ctx)
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, widget := range widgets {
		g.Go(func() error {
			return s.executor.Trigger(ctx, widget, s.effectiveRange(widget))
		})
	}
	return g.Wait()
}

// ApplyLayout reconciles an interactive drag/resize batch. Only entries whose
// rectangle actually changed are persisted; execution state is never touched.
func (s *Service) ApplyLayout(ctx context.Context, breakpoint string, batch []PositionChange) ([]PositionChange, error) {
	store, err := s.widgetStore()
	if err != nil {
		return nil, err
	}
	bp := s.activeBreakpoint()
	if breakpoint != "" {
		named, ok := BreakpointByName(breakpoint)
		if !ok {
			return nil, &ValidationError{Field: "breakpoint", Reason: fmt.Sprintf("unknown breakpoint %q", breakpoint)}
		}
		bp = named
	}
	widgets, err := store.Widgets(ctx)
	if err != nil {
		return nil, err
	}
	changed := s.grid.Reconcile(widgets, batch, bp)
	for _, entry := range changed {
		position := Position{X: entry.X, Y: entry.Y, W: entry.W, H: entry.H}
		if err := store.UpdateWidgetPosition(ctx, entry.ID, position); err != nil {
			return nil, err
		}
		s.notify(ctx, WidgetEvent{WidgetID: entry.ID, Reason: EventMoved, Position: &position})
	}
	s.record(ctx, "board.layout.apply", map[string]any{
		"breakpoint": bp.Name,
		"batch":      len(batch),
		"changed":    len(changed),
	})
	return changed, nil
}

// Resize switches the active breakpoint for a new viewport width, re-capping
// and compacting stored positions. Only changed rectangles are written back.
func (s *Service) Resize(ctx context.Context, viewportWidth int) ([]PositionChange, error) {
	store, err := s.widgetStore()
	if err != nil {
		return nil, err
	}
	bp := BreakpointFor(viewportWidth)
	s.mu.Lock()
	s.bp = bp
	s.mu.Unlock()

	widgets, err := store.Widgets(ctx)
	if err != nil {
		return nil, err
	}
	changed := s.grid.ApplyBreakpoint(widgets, bp)
	for _, entry := range changed {
		position := Position{X: entry.X, Y: entry.Y, W: entry.W, H: entry.H}
		if err := store.UpdateWidgetPosition(ctx, entry.ID, position); err != nil {
			return nil, err
		}
		s.notify(ctx, WidgetEvent{WidgetID: entry.ID, Reason: EventMoved, Position: &position})
	}
	s.record(ctx, "board.layout.resize", map[string]any{
		"breakpoint": bp.Name,
		"changed":    len(changed),
	})
	return changed, nil
}

// WidgetView pairs a stored widget with its execution snapshot.
type WidgetView struct {
	Widget Widget         `json:"widget"`
	State  ExecutionState `json:"state"`
}

// BoardSnapshot is the ordered read model served to transports.
type BoardSnapshot struct {
	Widgets    []WidgetView `json:"widgets"`
	TimeRange  TimeRange    `json:"time_range"`
	Breakpoint string       `json:"breakpoint"`
}

// Board returns the current snapshot: widgets in insertion order, each with
// its execution state, plus the ambient window and active breakpoint.
func (s *Service) Board(ctx context.Context) (BoardSnapshot, error) {
	store, err := s.widgetStore()
	if err != nil {
		return BoardSnapshot{}, err
	}
	widgets, err := store.Widgets(ctx)
	if err != nil {
		return BoardSnapshot{}, err
	}
	views := make([]WidgetView, len(widgets))
	for i, widget := range widgets {
		views[i] = WidgetView{Widget: widget, State: s.executor.State(widget.ID)}
	}
	s.mu.RLock()
	snapshot := BoardSnapshot{Widgets: views, TimeRange: s.global, Breakpoint: s.bp.Name}
	s.mu.RUnlock()
	return snapshot, nil
}

// Widget returns one widget with its execution state.
func (s *Service) Widget(ctx context.Context, widgetID string) (WidgetView, error) {
	store, err := s.widgetStore()
	if err != nil {
		return WidgetView{}, err
	}
	widget, ok, err := store.Widget(ctx, widgetID)
	if err != nil {
		return WidgetView{}, err
	}
	if !ok {
		return WidgetView{}, ErrWidgetNotFound
	}
	return WidgetView{Widget: widget, State: s.executor.State(widgetID)}, nil
}

// WidgetState exposes one widget's execution snapshot.
func (s *Service) WidgetState(widgetID string) ExecutionState {
	return s.executor.State(widgetID)
}

// Wait blocks until in-flight fetches resolve. Intended for shutdown and tests.
func (s *Service) Wait() {
	s.executor.Wait()
}

func (s *Service) retrigger(ctx context.Context, widgetID string) error {
	store, err := s.widgetStore()
	if err != nil {
		return err
	}
	widget, ok, err := store.Widget(ctx, widgetID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWidgetNotFound
	}
	return s.executor.Trigger(ctx, widget, s.effectiveRange(widget))
}

func (s *Service) effectiveRange(widget Widget) TimeRange {
	s.mu.RLock()
	global := s.global
	s.mu.RUnlock()
	return ResolveTimeRange(widget, global)
}

func (s *Service) activeBreakpoint() Breakpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bp
}

func (s *Service) widgetStore() (WidgetStore, error) {
	if s.opts.Store == nil {
		return nil, errMissingWidgetStore
	}
	return s.opts.Store, nil
}

func (s *Service) notify(ctx context.Context, event WidgetEvent) {
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, event); err != nil {
		s.record(ctx, "board.widget.hook_error", map[string]any{
			"widget_id": event.WidgetID,
			"error":     err.Error(),
		})
	}
}

func (s *Service) record(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}
