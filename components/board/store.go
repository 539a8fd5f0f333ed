package board

import (
	"context"
	"sync"
	"time"
)

// InMemoryWidgetStore provides a concurrency-safe default store. Widgets are
// returned in insertion order, which the layout placer depends on.
type InMemoryWidgetStore struct {
	mu      sync.RWMutex
	order   []string
	widgets map[string]Widget
	now     func() time.Time
}

// NewInMemoryWidgetStore creates an empty store.
func NewInMemoryWidgetStore() *InMemoryWidgetStore {
	return &InMemoryWidgetStore{
		widgets: make(map[string]Widget),
		now:     time.Now,
	}
}

// AddWidget appends a widget to the collection.
func (s *InMemoryWidgetStore) AddWidget(_ context.Context, widget Widget) error {
	if widget.ID == "" {
		return errMissingWidgetID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.widgets[widget.ID]; !ok {
		s.order = append(s.order, widget.ID)
	}
	s.widgets[widget.ID] = widget
	return nil
}

// Widget fetches a single widget by id.
func (s *InMemoryWidgetStore) Widget(_ context.Context, id string) (Widget, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.widgets[id]
	return w, ok, nil
}

// Widgets returns the collection in insertion order.
func (s *InMemoryWidgetStore) Widgets(_ context.Context) ([]Widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Widget, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.widgets[id])
	}
	return out, nil
}

// UpdateWidget applies a partial write against top-level fields and bumps the
// record version.
func (s *InMemoryWidgetStore) UpdateWidget(_ context.Context, id string, update WidgetUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.widgets[id]
	if !ok {
		return ErrWidgetNotFound
	}
	if update.Title != nil {
		w.Title = *update.Title
	}
	if update.Query != nil {
		w.Data.Query = update.Query
	}
	if update.ClearTimeRange {
		w.FixedTimeRange = nil
	} else if update.FixedTimeRange != nil {
		tr := *update.FixedTimeRange
		w.FixedTimeRange = &tr
	}
	w.Metadata.UpdatedAt = s.now()
	w.Metadata.Version++
	s.widgets[id] = w
	return nil
}

// UpdateWidgetData commits fetch results. last_updated moves only on this
// path, never on failures.
func (s *InMemoryWidgetStore) UpdateWidgetData(_ context.Context, id string, update WidgetDataUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.widgets[id]
	if !ok {
		return ErrWidgetNotFound
	}
	w.Data.Results = update.Results
	w.Data.Config = update.Config
	w.Data.LastUpdated = update.LastUpdated
	w.Metadata.UpdatedAt = s.now()
	w.Metadata.Version++
	s.widgets[id] = w
	return nil
}

// UpdateWidgetPosition moves a widget rectangle. Position writes never touch
// data or timestamps.
func (s *InMemoryWidgetStore) UpdateWidgetPosition(_ context.Context, id string, position Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.widgets[id]
	if !ok {
		return ErrWidgetNotFound
	}
	w.Position = position
	s.widgets[id] = w
	return nil
}

// RemoveWidget deletes a widget from the collection.
func (s *InMemoryWidgetStore) RemoveWidget(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.widgets[id]; !ok {
		return ErrWidgetNotFound
	}
	delete(s.widgets, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

var _ WidgetStore = (*InMemoryWidgetStore)(nil)
