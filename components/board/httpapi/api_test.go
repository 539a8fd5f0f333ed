package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	board "github.com/goliatone/go-gridboard/components/board"
	"github.com/goliatone/go-gridboard/components/board/commands"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(_ context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

type stubReader struct {
	snapshot board.BoardSnapshot
	view     board.WidgetView
	err      error
}

func (s *stubReader) Board(context.Context) (board.BoardSnapshot, error) {
	return s.snapshot, s.err
}

func (s *stubReader) Widget(_ context.Context, widgetID string) (board.WidgetView, error) {
	if s.err != nil {
		return board.WidgetView{}, s.err
	}
	view := s.view
	view.Widget.ID = widgetID
	return view, nil
}

func TestHandleBoard(t *testing.T) {
	reader := &stubReader{snapshot: board.BoardSnapshot{Breakpoint: "lg", TimeRange: board.DefaultTimeRange()}}
	api := NewHandlers(nil, reader)
	req := httptest.NewRequest(http.MethodGet, "/board", nil)
	rec := httptest.NewRecorder()
	api.HandleBoard(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snapshot board.BoardSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatal(err)
	}
	if snapshot.Breakpoint != "lg" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
}

func TestHandleWidgetNotFound(t *testing.T) {
	reader := &stubReader{err: board.ErrWidgetNotFound}
	api := NewHandlers(nil, reader)
	req := httptest.NewRequest(http.MethodGet, "/board/widgets/w1", nil)
	rec := httptest.NewRecorder()
	api.HandleWidget(rec, req, "w1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleCreateWidget(t *testing.T) {
	create := &stubCommander[board.CreateWidgetRequest]{}
	api := NewHandlers(&CommandExecutor{CreateCmd: create}, nil)
	payload := board.CreateWidgetRequest{Title: "Errors", Type: board.WidgetTypeBar, Index: "logs-*"}
	buf, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/board/widgets", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleCreateWidget(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if create.calls != 1 {
		t.Fatalf("expected create to execute")
	}
	if create.last.Index != "logs-*" {
		t.Fatalf("payload not forwarded: %+v", create.last)
	}
}

func TestHandleCreateWidgetRejectsBadJSON(t *testing.T) {
	create := &stubCommander[board.CreateWidgetRequest]{}
	api := NewHandlers(&CommandExecutor{CreateCmd: create}, nil)
	req := httptest.NewRequest(http.MethodPost, "/board/widgets", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	api.HandleCreateWidget(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if create.calls != 0 {
		t.Fatalf("bad payload must not execute the command")
	}
}

func TestHandleCreateWidgetMapsValidationErrors(t *testing.T) {
	create := &stubCommander[board.CreateWidgetRequest]{err: &board.ValidationError{Field: "index", Reason: "required"}}
	api := NewHandlers(&CommandExecutor{CreateCmd: create}, nil)
	buf, _ := json.Marshal(board.CreateWidgetRequest{Title: "x"})
	req := httptest.NewRequest(http.MethodPost, "/board/widgets", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleCreateWidget(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleRemoveWidget(t *testing.T) {
	remove := &stubCommander[commands.RemoveWidgetInput]{}
	api := NewHandlers(&CommandExecutor{RemoveCmd: remove}, nil)
	req := httptest.NewRequest(http.MethodDelete, "/board/widgets/w1", nil)
	rec := httptest.NewRecorder()
	api.HandleRemoveWidget(rec, req, "w1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if remove.last.WidgetID != "w1" {
		t.Fatalf("widget id not forwarded: %+v", remove.last)
	}
}

func TestHandleRetryWidget(t *testing.T) {
	retry := &stubCommander[commands.RetryWidgetInput]{}
	api := NewHandlers(&CommandExecutor{RetryCmd: retry}, nil)
	req := httptest.NewRequest(http.MethodPost, "/board/widgets/w1/retry", nil)
	rec := httptest.NewRecorder()
	api.HandleRetryWidget(rec, req, "w1")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if retry.calls != 1 {
		t.Fatalf("expected retry to execute")
	}
}

func TestHandleApplyLayout(t *testing.T) {
	layout := &stubCommander[commands.ApplyLayoutInput]{}
	api := NewHandlers(&CommandExecutor{LayoutCmd: layout}, nil)
	payload := commands.ApplyLayoutInput{
		Breakpoint: "lg",
		Changes:    []board.PositionChange{{ID: "w1", X: 0, Y: 4, W: 6, H: 4}},
	}
	buf, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPut, "/board/layout", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleApplyLayout(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(layout.last.Changes) != 1 {
		t.Fatalf("changes not forwarded: %+v", layout.last)
	}
}

func TestHandleUpdateWidgetQuery(t *testing.T) {
	update := &stubCommander[commands.UpdateWidgetQueryInput]{}
	api := NewHandlers(&CommandExecutor{QueryCmd: update}, nil)
	buf := []byte(`{"query":{"aggregation":{"type":"terms","field":"host"}}}`)
	req := httptest.NewRequest(http.MethodPut, "/board/widgets/w1/query", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleUpdateWidgetQuery(rec, req, "w1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if update.last.WidgetID != "w1" || update.last.Query == nil {
		t.Fatalf("input not forwarded: %+v", update.last)
	}
}

func TestHandleGlobalTimeRange(t *testing.T) {
	global := &stubCommander[commands.SetGlobalTimeRangeInput]{}
	api := NewHandlers(&CommandExecutor{GlobalRangeCmd: global}, nil)
	buf, _ := json.Marshal(commands.SetGlobalTimeRangeInput{TimeRange: board.DefaultTimeRange()})
	req := httptest.NewRequest(http.MethodPut, "/board/time-range", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleGlobalTimeRange(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if global.last.TimeRange.Preset != "last_24h" {
		t.Fatalf("range not forwarded: %+v", global.last)
	}
}

func TestHandleWidgetTimeRange(t *testing.T) {
	widgetRange := &stubCommander[commands.SetWidgetTimeRangeInput]{}
	api := NewHandlers(&CommandExecutor{WidgetRangeCmd: widgetRange}, nil)

	tr := board.DefaultTimeRange()
	buf, _ := json.Marshal(commands.SetWidgetTimeRangeInput{TimeRange: &tr})
	req := httptest.NewRequest(http.MethodPut, "/board/widgets/w1/time-range", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleWidgetTimeRange(rec, req, "w1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if widgetRange.last.WidgetID != "w1" {
		t.Fatalf("widget id not forwarded: %+v", widgetRange.last)
	}

	// Clearing: an empty body object unpins the widget.
	req = httptest.NewRequest(http.MethodPut, "/board/widgets/w1/time-range", bytes.NewReader([]byte(`{}`)))
	rec = httptest.NewRecorder()
	api.HandleWidgetTimeRange(rec, req, "w1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if widgetRange.last.TimeRange != nil {
		t.Fatalf("expected nil range on clear, got %+v", widgetRange.last.TimeRange)
	}
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&board.ValidationError{Field: "query", Reason: "bad"}, http.StatusBadRequest},
		{&board.ConfigurationError{WidgetID: "w1", Reason: "no index bound"}, http.StatusUnprocessableEntity},
		{board.ErrWidgetNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusForError(tc.err); got != tc.want {
			t.Errorf("StatusForError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
