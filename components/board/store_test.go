package board

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryStoreInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryWidgetStore()
	for _, id := range []string{"c", "a", "b"} {
		w := testWidget()
		w.ID = id
		if err := store.AddWidget(ctx, w); err != nil {
			t.Fatal(err)
		}
	}

	widgets, err := store.Widgets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(widgets))
	for i, w := range widgets {
		got[i] = w.ID
	}
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestInMemoryStoreRejectsEmptyID(t *testing.T) {
	store := NewInMemoryWidgetStore()
	if err := store.AddWidget(context.Background(), Widget{}); err == nil {
		t.Error("expected empty id to be rejected")
	}
}

func TestInMemoryStoreUpdateWidget(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryWidgetStore()
	if err := store.AddWidget(ctx, testWidget()); err != nil {
		t.Fatal(err)
	}

	title := "Renamed"
	fixed, err := NewPresetRange("last_7d")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateWidget(ctx, "w1", WidgetUpdate{Title: &title, FixedTimeRange: &fixed}); err != nil {
		t.Fatal(err)
	}

	w, ok, err := store.Widget(ctx, "w1")
	if err != nil || !ok {
		t.Fatalf("widget lookup failed: ok=%v err=%v", ok, err)
	}
	if w.Title != "Renamed" {
		t.Errorf("title = %q", w.Title)
	}
	if w.FixedTimeRange == nil || w.FixedTimeRange.Preset != "last_7d" {
		t.Errorf("fixed range not applied: %+v", w.FixedTimeRange)
	}
	if w.Metadata.Version != 1 {
		t.Errorf("version = %d, want 1", w.Metadata.Version)
	}

	if err := store.UpdateWidget(ctx, "w1", WidgetUpdate{ClearTimeRange: true}); err != nil {
		t.Fatal(err)
	}
	w, _, _ = store.Widget(ctx, "w1")
	if w.FixedTimeRange != nil {
		t.Error("fixed range not cleared")
	}
}

func TestInMemoryStorePositionWriteLeavesDataAlone(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryWidgetStore()
	widget := testWidget()
	results := successRows()
	widget.Data.Results = &results
	widget.Data.LastUpdated = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	if err := store.AddWidget(ctx, widget); err != nil {
		t.Fatal(err)
	}

	if err := store.UpdateWidgetPosition(ctx, "w1", Position{X: 4, Y: 0, W: 4, H: 4}); err != nil {
		t.Fatal(err)
	}

	w, _, _ := store.Widget(ctx, "w1")
	if w.Position.X != 4 {
		t.Errorf("position not applied: %+v", w.Position)
	}
	if w.Data.Results.Empty() {
		t.Error("results lost on position write")
	}
	if !w.Data.LastUpdated.Equal(widget.Data.LastUpdated) {
		t.Error("last_updated moved on position write")
	}
	if w.Metadata.Version != 0 {
		t.Error("position write must not bump the version")
	}
}

func TestInMemoryStoreRemoveWidget(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryWidgetStore()
	if err := store.AddWidget(ctx, testWidget()); err != nil {
		t.Fatal(err)
	}
	if err := store.RemoveWidget(ctx, "w1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Widget(ctx, "w1"); ok {
		t.Error("widget still present after removal")
	}
	if err := store.RemoveWidget(ctx, "w1"); !errors.Is(err, ErrWidgetNotFound) {
		t.Errorf("expected not-found, got %v", err)
	}
}
