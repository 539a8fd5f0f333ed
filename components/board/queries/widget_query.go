package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	board "github.com/goliatone/go-gridboard/components/board"
)

// WidgetInput identifies the widget to read.
type WidgetInput struct {
	WidgetID string `json:"widget_id"`
}

type widgetService interface {
	Widget(ctx context.Context, widgetID string) (board.WidgetView, error)
}

// WidgetQuery fetches one widget with its execution state.
type WidgetQuery struct {
	service widgetService
}

// NewWidgetQuery builds the query.
func NewWidgetQuery(service widgetService) *WidgetQuery {
	return &WidgetQuery{service: service}
}

var _ gocommand.Querier[WidgetInput, board.WidgetView] = (*WidgetQuery)(nil)

// Query resolves the widget view.
func (q *WidgetQuery) Query(ctx context.Context, input WidgetInput) (board.WidgetView, error) {
	return q.service.Widget(ctx, input.WidgetID)
}
