package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// UpdateWidgetQueryInput replaces a widget's query document.
type UpdateWidgetQueryInput struct {
	WidgetID string         `json:"widget_id"`
	Query    map[string]any `json:"query"`
}

type queryUpdateService interface {
	UpdateWidgetQuery(ctx context.Context, widgetID string, query map[string]any) error
}

// UpdateWidgetQueryCommand validates and swaps a widget's query, then re-runs
// it.
type UpdateWidgetQueryCommand struct {
	service   queryUpdateService
	telemetry Telemetry
}

// NewUpdateWidgetQueryCommand builds the command.
func NewUpdateWidgetQueryCommand(service queryUpdateService, telemetry Telemetry) *UpdateWidgetQueryCommand {
	return &UpdateWidgetQueryCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateWidgetQueryInput] = (*UpdateWidgetQueryCommand)(nil)

// Execute swaps the query document.
func (c *UpdateWidgetQueryCommand) Execute(ctx context.Context, msg UpdateWidgetQueryInput) error {
	if c.service == nil {
		return errors.New("query command requires service")
	}
	if err := c.service.UpdateWidgetQuery(ctx, msg.WidgetID, msg.Query); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "board.widget.query_update", map[string]any{"widget_id": msg.WidgetID})
	return nil
}
