package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// RetryWidgetInput identifies the failed widget to re-run.
type RetryWidgetInput struct {
	WidgetID string `json:"widget_id"`
}

type retryService interface {
	RetryWidget(ctx context.Context, widgetID string) error
}

// RetryWidgetCommand re-enters a failed widget's fetch loop on explicit
// operator request.
type RetryWidgetCommand struct {
	service   retryService
	telemetry Telemetry
}

// NewRetryWidgetCommand builds the command.
func NewRetryWidgetCommand(service retryService, telemetry Telemetry) *RetryWidgetCommand {
	return &RetryWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RetryWidgetInput] = (*RetryWidgetCommand)(nil)

// Execute retries the widget.
func (c *RetryWidgetCommand) Execute(ctx context.Context, msg RetryWidgetInput) error {
	if c.service == nil {
		return errors.New("retry command requires service")
	}
	if err := c.service.RetryWidget(ctx, msg.WidgetID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "board.widget.retry", map[string]any{"widget_id": msg.WidgetID})
	return nil
}
