package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	board "github.com/goliatone/go-gridboard/components/board"
)

type createService interface {
	CreateWidget(ctx context.Context, req board.CreateWidgetRequest) (board.Widget, error)
}

// CreateWidgetCommand wraps Service.CreateWidget so transports can create
// widgets without linking directly against the service.
type CreateWidgetCommand struct {
	service   createService
	telemetry Telemetry
}

// NewCreateWidgetCommand creates a command instance.
func NewCreateWidgetCommand(service createService, telemetry Telemetry) *CreateWidgetCommand {
	return &CreateWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[board.CreateWidgetRequest] = (*CreateWidgetCommand)(nil)

// Execute delegates to the board service.
func (c *CreateWidgetCommand) Execute(ctx context.Context, msg board.CreateWidgetRequest) error {
	if c.service == nil {
		return errors.New("create command requires service")
	}
	widget, err := c.service.CreateWidget(ctx, msg)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "board.widget.create", map[string]any{
		"widget_id": widget.ID,
		"type":      string(widget.Type),
		"index":     widget.Index,
	})
	return nil
}
