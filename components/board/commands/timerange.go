package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	board "github.com/goliatone/go-gridboard/components/board"
)

// SetGlobalTimeRangeInput swaps the board's ambient window.
type SetGlobalTimeRangeInput struct {
	TimeRange board.TimeRange `json:"time_range"`
}

// SetWidgetTimeRangeInput pins one widget to its own window. A nil TimeRange
// clears the pin so the widget rejoins the ambient window.
type SetWidgetTimeRangeInput struct {
	WidgetID  string           `json:"widget_id"`
	TimeRange *board.TimeRange `json:"time_range,omitempty"`
}

type rangeService interface {
	SetGlobalTimeRange(ctx context.Context, tr board.TimeRange) error
	SetWidgetTimeRange(ctx context.Context, widgetID string, tr board.TimeRange) error
	ClearWidgetTimeRange(ctx context.Context, widgetID string) error
}

// SetGlobalTimeRangeCommand swaps the ambient window and re-runs unpinned
// widgets.
type SetGlobalTimeRangeCommand struct {
	service   rangeService
	telemetry Telemetry
}

// NewSetGlobalTimeRangeCommand builds the command.
func NewSetGlobalTimeRangeCommand(service rangeService, telemetry Telemetry) *SetGlobalTimeRangeCommand {
	return &SetGlobalTimeRangeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetGlobalTimeRangeInput] = (*SetGlobalTimeRangeCommand)(nil)

// Execute swaps the ambient window.
func (c *SetGlobalTimeRangeCommand) Execute(ctx context.Context, msg SetGlobalTimeRangeInput) error {
	if c.service == nil {
		return errors.New("time range command requires service")
	}
	if err := c.service.SetGlobalTimeRange(ctx, msg.TimeRange); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "board.range.global", map[string]any{"range": msg.TimeRange.CanonicalKey()})
	return nil
}

// SetWidgetTimeRangeCommand pins or unpins a single widget's window.
type SetWidgetTimeRangeCommand struct {
	service   rangeService
	telemetry Telemetry
}

// NewSetWidgetTimeRangeCommand builds the command.
func NewSetWidgetTimeRangeCommand(service rangeService, telemetry Telemetry) *SetWidgetTimeRangeCommand {
	return &SetWidgetTimeRangeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetWidgetTimeRangeInput] = (*SetWidgetTimeRangeCommand)(nil)

// Execute pins the widget window, or clears it when no range is given.
func (c *SetWidgetTimeRangeCommand) Execute(ctx context.Context, msg SetWidgetTimeRangeInput) error {
	if c.service == nil {
		return errors.New("time range command requires service")
	}
	if msg.TimeRange == nil {
		if err := c.service.ClearWidgetTimeRange(ctx, msg.WidgetID); err != nil {
			return err
		}
		c.telemetry.Record(ctx, "board.widget.range_clear", map[string]any{"widget_id": msg.WidgetID})
		return nil
	}
	if err := c.service.SetWidgetTimeRange(ctx, msg.WidgetID, *msg.TimeRange); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "board.widget.range_set", map[string]any{
		"widget_id": msg.WidgetID,
		"range":     msg.TimeRange.CanonicalKey(),
	})
	return nil
}
