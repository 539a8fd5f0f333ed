package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	board "github.com/goliatone/go-gridboard/components/board"
)

// ApplyLayoutInput carries an interactive drag/resize batch.
type ApplyLayoutInput struct {
	Breakpoint string                 `json:"breakpoint"`
	Changes    []board.PositionChange `json:"changes"`
}

type layoutService interface {
	ApplyLayout(ctx context.Context, breakpoint string, batch []board.PositionChange) ([]board.PositionChange, error)
}

// ApplyLayoutCommand persists an interactive layout batch.
type ApplyLayoutCommand struct {
	service   layoutService
	telemetry Telemetry
}

// NewApplyLayoutCommand builds the command.
func NewApplyLayoutCommand(service layoutService, telemetry Telemetry) *ApplyLayoutCommand {
	return &ApplyLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyLayoutInput] = (*ApplyLayoutCommand)(nil)

// Execute reconciles the batch against stored positions.
func (c *ApplyLayoutCommand) Execute(ctx context.Context, msg ApplyLayoutInput) error {
	if c.service == nil {
		return errors.New("layout command requires service")
	}
	changed, err := c.service.ApplyLayout(ctx, msg.Breakpoint, msg.Changes)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "board.layout.apply", map[string]any{
		"breakpoint": msg.Breakpoint,
		"changed":    len(changed),
	})
	return nil
}
