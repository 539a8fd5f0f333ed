package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	board "github.com/goliatone/go-gridboard/components/board"
)

// SeedBoardInput selects the manifest to seed from. Manifest wins when both
// are set.
type SeedBoardInput struct {
	Path     string               `json:"path,omitempty"`
	Manifest *board.BoardManifest `json:"-"`
}

// SeedBoardCommand creates every widget described by a board manifest.
type SeedBoardCommand struct {
	service   *board.Service
	telemetry Telemetry
}

// NewSeedBoardCommand builds the command.
func NewSeedBoardCommand(service *board.Service, telemetry Telemetry) *SeedBoardCommand {
	return &SeedBoardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SeedBoardInput] = (*SeedBoardCommand)(nil)

// Execute loads the manifest if needed and seeds the board.
func (c *SeedBoardCommand) Execute(ctx context.Context, msg SeedBoardInput) error {
	if c.service == nil {
		return errors.New("seed command requires service")
	}
	doc := msg.Manifest
	if doc == nil {
		if msg.Path == "" {
			return errors.New("seed command requires a manifest or a path")
		}
		loaded, err := board.ReadManifest(msg.Path)
		if err != nil {
			return err
		}
		doc = loaded
	}
	if err := board.SeedBoard(ctx, c.service, doc); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "board.seed", map[string]any{
		"widgets": len(doc.Widgets),
		"source":  doc.Source,
	})
	return nil
}
