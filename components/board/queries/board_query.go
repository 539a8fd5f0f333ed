package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	board "github.com/goliatone/go-gridboard/components/board"
)

// SnapshotInput carries no parameters; the snapshot covers the whole board.
type SnapshotInput struct{}

type snapshotService interface {
	Board(ctx context.Context) (board.BoardSnapshot, error)
}

// BoardSnapshotQuery executes the read-only board snapshot.
type BoardSnapshotQuery struct {
	service snapshotService
}

// NewBoardSnapshotQuery builds the query.
func NewBoardSnapshotQuery(service snapshotService) *BoardSnapshotQuery {
	return &BoardSnapshotQuery{service: service}
}

var _ gocommand.Querier[SnapshotInput, board.BoardSnapshot] = (*BoardSnapshotQuery)(nil)

// Query resolves the current snapshot.
func (q *BoardSnapshotQuery) Query(ctx context.Context, _ SnapshotInput) (board.BoardSnapshot, error) {
	return q.service.Board(ctx)
}
