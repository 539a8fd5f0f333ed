package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	board "github.com/goliatone/go-gridboard/components/board"
	"github.com/goliatone/go-gridboard/components/board/commands"
	"github.com/goliatone/go-gridboard/components/board/queries"
)

// Executor is the command surface transports invoke. Reads go through Reader.
type Executor interface {
	Create(ctx context.Context, req board.CreateWidgetRequest) error
	Remove(ctx context.Context, input commands.RemoveWidgetInput) error
	Retry(ctx context.Context, input commands.RetryWidgetInput) error
	Layout(ctx context.Context, input commands.ApplyLayoutInput) error
	UpdateQuery(ctx context.Context, input commands.UpdateWidgetQueryInput) error
	GlobalRange(ctx context.Context, input commands.SetGlobalTimeRangeInput) error
	WidgetRange(ctx context.Context, input commands.SetWidgetTimeRangeInput) error
}

// Reader is the query surface transports invoke.
type Reader interface {
	Board(ctx context.Context) (board.BoardSnapshot, error)
	Widget(ctx context.Context, widgetID string) (board.WidgetView, error)
}

// CommandExecutor wires the shared command set into an Executor.
type CommandExecutor struct {
	CreateCmd      gocommand.Commander[board.CreateWidgetRequest]
	RemoveCmd      gocommand.Commander[commands.RemoveWidgetInput]
	RetryCmd       gocommand.Commander[commands.RetryWidgetInput]
	LayoutCmd      gocommand.Commander[commands.ApplyLayoutInput]
	QueryCmd       gocommand.Commander[commands.UpdateWidgetQueryInput]
	GlobalRangeCmd gocommand.Commander[commands.SetGlobalTimeRangeInput]
	WidgetRangeCmd gocommand.Commander[commands.SetWidgetTimeRangeInput]
}

// NewCommandExecutor builds the full command set around a board service.
func NewCommandExecutor(service *board.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		CreateCmd:      commands.NewCreateWidgetCommand(service, telemetry),
		RemoveCmd:      commands.NewRemoveWidgetCommand(service, telemetry),
		RetryCmd:       commands.NewRetryWidgetCommand(service, telemetry),
		LayoutCmd:      commands.NewApplyLayoutCommand(service, telemetry),
		QueryCmd:       commands.NewUpdateWidgetQueryCommand(service, telemetry),
		GlobalRangeCmd: commands.NewSetGlobalTimeRangeCommand(service, telemetry),
		WidgetRangeCmd: commands.NewSetWidgetTimeRangeCommand(service, telemetry),
	}
}

func (e *CommandExecutor) Create(ctx context.Context, req board.CreateWidgetRequest) error {
	return e.CreateCmd.Execute(ctx, req)
}

func (e *CommandExecutor) Remove(ctx context.Context, input commands.RemoveWidgetInput) error {
	return e.RemoveCmd.Execute(ctx, input)
}

func (e *CommandExecutor) Retry(ctx context.Context, input commands.RetryWidgetInput) error {
	return e.RetryCmd.Execute(ctx, input)
}

func (e *CommandExecutor) Layout(ctx context.Context, input commands.ApplyLayoutInput) error {
	return e.LayoutCmd.Execute(ctx, input)
}

func (e *CommandExecutor) UpdateQuery(ctx context.Context, input commands.UpdateWidgetQueryInput) error {
	return e.QueryCmd.Execute(ctx, input)
}

func (e *CommandExecutor) GlobalRange(ctx context.Context, input commands.SetGlobalTimeRangeInput) error {
	return e.GlobalRangeCmd.Execute(ctx, input)
}

func (e *CommandExecutor) WidgetRange(ctx context.Context, input commands.SetWidgetTimeRangeInput) error {
	return e.WidgetRangeCmd.Execute(ctx, input)
}

var _ Executor = (*CommandExecutor)(nil)

// QueryReader wires the shared queries into a Reader.
type QueryReader struct {
	Snapshot gocommand.Querier[queries.SnapshotInput, board.BoardSnapshot]
	ByID     gocommand.Querier[queries.WidgetInput, board.WidgetView]
}

// NewQueryReader builds the read side around a board service.
func NewQueryReader(service *board.Service) *QueryReader {
	return &QueryReader{
		Snapshot: queries.NewBoardSnapshotQuery(service),
		ByID:     queries.NewWidgetQuery(service),
	}
}

func (r *QueryReader) Board(ctx context.Context) (board.BoardSnapshot, error) {
	return r.Snapshot.Query(ctx, queries.SnapshotInput{})
}

func (r *QueryReader) Widget(ctx context.Context, widgetID string) (board.WidgetView, error) {
	return r.ByID.Query(ctx, queries.WidgetInput{WidgetID: widgetID})
}

var _ Reader = (*QueryReader)(nil)

// Handlers exposes HTTP endpoints backed by the shared commands and queries.
type Handlers struct {
	API    Executor
	Reader Reader
}

// NewHandlers builds handlers around an executor and reader.
func NewHandlers(api Executor, reader Reader) *Handlers {
	return &Handlers{API: api, Reader: reader}
}

func (h *Handlers) HandleBoard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Reader.Board(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

func (h *Handlers) HandleWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	view, err := h.Reader.Widget(r.Context(), widgetID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandleCreateWidget(w http.ResponseWriter, r *http.Request) {
	var payload board.CreateWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.API.Create(r.Context(), payload); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handlers) HandleRemoveWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	if err := h.API.Remove(r.Context(), commands.RemoveWidgetInput{WidgetID: widgetID}); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleRetryWidget(w http.ResponseWriter, r *http.Request, widgetID string) {
	if err := h.API.Retry(r.Context(), commands.RetryWidgetInput{WidgetID: widgetID}); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleApplyLayout(w http.ResponseWriter, r *http.Request) {
	var payload commands.ApplyLayoutInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.API.Layout(r.Context(), payload); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) HandleUpdateWidgetQuery(w http.ResponseWriter, r *http.Request, widgetID string) {
	var payload struct {
		Query map[string]any `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input := commands.UpdateWidgetQueryInput{WidgetID: widgetID, Query: payload.Query}
	if err := h.API.UpdateQuery(r.Context(), input); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) HandleGlobalTimeRange(w http.ResponseWriter, r *http.Request) {
	var payload commands.SetGlobalTimeRangeInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.API.GlobalRange(r.Context(), payload); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) HandleWidgetTimeRange(w http.ResponseWriter, r *http.Request, widgetID string) {
	var payload commands.SetWidgetTimeRangeInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload.WidgetID = widgetID
	if err := h.API.WidgetRange(r.Context(), payload); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError maps the board error taxonomy onto HTTP status codes.
func respondError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), StatusForError(err))
}

// StatusForError translates board errors into HTTP status codes: rejected
// inputs are 400, widget misconfiguration is 422, unknown widgets are 404,
// everything else is 500.
func StatusForError(err error) int {
	switch {
	case board.IsValidation(err):
		return http.StatusBadRequest
	case board.IsConfiguration(err):
		return http.StatusUnprocessableEntity
	case isNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func isNotFound(err error) bool {
	return err != nil && errors.Is(err, board.ErrWidgetNotFound)
}
