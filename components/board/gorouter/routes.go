package gorouter

import (
	"encoding/json"
	"errors"
	"net/http"

	router "github.com/goliatone/go-router"

	board "github.com/goliatone/go-gridboard/components/board"
	"github.com/goliatone/go-gridboard/components/board/commands"
	"github.com/goliatone/go-gridboard/components/board/httpapi"
)

// Config wires go-router with the board command set, read model, and refresh
// broadcast.
type Config[T any] struct {
	Router    router.Router[T]
	API       httpapi.Executor
	Reader    httpapi.Reader
	Service   *board.Service
	Broadcast *board.BroadcastHook
	BasePath  string
	Routes    RouteConfig
}

// RouteConfig customizes the relative paths used for board endpoints.
type RouteConfig struct {
	Board       string
	Widgets     string
	WidgetID    string
	Retry       string
	Query       string
	WidgetRange string
	Layout      string
	GlobalRange string
	Resize      string
	WebSocket   string
}

// Register mounts board routes (JSON REST plus WebSocket) on a go-router
// router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Reader == nil {
		return errors.New("gorouter: reader is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/api"
	}

	group := cfg.Router.Group(base)

	group.Get(routes.Board, router.WrapHandler(func(ctx router.Context) error {
		snapshot, err := cfg.Reader.Board(ctx.Context())
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, snapshot)
	}))

	group.Get(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if id == "" {
			return respondStatus(ctx, http.StatusBadRequest, errors.New("widget id is required"))
		}
		view, err := cfg.Reader.Widget(ctx.Context(), id)
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, view)
	}))

	if cfg.API != nil {
		registerAPI(group, cfg.API, routes)
	}

	if cfg.Service != nil {
		group.Post(routes.Resize, router.WrapHandler(func(ctx router.Context) error {
			var payload struct {
				Width int `json:"width"`
			}
			if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			changed, err := cfg.Service.Resize(ctx.Context(), payload.Width)
			if err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]any{"changed": changed})
		}))
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	return nil
}

func registerAPI[T any](r router.Router[T], api httpapi.Executor, routes RouteConfig) {
	r.Post(routes.Widgets, router.WrapHandler(func(ctx router.Context) error {
		var payload board.CreateWidgetRequest
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		if err := api.Create(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusCreated, map[string]string{"status": "created"})
	}))

	r.Delete(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if id == "" {
			return respondStatus(ctx, http.StatusBadRequest, errors.New("widget id is required"))
		}
		if err := api.Remove(ctx.Context(), commands.RemoveWidgetInput{WidgetID: id}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusNoContent, map[string]string{"status": "removed"})
	}))

	r.Post(routes.Retry, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if id == "" {
			return respondStatus(ctx, http.StatusBadRequest, errors.New("widget id is required"))
		}
		if err := api.Retry(ctx.Context(), commands.RetryWidgetInput{WidgetID: id}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
	}))

	r.Post(routes.Query, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		var payload struct {
			Query map[string]any `json:"query"`
		}
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		input := commands.UpdateWidgetQueryInput{WidgetID: id, Query: payload.Query}
		if err := api.UpdateQuery(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "updated"})
	}))

	r.Post(routes.WidgetRange, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		var payload commands.SetWidgetTimeRangeInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		payload.WidgetID = id
		if err := api.WidgetRange(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "updated"})
	}))

	r.Post(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ApplyLayoutInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		if err := api.Layout(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "applied"})
	}))

	r.Post(routes.GlobalRange, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SetGlobalTimeRangeInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		if err := api.GlobalRange(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "updated"})
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *board.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func respondError(ctx router.Context, err error) error {
	return respondStatus(ctx, httpapi.StatusForError(err), err)
}

func respondStatus(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Board == "" {
		routes.Board = "/board"
	}
	if routes.Widgets == "" {
		routes.Widgets = "/board/widgets"
	}
	if routes.WidgetID == "" {
		routes.WidgetID = "/board/widgets/:id"
	}
	if routes.Retry == "" {
		routes.Retry = "/board/widgets/:id/retry"
	}
	if routes.Query == "" {
		routes.Query = "/board/widgets/:id/query"
	}
	if routes.WidgetRange == "" {
		routes.WidgetRange = "/board/widgets/:id/time-range"
	}
	if routes.Layout == "" {
		routes.Layout = "/board/layout"
	}
	if routes.GlobalRange == "" {
		routes.GlobalRange = "/board/time-range"
	}
	if routes.Resize == "" {
		routes.Resize = "/board/resize"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/board/ws"
	}
	return routes
}
