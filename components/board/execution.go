package board

import (
	"context"
	"sync"
	"time"
)

// Execution defaults. The freshness threshold is configurable; 5s matches the
// interval below which a re-trigger with unchanged inputs is pure churn.
const (
	DefaultFreshness   = 5 * time.Second
	DefaultMaxAttempts = 3

	baseRetryDelay = time.Second
	maxRetryDelay  = 5 * time.Second
)

// ExecutionPhase is the externally visible fetch state of one widget.
type ExecutionPhase string

const (
	PhaseIdle    ExecutionPhase = "idle"
	PhaseLoading ExecutionPhase = "loading"
	PhaseSuccess ExecutionPhase = "success"
	PhaseFailed  ExecutionPhase = "failed"
)

// ExecutionState is a snapshot of a widget's execution lifecycle.
type ExecutionState struct {
	Phase   ExecutionPhase
	Attempt int
	Err     error
}

// ExecutionOptions configures an ExecutionController.
type ExecutionOptions struct {
	Store       WidgetStore
	Client      QueryClient
	RefreshHook RefreshHook
	Telemetry   Telemetry
	ServerID    string
	Freshness   time.Duration
	MaxAttempts int
	Now         func() time.Time
	Sleep       func(ctx context.Context, d time.Duration) error
}

// ExecutionController runs widget queries at most once per distinct
// ExecutionKey, retries transient failures with bounded exponential backoff,
// and discards results whose key no longer matches the widget's desired key.
// Each widget's lifecycle is independent; a failing widget never blocks its
// siblings.
type ExecutionController struct {
	store       WidgetStore
	client      QueryClient
	hook        RefreshHook
	telemetry   Telemetry
	serverID    string
	freshness   time.Duration
	maxAttempts int
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error

	mu   sync.Mutex
	runs map[string]*widgetRun
	wg   sync.WaitGroup

	// commitMu serializes result commits so a slow fetch cannot interleave
	// its store write with a newer fetch's commit.
	commitMu sync.Mutex
}

// widgetRun tracks the in-flight flag and desired key for one widget. All
// access goes through the controller mutex: the at-most-one-in-flight-per-key
// guarantee depends on it. fetched records the key the stored results were
// committed for; the freshness guard only applies when it matches.
type widgetRun struct {
	inFlight bool
	desired  ExecutionKey
	fetched  ExecutionKey
	phase    ExecutionPhase
	attempt  int
	err      error
}

// NewExecutionController builds a controller with safe defaults.
func NewExecutionController(opts ExecutionOptions) *ExecutionController {
	if opts.Freshness <= 0 {
		opts.Freshness = DefaultFreshness
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	return &ExecutionController{
		store:       opts.Store,
		client:      opts.Client,
		hook:        opts.RefreshHook,
		telemetry:   normalizeTelemetry(opts.Telemetry),
		serverID:    opts.ServerID,
		freshness:   opts.Freshness,
		maxAttempts: opts.MaxAttempts,
		now:         opts.Now,
		sleep:       opts.Sleep,
		runs:        make(map[string]*widgetRun),
	}
}

// Trigger starts a fetch for the widget's effective time range. Calls are
// no-ops when the widget has no query, when the same key is already in
// flight, or when cached results are still fresh.
func (c *ExecutionController) Trigger(ctx context.Context, widget Widget, effective TimeRange) error {
	return c.trigger(ctx, widget, effective, false)
}

// Retry is the explicit manual re-entry from Failed into a fresh attempt
// sequence. It bypasses the freshness guard but not the in-flight dedup.
func (c *ExecutionController) Retry(ctx context.Context, widget Widget, effective TimeRange) error {
	c.telemetry.Record(ctx, "board.widget.retry", map[string]any{"widget_id": widget.ID})
	return c.trigger(ctx, widget, effective, true)
}

func (c *ExecutionController) trigger(ctx context.Context, widget Widget, effective TimeRange, force bool) error {
	if !widget.HasQuery() {
		return nil
	}
	if c.client == nil {
		return errMissingQueryClient
	}
	if widget.Index == "" {
		err := &ConfigurationError{WidgetID: widget.ID, Reason: "no index bound"}
		c.mu.Lock()
		run := c.run(widget.ID)
		run.phase = PhaseFailed
		run.err = err
		c.mu.Unlock()
		c.notify(ctx, WidgetEvent{WidgetID: widget.ID, Reason: EventFailed, Error: err.Error()})
		return err
	}

	key := NewExecutionKey(widget, effective)

	c.mu.Lock()
	run := c.run(widget.ID)
	if run.inFlight && run.desired == key {
		c.mu.Unlock()
		return nil
	}
	// The guard never applies across key changes: a new range or index must
	// always fetch, no matter how recent the old key's results are.
	if !force && run.fetched == key && !widget.Data.Results.Empty() && c.now().Sub(widget.Data.LastUpdated) < c.freshness {
		run.desired = key
		run.phase = PhaseSuccess
		run.attempt = 0
		run.err = nil
		c.mu.Unlock()
		c.telemetry.Record(ctx, "board.widget.fetch_skip", map[string]any{"widget_id": widget.ID, "key": key.String()})
		return nil
	}
	run.inFlight = true
	run.desired = key
	run.phase = PhaseLoading
	run.attempt = 1
	run.err = nil
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.execute(ctx, widget, effective, key)
	}()
	return nil
}

// execute owns the retry loop for one key. Backoff is a cooperative,
// context-cancellable wait; no goroutine ever blocks another widget.
func (c *ExecutionController) execute(ctx context.Context, widget Widget, effective TimeRange, key ExecutionKey) {
	req := QueryRequest{
		Index:     widget.Index,
		Query:     widget.Data.Query,
		ServerID:  c.serverID,
		TimeRange: effective,
	}
	for attempt := 1; ; attempt++ {
		c.markAttempt(ctx, widget.ID, key, attempt)
		result, err := c.client.ExecuteQuery(ctx, req)
		if err == nil {
			c.commit(ctx, widget.ID, key, result)
			return
		}
		if !IsTransient(err) || attempt >= c.maxAttempts {
			c.fail(ctx, widget.ID, key, attempt, err)
			return
		}
		c.telemetry.Record(ctx, "board.widget.fetch_error", map[string]any{
			"widget_id": widget.ID,
			"attempt":   attempt,
			"error":     err.Error(),
		})
		if err := c.sleep(ctx, RetryDelay(attempt)); err != nil {
			c.fail(ctx, widget.ID, key, attempt, err)
			return
		}
	}
}

// RetryDelay returns the backoff before the attempt following a failed
// attempt n: 1s, 2s, 4s, capped at 5s.
func RetryDelay(attempt int) time.Duration {
	delay := baseRetryDelay << (attempt - 1)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

// commit stores results atomically. A result whose key no longer matches the
// widget's desired key is discarded so an older, slower request never
// overwrites newer state. The desired key is re-checked immediately before
// the store write, with commitMu held across the whole section, so a newer
// fetch can neither slip its commit underneath this one nor be overwritten
// by it.
func (c *ExecutionController) commit(ctx context.Context, widgetID string, key ExecutionKey, result QueryResult) {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	if !c.keyDesired(widgetID, key) {
		c.dropStale(ctx, widgetID, key)
		return
	}

	widget, ok, err := c.store.Widget(ctx, widgetID)
	if err != nil || !ok {
		return
	}
	config := mergeConfig(widget.Data.Config, result.Data)

	c.mu.Lock()
	run := c.run(widgetID)
	if run.desired != key {
		c.mu.Unlock()
		c.dropStale(ctx, widgetID, key)
		return
	}
	run.inFlight = false
	run.fetched = key
	run.phase = PhaseSuccess
	run.attempt = 0
	run.err = nil
	c.mu.Unlock()

	if err := c.store.UpdateWidgetData(ctx, widgetID, WidgetDataUpdate{
		Results:     &result,
		Config:      config,
		LastUpdated: c.now(),
	}); err != nil {
		c.telemetry.Record(ctx, "board.widget.store_error", map[string]any{"widget_id": widgetID, "error": err.Error()})
		return
	}
	c.telemetry.Record(ctx, "board.widget.fetch", map[string]any{"widget_id": widgetID, "rows": len(result.Data)})
	c.notify(ctx, WidgetEvent{WidgetID: widgetID, Reason: EventData})
}

func (c *ExecutionController) keyDesired(widgetID string, key ExecutionKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run(widgetID).desired == key
}

func (c *ExecutionController) dropStale(ctx context.Context, widgetID string, key ExecutionKey) {
	c.telemetry.Record(ctx, "board.widget.fetch_stale_drop", map[string]any{
		"widget_id": widgetID,
		"key":       key.String(),
	})
}

// fail surfaces the terminal error for this attempt sequence. Stale results,
// if any, stay visible; only a manual retry re-enters the loop.
func (c *ExecutionController) fail(ctx context.Context, widgetID string, key ExecutionKey, attempt int, err error) {
	c.mu.Lock()
	run := c.run(widgetID)
	if run.desired != key {
		c.mu.Unlock()
		return
	}
	run.inFlight = false
	run.phase = PhaseFailed
	run.attempt = attempt
	run.err = err
	c.mu.Unlock()
	c.telemetry.Record(ctx, "board.widget.fetch_failed", map[string]any{
		"widget_id": widgetID,
		"attempts":  attempt,
		"error":     err.Error(),
	})
	c.notify(ctx, WidgetEvent{WidgetID: widgetID, Reason: EventFailed, Attempt: attempt, Error: err.Error()})
}

func (c *ExecutionController) markAttempt(ctx context.Context, widgetID string, key ExecutionKey, attempt int) {
	c.mu.Lock()
	run := c.run(widgetID)
	current := run.desired == key
	if current {
		run.attempt = attempt
	}
	c.mu.Unlock()
	// Superseded attempts stay silent; subscribers only hear about the key
	// the widget currently wants.
	if current {
		c.notify(ctx, WidgetEvent{WidgetID: widgetID, Reason: EventLoading, Attempt: attempt})
	}
}

// State returns the current execution snapshot for a widget.
func (c *ExecutionController) State(widgetID string) ExecutionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	run, ok := c.runs[widgetID]
	if !ok {
		return ExecutionState{Phase: PhaseIdle}
	}
	return ExecutionState{Phase: run.phase, Attempt: run.attempt, Err: run.err}
}

// Invalidate clears the freshness record so the widget's next trigger always
// fetches. Needed when the query document changes without changing the
// execution key.
func (c *ExecutionController) Invalidate(widgetID string) {
	c.mu.Lock()
	if run, ok := c.runs[widgetID]; ok {
		run.fetched = ExecutionKey{}
	}
	c.mu.Unlock()
}

// Forget drops execution state for a removed widget.
func (c *ExecutionController) Forget(widgetID string) {
	c.mu.Lock()
	delete(c.runs, widgetID)
	c.mu.Unlock()
}

// Wait blocks until every in-flight fetch has resolved. Intended for tests
// and graceful shutdown.
func (c *ExecutionController) Wait() {
	c.wg.Wait()
}

func (c *ExecutionController) run(widgetID string) *widgetRun {
	run, ok := c.runs[widgetID]
	if !ok {
		run = &widgetRun{phase: PhaseIdle}
		c.runs[widgetID] = run
	}
	return run
}

func (c *ExecutionController) notify(ctx context.Context, event WidgetEvent) {
	if err := c.hook.WidgetUpdated(ctx, event); err != nil {
		c.telemetry.Record(ctx, "board.widget.hook_error", map[string]any{
			"widget_id": event.WidgetID,
			"error":     err.Error(),
		})
	}
}

// mergeConfig overlays the fetched rows onto the widget's render config
// without discarding user-authored keys.
func mergeConfig(existing map[string]any, rows []map[string]any) map[string]any {
	merged := make(map[string]any, len(existing)+1)
	for k, v := range existing {
		merged[k] = v
	}
	merged["data"] = rows
	return merged
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type noopRefreshHook struct{}

func (noopRefreshHook) WidgetUpdated(context.Context, WidgetEvent) error { return nil }
