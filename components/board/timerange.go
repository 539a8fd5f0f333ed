package board

import (
	"fmt"
	"time"
)

// Time range kinds.
const (
	TimeRangePreset = "preset"
	TimeRangeCustom = "custom"
)

// TimeRange is one time window. Preset ranges carry boundary expressions the
// query backend resolves at execution time; custom ranges carry RFC 3339
// instants. A range is immutable once attached to a fetch.
type TimeRange struct {
	Type   string `json:"type"`
	Preset string `json:"preset,omitempty"`
	From   string `json:"from"`
	To     string `json:"to"`
	Label  string `json:"label"`
}

type presetWindow struct {
	from  string
	label string
	span  time.Duration
}

var presetWindows = map[string]presetWindow{
	"last_15m": {from: "now-15m", label: "Last 15 minutes", span: 15 * time.Minute},
	"last_1h":  {from: "now-1h", label: "Last hour", span: time.Hour},
	"last_24h": {from: "now-24h", label: "Last 24 hours", span: 24 * time.Hour},
	"last_7d":  {from: "now-7d", label: "Last 7 days", span: 7 * 24 * time.Hour},
	"last_30d": {from: "now-30d", label: "Last 30 days", span: 30 * 24 * time.Hour},
}

// DefaultTimeRange is the ambient window used when none was configured.
func DefaultTimeRange() TimeRange {
	tr, _ := NewPresetRange("last_24h")
	return tr
}

// NewPresetRange maps a preset name to its boundary expressions.
func NewPresetRange(preset string) (TimeRange, error) {
	window, ok := presetWindows[preset]
	if !ok {
		return TimeRange{}, &ValidationError{Field: "time_range.preset", Reason: fmt.Sprintf("unknown preset %q", preset)}
	}
	return TimeRange{
		Type:   TimeRangePreset,
		Preset: preset,
		From:   window.from,
		To:     "now",
		Label:  window.label,
	}, nil
}

// NewCustomRange validates both instants and their ordering before the range
// is allowed to exist; prior state is never mutated on rejection.
func NewCustomRange(from, to, label string) (TimeRange, error) {
	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return TimeRange{}, &ValidationError{Field: "time_range.from", Reason: fmt.Sprintf("parse %q: %v", from, err)}
	}
	end, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return TimeRange{}, &ValidationError{Field: "time_range.to", Reason: fmt.Sprintf("parse %q: %v", to, err)}
	}
	if start.After(end) {
		return TimeRange{}, &ValidationError{Field: "time_range", Reason: "from must not be after to"}
	}
	if label == "" {
		label = fmt.Sprintf("%s → %s", from, to)
	}
	return TimeRange{
		Type:  TimeRangeCustom,
		From:  from,
		To:    to,
		Label: label,
	}, nil
}

// Validate re-checks a range that arrived over the wire.
func (tr TimeRange) Validate() error {
	switch tr.Type {
	case TimeRangePreset:
		if _, ok := presetWindows[tr.Preset]; !ok {
			return &ValidationError{Field: "time_range.preset", Reason: fmt.Sprintf("unknown preset %q", tr.Preset)}
		}
		return nil
	case TimeRangeCustom:
		_, err := NewCustomRange(tr.From, tr.To, tr.Label)
		return err
	default:
		return &ValidationError{Field: "time_range.type", Reason: fmt.Sprintf("unknown type %q", tr.Type)}
	}
}

// Window resolves the range to concrete instants relative to now. Backends
// that cannot evaluate boundary expressions use this instead.
func (tr TimeRange) Window(now time.Time) (time.Time, time.Time, error) {
	switch tr.Type {
	case TimeRangePreset:
		window, ok := presetWindows[tr.Preset]
		if !ok {
			return time.Time{}, time.Time{}, &ValidationError{Field: "time_range.preset", Reason: fmt.Sprintf("unknown preset %q", tr.Preset)}
		}
		return now.Add(-window.span), now, nil
	case TimeRangeCustom:
		from, err := time.Parse(time.RFC3339, tr.From)
		if err != nil {
			return time.Time{}, time.Time{}, &ValidationError{Field: "time_range.from", Reason: err.Error()}
		}
		to, err := time.Parse(time.RFC3339, tr.To)
		if err != nil {
			return time.Time{}, time.Time{}, &ValidationError{Field: "time_range.to", Reason: err.Error()}
		}
		return from, to, nil
	default:
		return time.Time{}, time.Time{}, &ValidationError{Field: "time_range.type", Reason: fmt.Sprintf("unknown type %q", tr.Type)}
	}
}

// IsZero reports whether the range was never set.
func (tr TimeRange) IsZero() bool {
	return tr.Type == ""
}

// CanonicalKey is a stable, order-independent serialization of the window,
// usable as part of an ExecutionKey.
func (tr TimeRange) CanonicalKey() string {
	if tr.Type == TimeRangePreset {
		return "preset:" + tr.Preset
	}
	return fmt.Sprintf("custom:%s..%s", tr.From, tr.To)
}

// ResolveTimeRange computes the effective window for a widget: its own
// override when set, otherwise the ambient global window.
func ResolveTimeRange(widget Widget, global TimeRange) TimeRange {
	if widget.FixedTimeRange != nil {
		return *widget.FixedTimeRange
	}
	return global
}

// ExecutionKey identifies one logical fetch attempt. Key equality is the
// basis for deduplication and staleness detection; position is deliberately
// not part of the key.
type ExecutionKey struct {
	WidgetID string
	Index    string
	Range    string
}

// NewExecutionKey derives the key for a widget and its effective window.
func NewExecutionKey(widget Widget, effective TimeRange) ExecutionKey {
	return ExecutionKey{
		WidgetID: widget.ID,
		Index:    widget.Index,
		Range:    effective.CanonicalKey(),
	}
}

func (k ExecutionKey) String() string {
	return k.WidgetID + "|" + k.Index + "|" + k.Range
}
