package board

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "360px"

var sharedChartCache = NewChartCache(5 * time.Minute)

// ChartRenderer turns a widget's cached results into embeddable markup.
// Metric and table widgets carry raw payloads instead of chart HTML, so only
// the chart-shaped types render here.
type ChartRenderer interface {
	Render(widget Widget) (string, error)
}

// EChartsRenderer renders server-side chart HTML for chart-shaped widgets.
type EChartsRenderer struct {
	cache RenderCache
	theme string
}

// EChartsRendererOption customizes renderer behavior.
type EChartsRendererOption func(*EChartsRenderer)

// WithRenderCache injects a render cache.
func WithRenderCache(cache RenderCache) EChartsRendererOption {
	return func(r *EChartsRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets a static theme (defaults to Westeros).
func WithChartTheme(theme string) EChartsRendererOption {
	return func(r *EChartsRenderer) {
		r.theme = theme
	}
}

// NewEChartsRenderer builds a renderer.
func NewEChartsRenderer(options ...EChartsRendererOption) *EChartsRenderer {
	r := &EChartsRenderer{
		cache: sharedChartCache,
		theme: types.ThemeWesteros,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Render produces chart HTML from the widget's cached rows.
func (r *EChartsRenderer) Render(widget Widget) (string, error) {
	if widget.Data.Results.Empty() {
		return "", fmt.Errorf("board: widget %s has no results to render", widget.ID)
	}
	rows := widget.Data.Results.Data
	renderFn := func() (string, error) {
		return r.render(widget, rows)
	}
	if r.cache != nil {
		key := fmt.Sprintf("%s:%s:%s", widget.ID, widget.Type, resultsHash(rows))
		return r.cache.GetOrRender(key, renderFn)
	}
	return renderFn()
}

func (r *EChartsRenderer) render(widget Widget, rows []map[string]any) (string, error) {
	labels, values := seriesFromRows(rows)
	switch widget.Type {
	case WidgetTypePie:
		return r.renderPie(widget.Title, labels, values)
	case WidgetTypeBar:
		return r.renderBar(widget.Title, labels, values)
	case WidgetTypeLine:
		return r.renderLine(widget.Title, labels, values, false)
	case WidgetTypeArea:
		return r.renderLine(widget.Title, labels, values, true)
	case WidgetTypeScatter:
		return r.renderScatter(widget.Title, rows)
	default:
		return "", fmt.Errorf("board: widget type %s has no chart rendering", widget.Type)
	}
}

func (r *EChartsRenderer) renderPie(title string, labels []string, values []float64) (string, error) {
	pie := charts.NewPie()
	pie.SetGlobalOptions(r.globalChartOptions(title)...)
	data := make([]opts.PieData, len(values))
	for i, v := range values {
		name := labels[i]
		if name == "" {
			name = fmt.Sprintf("Slice %d", i+1)
		}
		data[i] = opts.PieData{Name: name, Value: v}
	}
	pie.AddSeries(title, data)
	return renderChart(pie)
}

func (r *EChartsRenderer) renderBar(title string, labels []string, values []float64) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(r.globalChartOptions(title)...)
	bar.SetXAxis(labels)
	data := make([]opts.BarData, len(values))
	for i, v := range values {
		data[i] = opts.BarData{Value: v}
	}
	bar.AddSeries(title, data)
	return renderChart(bar)
}

func (r *EChartsRenderer) renderLine(title string, labels []string, values []float64, area bool) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(r.globalChartOptions(title)...)
	line.SetXAxis(labels)
	data := make([]opts.LineData, len(values))
	for i, v := range values {
		data[i] = opts.LineData{Value: v}
	}
	line.AddSeries(title, data)
	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	}
	if area {
		seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: 0.4}))
	}
	line.SetSeriesOptions(seriesOpts...)
	return renderChart(line)
}

func (r *EChartsRenderer) renderScatter(title string, rows []map[string]any) (string, error) {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(r.globalChartOptions(title)...)
	data := make([]opts.ScatterData, 0, len(rows))
	for i, row := range rows {
		x, okX := numberValue(row["x"])
		y, okY := numberValue(row["y"])
		if !okX || !okY {
			if v, ok := numberValue(row["value"]); ok {
				x, y = float64(i+1), v
			} else {
				continue
			}
		}
		data = append(data, opts.ScatterData{Value: []float64{x, y}})
	}
	scatter.AddSeries(title, data)
	return renderChart(scatter)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *EChartsRenderer) globalChartOptions(title string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  r.theme,
			Width:  "100%",
			Height: defaultChartHeight,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

// seriesFromRows extracts {label, value} pairs from aggregation rows. Rows
// use the backend's bucket shape: key/label for the bucket name, value/count
// for the measure.
func seriesFromRows(rows []map[string]any) ([]string, []float64) {
	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		label := stringValue(row["key"], stringValue(row["label"], ""))
		value, ok := numberValue(row["value"])
		if !ok {
			value, ok = numberValue(row["count"])
		}
		if !ok {
			continue
		}
		labels = append(labels, label)
		values = append(values, value)
	}
	return labels, values
}

func stringValue(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func numberValue(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
