package board

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
version: "1"
name: Operations
index: logs-*
widgets:
  - title: Errors by service
    type: bar
    query:
      aggregation:
        type: terms
        field: service
  - title: Request volume
    type: line
    index: traffic-*
    time_range:
      type: preset
      preset: last_7d
      from: now-7d
      to: now
      label: Last 7 days
  - title: Recent events
    type: table
`

func TestDecodeManifest(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)
	assert.Equal(t, "Operations", doc.Name)
	require.Len(t, doc.Widgets, 3)

	second := doc.Widgets[1]
	assert.Equal(t, "traffic-*", second.Index)
	require.NotNil(t, second.TimeRange)
	assert.Equal(t, "last_7d", second.TimeRange.Preset)

	// Third entry inherits the manifest-level index at seed time.
	assert.Empty(t, doc.Widgets[2].Index)
}

func TestDecodeManifestRejectsUnknownFields(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader("version: \"1\"\nsurprise: true\n"))
	assert.Error(t, err)
}

func TestDecodeManifestRejectsEmptyInput(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader(""))
	assert.Error(t, err)
}

func TestManifestValidate(t *testing.T) {
	cases := []struct {
		name string
		doc  BoardManifest
	}{
		{"bad version", BoardManifest{Version: "2"}},
		{"missing title", BoardManifest{Version: "1", Index: "logs-*", Widgets: []ManifestWidget{{Type: WidgetTypeBar}}}},
		{"unknown type", BoardManifest{Version: "1", Index: "logs-*", Widgets: []ManifestWidget{{Title: "x", Type: "gauge"}}}},
		{"no index anywhere", BoardManifest{Version: "1", Widgets: []ManifestWidget{{Title: "x", Type: WidgetTypeBar}}}},
		{"bad time range", BoardManifest{Version: "1", Index: "logs-*", Widgets: []ManifestWidget{
			{Title: "x", Type: WidgetTypeBar, TimeRange: &TimeRange{Type: "weird"}},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, tc.doc.Validate())
		})
	}
}

func TestSeedBoardCreatesWidgets(t *testing.T) {
	client := &scriptedClient{responses: []scriptedResponse{{result: successRows()}}}
	svc, store := newTestService(t, client)

	doc, err := DecodeManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)
	require.NoError(t, SeedBoard(context.Background(), svc, doc))
	svc.Wait()

	widgets, err := store.Widgets(context.Background())
	require.NoError(t, err)
	require.Len(t, widgets, 3)
	assert.Equal(t, "logs-*", widgets[0].Index, "manifest default index")
	assert.Equal(t, "traffic-*", widgets[1].Index, "per-widget index wins")
	require.NotNil(t, widgets[1].FixedTimeRange)
	assert.Equal(t, "last_7d", widgets[1].FixedTimeRange.Preset)
}

func TestSeedBoardJoinsFailures(t *testing.T) {
	client := &scriptedClient{responses: []scriptedResponse{{result: successRows()}}}
	svc, store := newTestService(t, client)

	doc := &BoardManifest{
		Version: "1",
		Index:   "logs-*",
		Widgets: []ManifestWidget{
			{Title: "good", Type: WidgetTypeTable},
			{Title: "bad", Type: WidgetTypeBar, Query: map[string]any{
				"aggregation": map[string]any{"type": "bogus", "field": "f"},
			}},
			{Title: "also good", Type: WidgetTypeTable},
		},
	}
	err := SeedBoard(context.Background(), svc, doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	svc.Wait()

	widgets, storeErr := store.Widgets(context.Background())
	require.NoError(t, storeErr)
	assert.Len(t, widgets, 2, "one bad entry must not abort the rest")
}

func TestReadWriteManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.yaml")
	doc, err := DecodeManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)

	require.NoError(t, WriteManifest(path, doc))
	loaded, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, path, loaded.Source)
	assert.Equal(t, doc.Name, loaded.Name)
	require.Len(t, loaded.Widgets, len(doc.Widgets))
	assert.Equal(t, doc.Widgets[0].Title, loaded.Widgets[0].Title)
}
