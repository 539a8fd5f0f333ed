package board

func aggregatedQuerySchema(required bool) map[string]any {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type": "string",
			},
			"aggregation": map[string]any{
				"type":     "object",
				"required": []string{"type", "field"},
				"properties": map[string]any{
					"type": map[string]any{
						"type": "string",
						"enum": []string{"terms", "date_histogram", "avg", "sum", "min", "max", "count"},
					},
					"field": map[string]any{
						"type": "string",
					},
					"interval": map[string]any{
						"type": "string",
					},
					"size": map[string]any{
						"type":    "integer",
						"minimum": 1,
						"maximum": 1000,
					},
				},
				"additionalProperties": false,
			},
			"size": map[string]any{
				"type":    "integer",
				"minimum": 0,
				"maximum": 10000,
			},
		},
		"additionalProperties": false,
	}
	if required {
		schema["required"] = []string{"aggregation"}
	}
	return schema
}

func tableQuerySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type": "string",
			},
			"fields": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": 1,
			},
			"size": map[string]any{
				"type":    "integer",
				"minimum": 1,
				"maximum": 10000,
				"default": 100,
			},
			"sort": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"field": map[string]any{"type": "string"},
					"order": map[string]any{"type": "string", "enum": []string{"asc", "desc"}},
				},
			},
		},
		"additionalProperties": false,
	}
}

var defaultTypeDefinitions = []TypeDefinition{
	{
		Type:        WidgetTypePie,
		Name:        "Pie Chart",
		Description: "Share-of-total slices from a terms aggregation.",
		QuerySchema: aggregatedQuerySchema(true),
		DefaultQuery: map[string]any{
			"aggregation": map[string]any{"type": "terms", "field": "status", "size": 10},
		},
	},
	{
		Type:        WidgetTypeBar,
		Name:        "Bar Chart",
		Description: "Bucketed comparison across a keyword field.",
		QuerySchema: aggregatedQuerySchema(true),
		DefaultQuery: map[string]any{
			"aggregation": map[string]any{"type": "terms", "field": "category", "size": 20},
		},
	},
	{
		Type:        WidgetTypeLine,
		Name:        "Line Chart",
		Description: "Value over time from a date histogram.",
		QuerySchema: aggregatedQuerySchema(true),
		DefaultQuery: map[string]any{
			"aggregation": map[string]any{"type": "date_histogram", "field": "@timestamp", "interval": "1h"},
		},
	},
	{
		Type:        WidgetTypeMetric,
		Name:        "Metric",
		Description: "Single headline number.",
		QuerySchema: aggregatedQuerySchema(true),
		DefaultQuery: map[string]any{
			"aggregation": map[string]any{"type": "count", "field": "_id"},
		},
	},
	{
		Type:        WidgetTypeTable,
		Name:        "Table",
		Description: "Raw rows with selectable columns.",
		QuerySchema: tableQuerySchema(),
		DefaultQuery: map[string]any{
			"size": 100,
		},
	},
	{
		Type:        WidgetTypeArea,
		Name:        "Area Chart",
		Description: "Stacked value over time.",
		QuerySchema: aggregatedQuerySchema(true),
		DefaultQuery: map[string]any{
			"aggregation": map[string]any{"type": "date_histogram", "field": "@timestamp", "interval": "1h"},
		},
	},
	{
		Type:        WidgetTypeScatter,
		Name:        "Scatter Chart",
		Description: "Value-vs-value point cloud.",
		QuerySchema: aggregatedQuerySchema(false),
		DefaultQuery: map[string]any{
			"size": 500,
		},
	},
}

// DefaultTypeDefinitions returns copies of the built-in widget type definitions.
func DefaultTypeDefinitions() []TypeDefinition {
	out := make([]TypeDefinition, len(defaultTypeDefinitions))
	copy(out, defaultTypeDefinitions)
	return out
}
