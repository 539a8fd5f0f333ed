package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// QueryValidator validates widget query documents against the schema
// registered for their widget type.
type QueryValidator interface {
	Validate(widgetType WidgetType, query map[string]any) error
}

// JSONSchemaValidator compiles per-type query schemas and validates query
// documents. Rejections are ValidationErrors: never retried, and committed
// state stays untouched.
type JSONSchemaValidator struct {
	registry *Registry
	mu       sync.RWMutex
	compiled map[WidgetType]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator(registry *Registry) *JSONSchemaValidator {
	if registry == nil {
		registry = NewRegistry()
	}
	return &JSONSchemaValidator{
		registry: registry,
		compiled: make(map[WidgetType]*jsonschema.Schema),
	}
}

// Validate ensures the query document satisfies the widget-type schema.
func (v *JSONSchemaValidator) Validate(widgetType WidgetType, query map[string]any) error {
	def, ok := v.registry.Definition(widgetType)
	if !ok || len(def.QuerySchema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(widgetType, def.QuerySchema)
	if err != nil {
		return err
	}
	payload := map[string]any{}
	if query != nil {
		data, err := json.Marshal(query)
		if err != nil {
			return &ValidationError{Field: "query", Reason: fmt.Sprintf("marshal query for %s: %v", widgetType, err)}
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return &ValidationError{Field: "query", Reason: fmt.Sprintf("normalize query for %s: %v", widgetType, err)}
		}
	}
	if err := schema.Validate(payload); err != nil {
		return &ValidationError{Field: "query", Reason: err.Error()}
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(widgetType WidgetType, raw map[string]any) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[widgetType]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("board: marshal schema %s: %w", widgetType, err)
	}
	compiler := jsonschema.NewCompiler()
	name := string(widgetType) + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("board: load schema %s: %w", widgetType, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("board: compile schema %s: %w", widgetType, err)
	}
	v.mu.Lock()
	v.compiled[widgetType] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopQueryValidator struct{}

func (noopQueryValidator) Validate(WidgetType, map[string]any) error { return nil }
