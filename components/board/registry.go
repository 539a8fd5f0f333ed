package board

import (
	"fmt"
	"sync"
)

// TypeHook lets packages register widget type definitions during init().
type TypeHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []TypeHook
)

// RegisterTypeHook registers a hook executed against new registries.
func RegisterTypeHook(h TypeHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// TypeDefinition describes one widget type: display metadata, the JSON schema
// its query documents must satisfy, and the starter query used by scaffolding.
type TypeDefinition struct {
	Type         WidgetType     `json:"type" yaml:"type"`
	Name         string         `json:"name" yaml:"name"`
	Description  string         `json:"description,omitempty" yaml:"description,omitempty"`
	QuerySchema  map[string]any `json:"query_schema,omitempty" yaml:"query_schema,omitempty"`
	DefaultQuery map[string]any `json:"default_query,omitempty" yaml:"default_query,omitempty"`
}

// Registry stores widget type definitions discoverable via hooks.
type Registry struct {
	mu          sync.RWMutex
	definitions map[WidgetType]TypeDefinition
}

// NewRegistry builds a registry seeded with the built-in widget types and
// applies global hooks.
func NewRegistry() *Registry {
	reg := &Registry{
		definitions: map[WidgetType]TypeDefinition{},
	}
	for _, def := range DefaultTypeDefinitions() {
		_ = reg.RegisterDefinition(def)
	}
	_ = reg.ApplyHooks()
	return reg
}

// ApplyHooks executes registered type hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// RegisterDefinition stores widget type metadata.
func (r *Registry) RegisterDefinition(def TypeDefinition) error {
	if !def.Type.Valid() {
		return fmt.Errorf("board: unknown widget type %q", def.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Type] = def
	return nil
}

// Definition fetches a type definition.
func (r *Registry) Definition(widgetType WidgetType) (TypeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[widgetType]
	return def, ok
}

// Definitions returns all registered type definitions.
func (r *Registry) Definitions() []TypeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]TypeDefinition, 0, len(r.definitions))
	for _, t := range WidgetTypes() {
		if def, ok := r.definitions[t]; ok {
			defs = append(defs, def)
		}
	}
	return defs
}
