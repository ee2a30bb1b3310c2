// Package tools exposes the analytical queries as named, schema-described
// functions a language model can call.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/KaramelBytes/samarth-cli/internal/ai"
)

// Handler executes a tool with its raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) Result

// Definition describes a callable tool.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
	Handler     Handler        `json:"-"`
}

// Registry holds tool definitions in registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Definition
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Definition)}
}

// Register adds or replaces a tool definition.
func (r *Registry) Register(def *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.tools[def.Name] = def
}

// List returns all registered tools in registration order.
func (r *Registry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Definitions returns the tools in the wire form sent to the model.
func (r *Registry) Definitions() []ai.ToolDefinition {
	defs := r.List()
	out := make([]ai.ToolDefinition, 0, len(defs))
	for _, d := range defs {
		out = append(out, ai.ToolDefinition{
			Type: "function",
			Function: ai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return out
}

// Call runs a tool by name. Unknown tools and malformed arguments become
// failure results rather than errors.
func (r *Registry) Call(ctx context.Context, name, argsJSON string) Result {
	r.mu.RLock()
	def, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return Failuref("Unknown tool %q.", name)
	}
	args := strings.TrimSpace(argsJSON)
	if args == "" {
		args = "{}"
	}
	if !json.Valid([]byte(args)) {
		return Failuref("Invalid arguments for %s: not valid JSON.", name)
	}
	return def.Handler(ctx, json.RawMessage(args))
}

// decodeArgs unmarshals tool arguments into dst.
func decodeArgs(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}

// Int accepts a JSON number or a numeric string; models emit both.
type Int struct {
	V   int
	Set bool
}

func (i *Int) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*i = Int{}
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("expected integer, got %s", string(b))
	}
	if f != float64(int(f)) {
		return fmt.Errorf("expected integer, got %s", string(b))
	}
	*i = Int{V: int(f), Set: true}
	return nil
}
