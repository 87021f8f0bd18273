package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Tool is a named operation an MCP client can call.
type Tool interface {
	// Name returns the tool's unique name.
	Name() string
	// Description returns a human-readable description of the tool.
	Description() string
	// Parameters returns the JSON Schema describing the tool's input.
	Parameters() map[string]any
	// Execute runs the tool with the given arguments.
	// Returns the result text and whether the tool call was successful.
	Execute(ctx context.Context, args map[string]any) (string, bool)
}

// Registry manages a collection of tools.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	logger *slog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// SetLogger makes Execute log every tool call at debug level.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register adds a tool, replacing any tool with the same name.
func (r *Registry) Register(tools ...Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tool := range tools {
		name := tool.Name()
		if _, exists := r.tools[name]; !exists {
			r.order = append(r.order, name)
		}
		r.tools[name] = tool
	}
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Definitions returns tools/list entries in registration order.
func (r *Registry) Definitions() []toolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]toolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, toolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Parameters(),
		})
	}
	return defs
}

// Execute runs the named tool with the given arguments.
// Returns the result text, success flag, and an error if the tool was not found.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	logger := r.logger
	r.mu.RUnlock()
	if !ok {
		return "", false, fmt.Errorf("unknown tool: %s", name)
	}
	start := time.Now()
	result, success := t.Execute(ctx, args)
	if logger != nil {
		logger.Debug("tool call", "tool", name, "success", success, "duration", time.Since(start))
	}
	return result, success, nil
}
