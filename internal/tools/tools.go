// Package tools defines the registry of operations the agent can call.
// Domain packages register their tools at startup; the agent loop
// dispatches model tool calls through Execute.
package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/storage"
)

// Session is the per-conversation execution context passed to every
// tool handler. Handlers get their dependencies from here rather than
// from package state.
type Session struct {
	UserID string
	Store  storage.DocumentStore
}

// Handler executes a tool call for a session.
type Handler func(ctx context.Context, sess *Session, args map[string]any) (string, error)

// Tool represents a callable tool.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Handler     Handler        `json:"-"`
}

// Registry holds available tools.
type Registry struct {
	tools map[string]*Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Tool),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Names returns registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all tools in the function-call format providers expect,
// sorted by name so requests are deterministic.
func (r *Registry) List() []map[string]any {
	var result []map[string]any
	for _, name := range r.Names() {
		t := r.tools[name]
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return result
}

// Execute runs a tool by name. The returned text is always safe to hand
// back to the model: unknown tools, missing required parameters, and
// handler failures come back as error text with a non-nil error marking
// the text as an error result.
func (r *Registry) Execute(ctx context.Context, sess *Session, name string, args map[string]any) (string, error) {
	tool := r.tools[name]
	if tool == nil {
		err := fmt.Errorf("unknown tool: %s", name)
		return fmt.Sprintf("ПОМИЛКА: Tool %s не знайдено", name), err
	}

	if missing := missingRequired(tool.Parameters, args); missing != "" {
		err := fmt.Errorf("missing required parameter: %s", missing)
		return fmt.Sprintf("ПОМИЛКА при виконанні %s: %v", name, err), err
	}

	result, err := tool.Handler(ctx, sess, args)
	if err != nil {
		// Handlers may supply their own error text; wrap only bare errors.
		if result == "" {
			result = fmt.Sprintf("ПОМИЛКА при виконанні %s: %v", name, err)
		}
		return result, err
	}
	return result, nil
}

// missingRequired returns the first required schema parameter absent
// from args, or "" when all are present.
func missingRequired(schema, args map[string]any) string {
	required, ok := schema["required"]
	if !ok {
		return ""
	}

	var names []string
	switch req := required.(type) {
	case []string:
		names = req
	case []any:
		for _, v := range req {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
	}

	for _, name := range names {
		if _, ok := args[name]; !ok {
			return name
		}
	}
	return ""
}
