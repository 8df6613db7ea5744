// Package tools holds the actions the reasoning agent can call by name.
package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/futig/mcq-reasoner/internal/metrics"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Tool is a named action taking one line of text input
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input string) (string, error)
}

// Registry dispatches tool calls by exact, case-sensitive name
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	order   []string
	metrics *metrics.Metrics
}

// NewRegistry returns a registry holding the built-in tools
func NewRegistry(m *metrics.Metrics) *Registry {
	r := &Registry{
		tools:   make(map[string]Tool),
		metrics: m,
	}
	r.Register(Calculator{})
	r.Register(ContextAnalyzer{})
	return r
}

// Register adds t, replacing any tool with the same name
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns tool names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Describe renders one "Name: description" line per tool
func (r *Registry) Describe() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines := make([]string, 0, len(r.order))
	for _, name := range r.order {
		lines = append(lines, name+": "+r.tools[name].Description())
	}
	return strings.Join(lines, "\n")
}

// Execute runs the named tool and always returns an observation. Unknown
// names and tool failures come back as "Error: ..." text.
func (r *Registry) Execute(ctx context.Context, name, input string) string {
	t, ok := r.Get(name)
	if !ok {
		r.metrics.ToolCall(name, "not_found")
		return fmt.Sprintf("Error: Tool '%s' not found. Available tools: %s", name, quoteList(r.Names()))
	}

	out, err := t.Execute(ctx, input)
	if err != nil {
		ctxzap.Extract(ctx).Error("tool failed",
			zap.String("tool", name),
			zap.Error(err),
		)
		r.metrics.ToolCall(name, "error")
		return "Error: " + err.Error()
	}

	r.metrics.ToolCall(name, "ok")
	return out
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
