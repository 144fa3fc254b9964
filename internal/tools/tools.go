// Package tools implements the capabilities the assistant can invoke
// during a conversation: assessments, knowledge retrieval, and the
// therapist alert.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/havenproj/haven/internal/domain"
	"github.com/havenproj/haven/internal/llm"
)

// Tool is a capability the assistant can invoke during a conversation.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Parameters returns the JSON Schema for the tool's arguments.
	Parameters() json.RawMessage

	// Group returns the routing group the tool belongs to.
	Group() domain.ToolGroup

	// Execute runs the tool for the given user and returns the text fed
	// back into the conversation.
	Execute(ctx context.Context, userID int64, act domain.Action) (string, error)
}

// Registry holds available tools.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Specs returns model-ready tool definitions in registration order.
func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return specs
}

// wrongAction is returned when a tool receives an action variant that
// does not belong to it. Indicates a routing bug, not user input.
func wrongAction(tool string, act domain.Action) error {
	return fmt.Errorf("tool %s received action %s", tool, act.ActionName())
}
