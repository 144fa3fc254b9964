// Package llm provides the decision node: given a conversation history
// and a user profile, produce either an assistant reply, a tool request,
// or both.
package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/havenproj/haven/internal/domain"
)

// ErrUnavailable indicates the model backend could not be reached or
// returned an unusable response. Callers should surface a retryable
// failure rather than fabricating an assistant reply.
var ErrUnavailable = errors.New("assistant model unavailable")

// ToolSpec describes one callable tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Decision is the outcome of one model call. Text may accompany an
// action; an empty decision (no text, no action) is treated as a model
// failure by the caller.
type Decision struct {
	Text   string
	Action *domain.ActionRequest
}

// Decider chooses the next step of a conversation turn.
type Decider interface {
	Decide(ctx context.Context, history []domain.Message, summary string, profile domain.Profile) (*Decision, error)
}
