package domain

import "time"

// Message roles within a conversation thread.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single turn in a conversation thread. Assistant messages
// that request a tool carry the action; tool-result messages carry the
// tool name and, on failure, IsError.
type Message struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Action    *ActionRequest `json:"action,omitempty"`
	ToolName  string         `json:"toolName,omitempty"`
	IsError   bool           `json:"isError,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Thread is a durable conversation between one user and the assistant.
// Messages are append-only. Pending is non-nil exactly while the thread
// is suspended awaiting an approval decision; at most one pending action
// can exist per thread.
type Thread struct {
	ID        string         `json:"threadId"`
	UserID    int64          `json:"userId"`
	Messages  []Message      `json:"messages"`
	Pending   *ActionRequest `json:"pendingAction,omitempty"`
	Summary   string         `json:"summary"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Append adds a message to the thread, stamping it if needed.
func (t *Thread) Append(msg Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	t.Messages = append(t.Messages, msg)
}

// Suspended reports whether the thread is blocked on an approval decision.
func (t *Thread) Suspended() bool {
	return t.Pending != nil
}
