package llm

import (
	"context"
	"sync"

	"github.com/havenproj/haven/internal/domain"
)

// Scripted is a Decider that replays a fixed sequence of decisions.
// Used in tests and by the offline demo mode.
type Scripted struct {
	mu      sync.Mutex
	script  []Decision
	next    int
	Err     error
	History [][]domain.Message
}

// NewScripted returns a Decider that yields the given decisions in order.
// Once the script is exhausted it keeps returning the last entry.
func NewScripted(script ...Decision) *Scripted {
	return &Scripted{script: script}
}

func (s *Scripted) Decide(_ context.Context, history []domain.Message, _ string, _ domain.Profile) (*Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.History = append(s.History, history)
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.script) == 0 {
		return &Decision{Text: "I'm here with you."}, nil
	}
	i := s.next
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.next++
	d := s.script[i]
	return &d, nil
}

// Calls reports how many times Decide has been invoked.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
