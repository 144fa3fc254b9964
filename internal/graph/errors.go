package graph

import "errors"

var (
	// ErrApprovalPending is returned when a new message arrives for a
	// thread that is suspended awaiting an approval decision.
	ErrApprovalPending = errors.New("thread is awaiting an approval decision")

	// ErrNoPendingAction is returned when an approval decision arrives
	// for a thread with nothing pending, including a replayed decision.
	ErrNoPendingAction = errors.New("no pending action for thread")
)
