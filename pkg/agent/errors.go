package agent

import (
	"errors"
	"fmt"
)

// Caller mistakes, detected synchronously before any state mutation.
var (
	// ErrInvalidInput - malformed or out-of-bound conversation history
	ErrInvalidInput = errors.New("invalid message count")

	// ErrInvalidGoal - goal with a non-positive turn budget
	ErrInvalidGoal = errors.New("goal max_turns must be positive")

	// ErrTurnLimitExceeded - turn requested at or past the goal's turn ceiling
	ErrTurnLimitExceeded = errors.New("max turns reached")
)

// GenerationError wraps a failure from the reply-generation backend. The
// policy surfaces it without advancing goal state, so callers may retry
// the whole turn.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("reply generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
