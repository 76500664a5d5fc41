// Package lifecycle defines the work-order status machine. The chain is
// strictly linear: open -> in_progress -> completed -> closed, with no
// skips, no reverse moves and no self-transitions.
package lifecycle

import "fmt"

const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusClosed     = "closed"
)

// successor maps each status to the only status that may follow it.
// Closed is terminal and has no entry.
var successor = map[string]string{
	StatusOpen:       StatusInProgress,
	StatusInProgress: StatusCompleted,
	StatusCompleted:  StatusClosed,
}

// InvalidTransitionError reports a rejected status move, including
// same-status re-entry and moves out of the terminal state.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// IsValid reports whether s is one of the four known statuses.
func IsValid(s string) bool {
	return s == StatusClosed || successor[s] != ""
}

// IsTerminal reports whether no further transitions are allowed from s.
func IsTerminal(s string) bool {
	return s == StatusClosed
}

// Next returns the single status allowed after from, or an
// InvalidTransitionError when from is terminal or unknown.
func Next(from string) (string, error) {
	next, ok := successor[from]
	if !ok {
		return "", &InvalidTransitionError{From: from, To: ""}
	}
	return next, nil
}

// Validate checks that from -> to is the one permitted step. It rejects
// unknown statuses, skips, reverse moves, self-transitions and any move
// out of closed.
func Validate(from, to string) error {
	if successor[from] == to && to != "" {
		return nil
	}
	return &InvalidTransitionError{From: from, To: to}
}
