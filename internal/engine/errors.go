package engine

import "fmt"

// ValidationError rejects an operation because of bad input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// MachineNotFoundError rejects a work order or schedule that references
// an unknown machine.
type MachineNotFoundError struct {
	MachineID string
}

func (e *MachineNotFoundError) Error() string {
	return fmt.Sprintf("machine %s not found", e.MachineID)
}

// NotClosedError rejects archiving a work order that has not reached
// the terminal status.
type NotClosedError struct {
	Status string
}

func (e *NotClosedError) Error() string {
	return fmt.Sprintf("work order is %s; only closed work orders can be archived", e.Status)
}

// NotOpenError rejects an operation that only applies to open work
// orders, such as delete or claim.
type NotOpenError struct {
	Status string
}

func (e *NotOpenError) Error() string {
	return fmt.Sprintf("work order is %s; operation requires an open work order", e.Status)
}

// AlreadyAssignedError rejects a claim on a work order that already has
// an assignee.
type AlreadyAssignedError struct {
	Assignee string
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("work order is already assigned to %s", e.Assignee)
}

// ArchivedError rejects a mutation of an archived work order.
type ArchivedError struct {
	ID string
}

func (e *ArchivedError) Error() string {
	return fmt.Sprintf("work order %s is archived and immutable", e.ID)
}
