package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error values that all implementations use.
var (
	// ErrFlowNotFound indicates no flow exists with the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrPublishedFlowNotFound indicates the flow exists but is not published.
	ErrPublishedFlowNotFound = errors.New("published flow not found")

	// ErrFlowAlreadyExists indicates a flow with the same identifier already exists.
	ErrFlowAlreadyExists = errors.New("flow already exists")

	// ErrExecutionNotFound indicates no execution result exists with the given identifier.
	ErrExecutionNotFound = errors.New("execution not found")
)

// FlowError wraps flow storage errors with the failing operation.
type FlowError struct {
	Op     string
	FlowID string
	Err    error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s operation failed for flow %s: %v", e.Op, e.FlowID, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func (e *FlowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewFlowError creates a flow storage error with context.
func NewFlowError(op, flowID string, err error) *FlowError {
	return &FlowError{Op: op, FlowID: flowID, Err: err}
}

// IsFlowNotFound checks if an error indicates a missing flow.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsPublishedFlowNotFound checks if an error indicates a missing published flow.
func IsPublishedFlowNotFound(err error) bool {
	return errors.Is(err, ErrPublishedFlowNotFound)
}

// IsExecutionNotFound checks if an error indicates a missing execution result.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}
