// Package engine executes published flows: it dispatches node executors,
// routes connections, enforces step and time limits, and assembles the
// execution trace.
package engine

import (
	"errors"
	"fmt"
)

// ErrorKind classifies run failures so operators can tell a stuck loop from
// a slow external call from a misconfigured node.
type ErrorKind string

const (
	// KindValidation covers failures detected before any node runs: flow not
	// published, missing start node, malformed graph.
	KindValidation ErrorKind = "validation"
	// KindExecution covers node executor failures, including collaborator
	// errors surfaced through AI-response and transfer nodes.
	KindExecution ErrorKind = "execution"
	// KindConfiguration covers nodes missing required configuration, caught
	// before any side effect. Treated as a subtype of execution failure.
	KindConfiguration ErrorKind = "configuration"
	// KindTimeout covers node-level input-collection exhaustion and the
	// run-level deadline.
	KindTimeout ErrorKind = "timeout"
	// KindLimitExceeded covers the step-count guard against cycles.
	KindLimitExceeded ErrorKind = "limit_exceeded"
)

// Standard engine error values. Wrapped errors compare against these with
// errors.Is.
var (
	ErrFlowNotPublished   = errors.New("flow is not published")
	ErrNoStartNode        = errors.New("flow has no start node")
	ErrMultipleStartNodes = errors.New("flow has multiple start nodes")
	ErrMaxStepsExceeded   = errors.New("maximum step count exceeded")
	ErrRunTimeout         = errors.New("run deadline exceeded")
	ErrUnknownNodeType    = errors.New("no executor registered for node type")
)

// Error wraps a run failure with its classification and the node it occurred
// on, if any.
type Error struct {
	Kind        ErrorKind
	ExecutionID string
	NodeID      string
	Err         error
}

func (e *Error) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("%s error at node %s: %v", e.Kind, e.NodeID, e.Err)
	}

	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a validation failure detected before any node
// runs.
func NewValidationError(executionID string, err error) *Error {
	return &Error{Kind: KindValidation, ExecutionID: executionID, Err: err}
}

// NewExecutionError creates a fatal node execution failure.
func NewExecutionError(executionID, nodeID string, err error) *Error {
	return &Error{Kind: KindExecution, ExecutionID: executionID, NodeID: nodeID, Err: err}
}

// NewConfigurationError creates a missing-configuration failure for a node.
func NewConfigurationError(executionID, nodeID string, err error) *Error {
	return &Error{Kind: KindConfiguration, ExecutionID: executionID, NodeID: nodeID, Err: err}
}

// NewTimeoutError creates a node- or run-level timeout failure.
func NewTimeoutError(executionID, nodeID string, err error) *Error {
	return &Error{Kind: KindTimeout, ExecutionID: executionID, NodeID: nodeID, Err: err}
}

// NewLimitExceededError creates a step-count guard failure.
func NewLimitExceededError(executionID, nodeID string, err error) *Error {
	return &Error{Kind: KindLimitExceeded, ExecutionID: executionID, NodeID: nodeID, Err: err}
}

// KindOf returns the classification of err, or KindExecution for errors that
// did not originate in the engine.
func KindOf(err error) ErrorKind {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Kind
	}

	return KindExecution
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsConfiguration reports whether err is a configuration failure.
func IsConfiguration(err error) bool {
	return KindOf(err) == KindConfiguration
}

// IsTimeout reports whether err is a timeout failure.
func IsTimeout(err error) bool {
	return KindOf(err) == KindTimeout
}

// IsLimitExceeded reports whether err is a step-limit failure.
func IsLimitExceeded(err error) bool {
	return KindOf(err) == KindLimitExceeded
}
