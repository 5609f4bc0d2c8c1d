package models

import (
	"maps"
	"time"
)

// ExecutionStatus is the overall state of a run.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusError     ExecutionStatus = "error"
)

// StepStatus is the recorded outcome of a single node execution.
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusError     StepStatus = "error"
)

// ExecutionStep records one node execution within a run. Steps are
// append-only; a node visited twice produces two steps.
type ExecutionStep struct {
	NodeID      string         `json:"node_id"`
	NodeType    NodeType       `json:"node_type"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	Status      StepStatus     `json:"status"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// ExecutionContext is the per-run mutable state. It is owned exclusively by
// one run; branches created by fan-out each receive an independent copy and
// never share the variables map.
type ExecutionContext struct {
	ExecutionID string           `json:"execution_id"`
	FlowID      string           `json:"flow_id"`
	InputData   map[string]any   `json:"input_data,omitempty"`
	Variables   map[string]any   `json:"variables,omitempty"`
	Steps       []*ExecutionStep `json:"steps"`
	Status      ExecutionStatus  `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
}

// NewExecutionContext creates the context for a fresh run. The input and
// variable maps are copied so the caller's maps are never mutated.
func NewExecutionContext(executionID, flowID string, input, variables map[string]any) *ExecutionContext {
	ec := &ExecutionContext{
		ExecutionID: executionID,
		FlowID:      flowID,
		InputData:   make(map[string]any, len(input)),
		Variables:   make(map[string]any, len(variables)),
		Status:      ExecutionStatusRunning,
		StartedAt:   time.Now(),
	}

	maps.Copy(ec.InputData, input)
	maps.Copy(ec.Variables, variables)

	return ec
}

// Branch returns an independent copy for a fan-out branch: same execution
// identity, copied input and variables, and an empty step list. Branch steps
// are appended back to the parent at the join barrier.
func (ec *ExecutionContext) Branch() *ExecutionContext {
	branch := &ExecutionContext{
		ExecutionID: ec.ExecutionID,
		FlowID:      ec.FlowID,
		InputData:   make(map[string]any, len(ec.InputData)),
		Variables:   make(map[string]any, len(ec.Variables)),
		Status:      ec.Status,
		StartedAt:   ec.StartedAt,
	}

	maps.Copy(branch.InputData, ec.InputData)
	maps.Copy(branch.Variables, ec.Variables)

	return branch
}

// AppendStep records a completed node execution.
func (ec *ExecutionContext) AppendStep(step *ExecutionStep) {
	ec.Steps = append(ec.Steps, step)
}

// SetVariable writes a run variable.
func (ec *ExecutionContext) SetVariable(key string, value any) {
	if ec.Variables == nil {
		ec.Variables = make(map[string]any)
	}

	ec.Variables[key] = value
}

// Variable reads a run variable.
func (ec *ExecutionContext) Variable(key string) (any, bool) {
	v, ok := ec.Variables[key]

	return v, ok
}

// ExecutionResult is the sole output contract of a run. It is fully formed
// even when the run fails: the partial trace and the causing error are both
// attached.
type ExecutionResult struct {
	ExecutionID     string           `json:"execution_id"`
	FlowID          string           `json:"flow_id"`
	Status          ExecutionStatus  `json:"status"`
	Result          map[string]any   `json:"result,omitempty"`
	Steps           []*ExecutionStep `json:"steps"`
	Variables       map[string]any   `json:"variables,omitempty"`
	StartedAt       time.Time        `json:"started_at"`
	CompletedAt     time.Time        `json:"completed_at"`
	DurationSeconds float64          `json:"duration_seconds"`
	Error           string           `json:"error,omitempty"`
}
