// Package events defines the execution lifecycle events published by the
// engine.
package events

import (
	"time"

	"github.com/voxflow/voxflow/pkg/models"
)

type EventType string

// Topic is the message topic all execution events are published on.
const Topic = "voxflow.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionStepEvent      EventType = "execution.step"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	FlowID    string    `json:"flow_id"`
}

// ExecutionStarted is published once per run, after validation passes.
type ExecutionStarted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	Input       map[string]any `json:"input,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

// ExecutionCompleted is published when a run terminates with status
// completed.
type ExecutionCompleted struct {
	BaseEvent

	ExecutionID     string  `json:"execution_id"`
	DurationSeconds float64 `json:"duration_seconds"`
	Steps           int     `json:"steps"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

// ExecutionFailed is published when a run terminates with status error. Kind
// carries the engine's error classification.
type ExecutionFailed struct {
	BaseEvent

	ExecutionID     string  `json:"execution_id"`
	Kind            string  `json:"kind"`
	Error           string  `json:"error"`
	DurationSeconds float64 `json:"duration_seconds"`
	Steps           int     `json:"steps"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

// ExecutionStep is published for every recorded execution step, in trace
// order within a sequential path.
type ExecutionStep struct {
	BaseEvent

	ExecutionID string            `json:"execution_id"`
	NodeID      string            `json:"node_id"`
	NodeType    models.NodeType   `json:"node_type"`
	Status      models.StepStatus `json:"status"`
	DurationMs  int64             `json:"duration_ms"`
	Error       string            `json:"error,omitempty"`
}

func (e ExecutionStep) GetType() EventType {
	return ExecutionStepEvent
}
