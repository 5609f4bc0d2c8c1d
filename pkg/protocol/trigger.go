package protocol

import "context"

// ExecutionRequest asks the engine to run a published flow.
type ExecutionRequest struct {
	FlowID    string         `json:"flow_id"`
	Input     map[string]any `json:"input,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
}

// TriggerCallback is invoked by a trigger (queue, schedule, HTTP) for every
// execution request it produces.
type TriggerCallback func(ctx context.Context, req ExecutionRequest) error

// Trigger is a source of execution requests with a start/stop lifecycle.
type Trigger interface {
	Start(ctx context.Context, callback TriggerCallback) error
	Stop(ctx context.Context) error
}
