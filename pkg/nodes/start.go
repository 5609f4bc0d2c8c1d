// Package nodes implements the executors for the seven node types and the
// registry that resolves and validates them.
package nodes

import (
	"context"

	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/protocol"
)

// StartExecutor marks the entry point of a run. It performs no side effects.
type StartExecutor struct{}

func NewStartExecutor() *StartExecutor {
	return &StartExecutor{}
}

func (e *StartExecutor) Type() models.NodeType {
	return models.NodeTypeStart
}

func (e *StartExecutor) Execute(_ context.Context, node *models.Node, ec *models.ExecutionContext) (map[string]any, error) {
	triggerType := "api"
	if raw, ok := ec.InputData["trigger_type"]; ok {
		if s, ok := raw.(string); ok && s != "" {
			triggerType = s
		}
	}

	return map[string]any{
		"action":       "flow_started",
		"trigger_type": triggerType,
		"success":      true,
	}, nil
}

var _ protocol.NodeExecutor = (*StartExecutor)(nil)
