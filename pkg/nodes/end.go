package nodes

import (
	"context"

	"github.com/voxflow/voxflow/pkg/models"
)

// EndExecutor terminates the path it runs on. The engine never consults the
// router after an end node.
type EndExecutor struct{}

func NewEndExecutor() *EndExecutor {
	return &EndExecutor{}
}

func (e *EndExecutor) Type() models.NodeType {
	return models.NodeTypeEnd
}

func (e *EndExecutor) Execute(_ context.Context, node *models.Node, ec *models.ExecutionContext) (map[string]any, error) {
	ec.Status = models.ExecutionStatusCompleted

	return map[string]any{
		"action":     "flow_ended",
		"end_reason": node.StringData("end_reason", "completed"),
		"success":    true,
	}, nil
}
