package nodes

import (
	"context"
	"strconv"

	"github.com/voxflow/voxflow/pkg/engine"
	"github.com/voxflow/voxflow/pkg/models"
)

// ConditionExecutor evaluates the node's condition and exposes the outcome
// as a branch label for conditional connections to match against.
type ConditionExecutor struct {
	evaluator *engine.ConditionEvaluator
}

func NewConditionExecutor(evaluator *engine.ConditionEvaluator) *ConditionExecutor {
	return &ConditionExecutor{evaluator: evaluator}
}

func (e *ConditionExecutor) Type() models.NodeType {
	return models.NodeTypeCondition
}

func (e *ConditionExecutor) Execute(ctx context.Context, node *models.Node, ec *models.ExecutionContext) (map[string]any, error) {
	outcome, warning, err := e.evaluator.Evaluate(ctx, node, ec)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"action":  "condition_evaluated",
		"result":  outcome,
		"branch":  strconv.FormatBool(outcome),
		"success": true,
	}

	if warning != "" {
		result["warning"] = warning
	}

	return result, nil
}
