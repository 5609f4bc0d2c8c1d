package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/protocol"
)

const (
	defaultInputType     = "speech"
	defaultInputTimeout  = 5
	defaultInputRetries  = 3
	defaultInputVariable = "user_input"
)

// CollectInputExecutor gathers caller input through the telephony collector
// and stores it under the configured variable name. The collector owns the
// retry loop; this executor only interprets its final outcome.
type CollectInputExecutor struct {
	collector protocol.InputCollector
}

func NewCollectInputExecutor(collector protocol.InputCollector) *CollectInputExecutor {
	return &CollectInputExecutor{collector: collector}
}

func (e *CollectInputExecutor) Type() models.NodeType {
	return models.NodeTypeCollectInput
}

func (e *CollectInputExecutor) Execute(ctx context.Context, node *models.Node, ec *models.ExecutionContext) (map[string]any, error) {
	inputType := node.StringData("input_type", defaultInputType)
	timeout := time.Duration(node.IntData("timeout", defaultInputTimeout)) * time.Second
	retries := node.IntData("max_retries", defaultInputRetries)
	variableName := node.StringData("variable_name", defaultInputVariable)

	value, err := e.collector.Collect(ctx, inputType, timeout, retries)
	if err != nil {
		return nil, fmt.Errorf("collecting %s input: %w", inputType, err)
	}

	ec.SetVariable(variableName, value)

	return map[string]any{
		"input":      value,
		"input_type": inputType,
		"success":    true,
	}, nil
}
