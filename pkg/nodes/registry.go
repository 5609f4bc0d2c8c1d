package nodes

import (
	"fmt"

	"github.com/voxflow/voxflow/pkg/engine"
	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/protocol"
)

// Registry maps the closed set of node types to their executors.
type Registry struct {
	executors map[models.NodeType]protocol.NodeExecutor
}

// NewRegistry wires every node executor with its collaborators. The
// condition evaluator carries the AI provider and expression evaluator for
// condition nodes.
func NewRegistry(
	ai protocol.AIProvider,
	collector protocol.InputCollector,
	transfers protocol.TransferService,
	conditions *engine.ConditionEvaluator,
) *Registry {
	registry := &Registry{executors: make(map[models.NodeType]protocol.NodeExecutor)}

	for _, executor := range []protocol.NodeExecutor{
		NewStartExecutor(),
		NewMessageExecutor(),
		NewConditionExecutor(conditions),
		NewAIResponseExecutor(ai),
		NewCollectInputExecutor(collector),
		NewTransferExecutor(transfers),
		NewEndExecutor(),
	} {
		registry.executors[executor.Type()] = executor
	}

	return registry
}

// ExecutorFor returns the executor for the node type.
func (r *Registry) ExecutorFor(nodeType models.NodeType) (protocol.NodeExecutor, error) {
	executor, ok := r.executors[nodeType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrUnknownNodeType, nodeType)
	}

	return executor, nil
}

// ValidateNodeConfig checks the node's data against the schema for its type.
func (r *Registry) ValidateNodeConfig(nodeType models.NodeType, data map[string]any) error {
	if _, ok := r.executors[nodeType]; !ok {
		return fmt.Errorf("%w: %s", engine.ErrUnknownNodeType, nodeType)
	}

	return validateNodeData(nodeType, data)
}

var _ protocol.ExecutorRegistry = (*Registry)(nil)
