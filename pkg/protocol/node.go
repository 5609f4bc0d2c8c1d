package protocol

import (
	"context"

	"github.com/voxflow/voxflow/pkg/models"
)

// NodeExecutor implements the behavior of one node type. Executors receive
// the node and the branch-local execution context; they may write variables
// into the context but must route all external side effects through the
// injected collaborators.
type NodeExecutor interface {
	// Type returns the node type this executor handles.
	Type() models.NodeType

	// Execute runs the node and returns its result map. The returned error
	// is fatal to the run unless it is one of the documented recoverable
	// conditions handled inside the executor itself.
	Execute(ctx context.Context, node *models.Node, ec *models.ExecutionContext) (map[string]any, error)
}

// ExecutorRegistry resolves node types to executors over the closed set of
// seven node kinds.
type ExecutorRegistry interface {
	ExecutorFor(nodeType models.NodeType) (NodeExecutor, error)

	// ValidateNodeConfig checks a node's data map against the schema for its
	// type. Used at publish time, before any execution.
	ValidateNodeConfig(nodeType models.NodeType, data map[string]any) error
}
