// Package testutil provides builders for flows, nodes, and connections used
// across the test suites.
package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/voxflow/voxflow/pkg/models"
)

type FlowOption func(*models.Flow)

// NewFlow builds a published flow with sensible defaults.
func NewFlow(opts ...FlowOption) *models.Flow {
	now := time.Now()
	flow := &models.Flow{
		ID:        uuid.New().String(),
		Name:      "Test Flow",
		Status:    models.FlowStatusPublished,
		Owner:     "tester",
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, opt := range opts {
		opt(flow)
	}

	return flow
}

func WithFlowID(id string) FlowOption {
	return func(f *models.Flow) { f.ID = id }
}

func WithName(name string) FlowOption {
	return func(f *models.Flow) { f.Name = name }
}

func WithStatus(status models.FlowStatus) FlowOption {
	return func(f *models.Flow) { f.Status = status }
}

func WithNodes(nodes ...*models.Node) FlowOption {
	return func(f *models.Flow) { f.Nodes = nodes }
}

func WithConnections(connections ...*models.Connection) FlowOption {
	return func(f *models.Flow) { f.Connections = connections }
}

// NewNode builds a node of the given type. Data pairs are passed as
// alternating key, value arguments.
func NewNode(id string, nodeType models.NodeType, dataPairs ...any) *models.Node {
	data := make(map[string]any, len(dataPairs)/2)

	for i := 0; i+1 < len(dataPairs); i += 2 {
		key, ok := dataPairs[i].(string)
		if !ok {
			panic("node data keys must be strings")
		}

		data[key] = dataPairs[i+1]
	}

	return &models.Node{
		ID:   id,
		Type: nodeType,
		Name: id,
		Data: data,
	}
}

// Connect builds a default connection between two nodes.
func Connect(source, target string) *models.Connection {
	return &models.Connection{
		ID:           uuid.New().String(),
		SourceNodeID: source,
		TargetNodeID: target,
		Type:         models.ConnectionTypeDefault,
	}
}

// ConnectTyped builds a connection of the given type.
func ConnectTyped(source, target string, connType models.ConnectionType) *models.Connection {
	conn := Connect(source, target)
	conn.Type = connType

	return conn
}

// ConnectConditional builds a conditional connection guarded by a field
// comparison.
func ConnectConditional(source, target, field string, operator models.ConditionOperator, value any) *models.Connection {
	conn := Connect(source, target)
	conn.Type = models.ConnectionTypeConditional
	conn.Condition = &models.ConnectionCondition{
		Field:    field,
		Operator: operator,
		Value:    value,
	}

	return conn
}

// ConnectExpression builds a conditional connection guarded by an
// expression.
func ConnectExpression(source, target, expr string) *models.Connection {
	conn := Connect(source, target)
	conn.Type = models.ConnectionTypeConditional
	conn.Condition = &models.ConnectionCondition{Expression: expr}

	return conn
}
