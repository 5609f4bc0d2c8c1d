package models

// ConnectionType determines when an outgoing connection is followed.
type ConnectionType string

const (
	// ConnectionTypeDefault is always followed.
	ConnectionTypeDefault ConnectionType = "default"
	// ConnectionTypeConditional is followed when its condition holds.
	ConnectionTypeConditional ConnectionType = "conditional"
	// ConnectionTypeSuccess is followed when the prior result reports success.
	ConnectionTypeSuccess ConnectionType = "success"
	// ConnectionTypeError is followed when the prior result reports failure
	// or carries no success field at all.
	ConnectionTypeError ConnectionType = "error"
)

// ConditionOperator is the comparison applied by a field condition.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorGreaterThan ConditionOperator = "greater_than"
	OperatorLessThan    ConditionOperator = "less_than"
)

// ConnectionCondition guards a conditional connection. Either Field/Operator/
// Value form a comparison against the merged result+variables map, or
// Expression holds a boolean expression evaluated over the run variables.
type ConnectionCondition struct {
	Field      string            `json:"field,omitempty"`
	Operator   ConditionOperator `json:"operator,omitempty"`
	Value      any               `json:"value,omitempty"`
	Expression string            `json:"expression,omitempty"`
}

// Connection is a typed, optionally conditional edge between two nodes.
// Connections are immutable during a run.
type Connection struct {
	ID           string               `json:"id"`
	SourceNodeID string               `json:"source_node_id" validate:"required"`
	TargetNodeID string               `json:"target_node_id" validate:"required"`
	Type         ConnectionType       `json:"connection_type"`
	Condition    *ConnectionCondition `json:"condition,omitempty"`
}
