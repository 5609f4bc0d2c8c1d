// Package models defines the core domain models for voice flow execution.
package models

import "time"

// FlowStatus represents the lifecycle state of a flow.
type FlowStatus string

const (
	FlowStatusDraft     FlowStatus = "draft"     // Editable, not executable
	FlowStatusPublished FlowStatus = "published" // Executable
)

// Flow represents a voice call flow: a graph of typed nodes joined by typed
// connections. Nodes and connections are immutable during a run; only Stats
// is updated by the engine after each execution.
type Flow struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"        validate:"required,min=3"`
	Description string        `json:"description"`
	Status      FlowStatus    `json:"status"      validate:"required,oneof=draft published"`
	Nodes       []*Node       `json:"nodes"`
	Connections []*Connection `json:"connections"`
	Stats       FlowStats     `json:"stats"`
	Owner       string        `json:"owner"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
}

// IsPublished reports whether the flow may be executed.
func (f *Flow) IsPublished() bool {
	return f.Status == FlowStatusPublished
}

// NodeByID returns the node with the given ID, or nil.
func (f *Flow) NodeByID(id string) *Node {
	for _, node := range f.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// StartNodes returns all nodes of type start.
func (f *Flow) StartNodes() []*Node {
	var starts []*Node

	for _, node := range f.Nodes {
		if node.Type == NodeTypeStart {
			starts = append(starts, node)
		}
	}

	return starts
}

// EndNodes returns all nodes of type end.
func (f *Flow) EndNodes() []*Node {
	var ends []*Node

	for _, node := range f.Nodes {
		if node.Type == NodeTypeEnd {
			ends = append(ends, node)
		}
	}

	return ends
}

// ConnectionsFrom returns the outgoing connections of the given node, in
// declaration order.
func (f *Flow) ConnectionsFrom(nodeID string) []*Connection {
	var out []*Connection

	for _, conn := range f.Connections {
		if conn.SourceNodeID == nodeID {
			out = append(out, conn)
		}
	}

	return out
}

// FlowStats holds the per-flow aggregate counters maintained by the stats
// aggregator. SuccessRate is a percentage in [0, 100].
type FlowStats struct {
	TotalExecutions    int64   `json:"total_executions"`
	SuccessRate        float64 `json:"success_rate"`
	AvgDurationSeconds float64 `json:"avg_duration_seconds"`
}
