// Package persistence provides the storage abstraction for flows and
// execution results.
package persistence

import (
	"context"

	"github.com/voxflow/voxflow/pkg/models"
)

// Persistence is the storage entry point. Implementations exist for the
// local filesystem and PostgreSQL.
type Persistence interface {
	FlowRepository() FlowRepository
	ExecutionRepository() ExecutionRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// FlowRepository stores flows and their aggregate stats. GetPublishedFlow
// and SaveFlowStats also satisfy the engine's protocol interfaces, so a
// repository can be handed to the engine directly.
type FlowRepository interface {
	Flows(ctx context.Context) ([]*models.Flow, error)
	FlowByID(ctx context.Context, id string) (*models.Flow, error)
	SaveFlow(ctx context.Context, flow *models.Flow) error
	DeleteFlow(ctx context.Context, id string) error

	GetPublishedFlow(ctx context.Context, id string) (*models.Flow, error)
	SaveFlowStats(ctx context.Context, id string, stats models.FlowStats) error
}

// ExecutionRepository stores finished execution results, traces included.
type ExecutionRepository interface {
	SaveExecution(ctx context.Context, result *models.ExecutionResult) error
	ExecutionByID(ctx context.Context, id string) (*models.ExecutionResult, error)
	ExecutionsByFlow(ctx context.Context, flowID string) ([]*models.ExecutionResult, error)
}
