// Package flow provides the flow lifecycle service: creating and editing
// drafts, validating the graph, and publishing flows for execution.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/persistence"
	"github.com/voxflow/voxflow/pkg/protocol"
)

// Validation error values.
var (
	ErrInvalidFlow        = errors.New("invalid flow")
	ErrNoStartNode        = errors.New("flow must have exactly one start node")
	ErrMultipleStartNodes = errors.New("flow has more than one start node")
	ErrDanglingConnection = errors.New("connection references unknown node")
	ErrDuplicateNodeID    = errors.New("duplicate node id")
	ErrAlreadyPublished   = errors.New("flow is already published")
	ErrNotPublished       = errors.New("flow is not published")
)

// ValidationIssue is a non-fatal finding from publish validation. The flow
// publishes anyway; the issue is returned so callers can surface it.
type ValidationIssue struct {
	NodeID  string `json:"node_id,omitempty"`
	Message string `json:"message"`
}

// Service manages flow definitions and their draft/published lifecycle.
type Service struct {
	repo     persistence.FlowRepository
	registry protocol.ExecutorRegistry
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService creates a flow service. The registry validates per-node
// configuration at publish time.
func NewService(repo persistence.FlowRepository, registry protocol.ExecutorRegistry, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		validate: validator.New(),
		logger:   logger.With("module", "flow_service"),
	}
}

// Create stores a new draft flow.
func (s *Service) Create(ctx context.Context, flow *models.Flow) (*models.Flow, error) {
	if flow.ID == "" {
		flow.ID = uuid.New().String()
	}

	now := time.Now()
	flow.Status = models.FlowStatusDraft
	flow.CreatedAt = now
	flow.UpdatedAt = now

	if err := s.validate.Struct(flow); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFlow, err)
	}

	if err := s.repo.SaveFlow(ctx, flow); err != nil {
		return nil, err
	}

	s.logger.Info("Flow created", "flow_id", flow.ID, "name", flow.Name)

	return flow, nil
}

// Update replaces the definition of a draft flow. Published flows are
// immutable; unpublish first.
func (s *Service) Update(ctx context.Context, flow *models.Flow) (*models.Flow, error) {
	existing, err := s.repo.FlowByID(ctx, flow.ID)
	if err != nil {
		return nil, err
	}

	if existing.IsPublished() {
		return nil, ErrAlreadyPublished
	}

	flow.Status = models.FlowStatusDraft
	flow.CreatedAt = existing.CreatedAt
	flow.UpdatedAt = time.Now()

	if err := s.validate.Struct(flow); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFlow, err)
	}

	if err := s.repo.SaveFlow(ctx, flow); err != nil {
		return nil, err
	}

	return flow, nil
}

// Get returns a flow by ID regardless of status.
func (s *Service) Get(ctx context.Context, id string) (*models.Flow, error) {
	return s.repo.FlowByID(ctx, id)
}

// List returns all flows.
func (s *Service) List(ctx context.Context) ([]*models.Flow, error) {
	return s.repo.Flows(ctx)
}

// Delete removes a flow.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteFlow(ctx, id)
}

// Publish validates the flow graph and marks it executable. Fatal problems
// abort the publish; non-fatal findings are returned as issues.
func (s *Service) Publish(ctx context.Context, id string) (*models.Flow, []ValidationIssue, error) {
	flow, err := s.repo.FlowByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if flow.IsPublished() {
		return nil, nil, ErrAlreadyPublished
	}

	issues, err := s.ValidateGraph(flow)
	if err != nil {
		return nil, nil, fmt.Errorf("flow validation failed: %w", err)
	}

	now := time.Now()
	flow.Status = models.FlowStatusPublished
	flow.PublishedAt = &now
	flow.UpdatedAt = now

	if err := s.repo.SaveFlow(ctx, flow); err != nil {
		return nil, nil, err
	}

	s.logger.Info("Flow published", "flow_id", flow.ID, "issues", len(issues))

	return flow, issues, nil
}

// Unpublish returns a published flow to draft.
func (s *Service) Unpublish(ctx context.Context, id string) (*models.Flow, error) {
	flow, err := s.repo.FlowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !flow.IsPublished() {
		return nil, ErrNotPublished
	}

	flow.Status = models.FlowStatusDraft
	flow.PublishedAt = nil
	flow.UpdatedAt = time.Now()

	if err := s.repo.SaveFlow(ctx, flow); err != nil {
		return nil, err
	}

	return flow, nil
}

// ValidateGraph checks the structural invariants an executable flow must
// hold: exactly one start node, unique node IDs, connection endpoints that
// exist, and per-node configuration matching its type's schema. A flow
// without an end node is legal but suspicious, so it surfaces as an issue.
func (s *Service) ValidateGraph(flow *models.Flow) ([]ValidationIssue, error) {
	if err := s.validate.Struct(flow); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFlow, err)
	}

	switch starts := flow.StartNodes(); len(starts) {
	case 0:
		return nil, ErrNoStartNode
	case 1:
	default:
		return nil, ErrMultipleStartNodes
	}

	seen := make(map[string]bool, len(flow.Nodes))

	for _, node := range flow.Nodes {
		if seen[node.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNodeID, node.ID)
		}

		seen[node.ID] = true

		if err := s.registry.ValidateNodeConfig(node.Type, node.Data); err != nil {
			return nil, fmt.Errorf("node %s: %w", node.ID, err)
		}
	}

	for _, conn := range flow.Connections {
		if !seen[conn.SourceNodeID] {
			return nil, fmt.Errorf("%w: connection %s source %s", ErrDanglingConnection, conn.ID, conn.SourceNodeID)
		}

		if !seen[conn.TargetNodeID] {
			return nil, fmt.Errorf("%w: connection %s target %s", ErrDanglingConnection, conn.ID, conn.TargetNodeID)
		}
	}

	var issues []ValidationIssue

	if len(flow.EndNodes()) == 0 {
		issues = append(issues, ValidationIssue{
			Message: "flow has no end node; runs terminate only when a node has no matching connections",
		})
	}

	for _, node := range flow.Nodes {
		if node.Type == models.NodeTypeEnd {
			continue
		}

		if len(flow.ConnectionsFrom(node.ID)) == 0 {
			issues = append(issues, ValidationIssue{
				NodeID:  node.ID,
				Message: "node has no outgoing connections; runs reaching it stop here",
			})
		}
	}

	return issues, nil
}
