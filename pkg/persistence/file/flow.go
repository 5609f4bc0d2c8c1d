package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/persistence"
)

const flowFileMode = 0o644

// FlowRepository stores one JSON document per flow under <root>/flows.
type FlowRepository struct {
	mu   sync.RWMutex
	root string
}

// NewFlowRepository creates a file-backed flow repository.
func NewFlowRepository(root string) *FlowRepository {
	return &FlowRepository{root: root}
}

func (r *FlowRepository) Flows(ctx context.Context) ([]*models.Flow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dir := os.DirFS(r.flowDir())

	files, err := fs.Glob(dir, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list flow files: %w", err)
	}

	flows := make([]*models.Flow, 0, len(files))

	for _, file := range files {
		flow, err := r.load(file[:len(file)-len(".json")])
		if err != nil {
			return nil, err
		}

		flows = append(flows, flow)
	}

	return flows, nil
}

func (r *FlowRepository) FlowByID(_ context.Context, id string) (*models.Flow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.load(id)
}

func (r *FlowRepository) SaveFlow(_ context.Context, flow *models.Flow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.save(flow)
}

func (r *FlowRepository) DeleteFlow(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.flowPath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.NewFlowError("Delete", id, persistence.ErrFlowNotFound)
		}

		return persistence.NewFlowError("Delete", id, err)
	}

	return nil
}

// GetPublishedFlow returns the flow only when it is published.
func (r *FlowRepository) GetPublishedFlow(ctx context.Context, id string) (*models.Flow, error) {
	flow, err := r.FlowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !flow.IsPublished() {
		return nil, persistence.NewFlowError("GetPublished", id, persistence.ErrPublishedFlowNotFound)
	}

	return flow, nil
}

// SaveFlowStats rewrites the flow document with updated aggregates. The
// write lock keeps concurrent stats updates from interleaving.
func (r *FlowRepository) SaveFlowStats(_ context.Context, id string, stats models.FlowStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	flow, err := r.load(id)
	if err != nil {
		return err
	}

	flow.Stats = stats

	return r.save(flow)
}

func (r *FlowRepository) load(id string) (*models.Flow, error) {
	data, err := os.ReadFile(r.flowPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewFlowError("Get", id, persistence.ErrFlowNotFound)
		}

		return nil, persistence.NewFlowError("Get", id, err)
	}

	var flow models.Flow
	if err := json.Unmarshal(data, &flow); err != nil {
		return nil, persistence.NewFlowError("Get", id, err)
	}

	return &flow, nil
}

func (r *FlowRepository) save(flow *models.Flow) error {
	if err := os.MkdirAll(r.flowDir(), 0o755); err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	if err := os.WriteFile(r.flowPath(flow.ID), data, flowFileMode); err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	return nil
}

func (r *FlowRepository) flowDir() string {
	return filepath.Join(r.root, "flows")
}

func (r *FlowRepository) flowPath(id string) string {
	return filepath.Join(r.flowDir(), id+".json")
}
