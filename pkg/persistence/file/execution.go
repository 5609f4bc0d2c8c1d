package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/persistence"
)

// ExecutionRepository stores one JSON document per execution result under
// <root>/executions.
type ExecutionRepository struct {
	mu   sync.RWMutex
	root string
}

// NewExecutionRepository creates a file-backed execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (r *ExecutionRepository) SaveExecution(_ context.Context, result *models.ExecutionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.executionDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create execution directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode execution %s: %w", result.ExecutionID, err)
	}

	if err := os.WriteFile(r.executionPath(result.ExecutionID), data, flowFileMode); err != nil {
		return fmt.Errorf("failed to write execution %s: %w", result.ExecutionID, err)
	}

	return nil
}

func (r *ExecutionRepository) ExecutionByID(_ context.Context, id string) (*models.ExecutionResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.load(id)
}

// ExecutionsByFlow returns the flow's execution results, newest first.
func (r *ExecutionRepository) ExecutionsByFlow(_ context.Context, flowID string) ([]*models.ExecutionResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dir := os.DirFS(r.executionDir())

	files, err := fs.Glob(dir, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution files: %w", err)
	}

	var results []*models.ExecutionResult

	for _, file := range files {
		result, err := r.load(file[:len(file)-len(".json")])
		if err != nil {
			return nil, err
		}

		if result.FlowID == flowID {
			results = append(results, result)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})

	return results, nil
}

func (r *ExecutionRepository) load(id string) (*models.ExecutionResult, error) {
	data, err := os.ReadFile(r.executionPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to read execution %s: %w", id, err)
	}

	var result models.ExecutionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode execution %s: %w", id, err)
	}

	return &result, nil
}

func (r *ExecutionRepository) executionDir() string {
	return filepath.Join(r.root, "executions")
}

func (r *ExecutionRepository) executionPath(id string) string {
	return filepath.Join(r.executionDir(), id+".json")
}
