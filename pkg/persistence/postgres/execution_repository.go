package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/persistence"
)

// ExecutionRepository handles execution-result database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `id, flow_id, status, result, steps, variables, error,
	started_at, completed_at, duration_seconds`

func (r *ExecutionRepository) SaveExecution(ctx context.Context, result *models.ExecutionResult) error {
	resultDoc, err := json.Marshal(result.Result)
	if err != nil {
		return fmt.Errorf("failed to encode execution result: %w", err)
	}

	steps, err := json.Marshal(result.Steps)
	if err != nil {
		return fmt.Errorf("failed to encode execution steps: %w", err)
	}

	variables, err := json.Marshal(result.Variables)
	if err != nil {
		return fmt.Errorf("failed to encode execution variables: %w", err)
	}

	query := `
		INSERT INTO executions (id, flow_id, status, result, steps, variables, error,
			started_at, completed_at, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			result = EXCLUDED.result,
			steps = EXCLUDED.steps,
			variables = EXCLUDED.variables,
			error = EXCLUDED.error,
			completed_at = EXCLUDED.completed_at,
			duration_seconds = EXCLUDED.duration_seconds
	`

	_, err = r.db.ExecContext(ctx, query,
		result.ExecutionID, result.FlowID, string(result.Status),
		resultDoc, steps, variables, result.Error,
		result.StartedAt, result.CompletedAt, result.DurationSeconds,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", result.ExecutionID, err)
	}

	return nil
}

func (r *ExecutionRepository) ExecutionByID(ctx context.Context, id string) (*models.ExecutionResult, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`

	result, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, fmt.Errorf("failed to load execution %s: %w", id, err)
	}

	return result, nil
}

// ExecutionsByFlow returns the flow's execution results, newest first.
func (r *ExecutionRepository) ExecutionsByFlow(ctx context.Context, flowID string) ([]*models.ExecutionResult, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE flow_id = $1 ORDER BY started_at DESC`

	rows, err := r.db.QueryContext(ctx, query, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var results []*models.ExecutionResult

	for rows.Next() {
		result, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return results, nil
}

func scanExecution(row rowScanner) (*models.ExecutionResult, error) {
	var (
		result    models.ExecutionResult
		status    string
		resultDoc []byte
		steps     []byte
		variables []byte
	)

	err := row.Scan(
		&result.ExecutionID, &result.FlowID, &status,
		&resultDoc, &steps, &variables, &result.Error,
		&result.StartedAt, &result.CompletedAt, &result.DurationSeconds,
	)
	if err != nil {
		return nil, err
	}

	result.Status = models.ExecutionStatus(status)

	if len(resultDoc) > 0 {
		if err := json.Unmarshal(resultDoc, &result.Result); err != nil {
			return nil, fmt.Errorf("failed to decode result: %w", err)
		}
	}

	if err := json.Unmarshal(steps, &result.Steps); err != nil {
		return nil, fmt.Errorf("failed to decode steps: %w", err)
	}

	if err := json.Unmarshal(variables, &result.Variables); err != nil {
		return nil, fmt.Errorf("failed to decode variables: %w", err)
	}

	return &result, nil
}
