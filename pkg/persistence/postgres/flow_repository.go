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

// FlowRepository handles flow-related database operations.
type FlowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFlowRepository creates a new flow repository.
func NewFlowRepository(db *sql.DB, logger *slog.Logger) *FlowRepository {
	return &FlowRepository{db: db, logger: logger}
}

const flowColumns = `id, name, description, status, owner, nodes, connections, stats,
	created_at, updated_at, published_at`

func (r *FlowRepository) Flows(ctx context.Context) ([]*models.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var flows []*models.Flow

	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}

		flows = append(flows, flow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flows: %w", err)
	}

	return flows, nil
}

func (r *FlowRepository) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE id = $1`

	flow, err := scanFlow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewFlowError("Get", id, persistence.ErrFlowNotFound)
		}

		return nil, persistence.NewFlowError("Get", id, err)
	}

	return flow, nil
}

func (r *FlowRepository) SaveFlow(ctx context.Context, flow *models.Flow) error {
	nodes, err := json.Marshal(flow.Nodes)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	connections, err := json.Marshal(flow.Connections)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	stats, err := json.Marshal(flow.Stats)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	query := `
		INSERT INTO flows (id, name, description, status, owner, nodes, connections, stats,
			created_at, updated_at, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			owner = EXCLUDED.owner,
			nodes = EXCLUDED.nodes,
			connections = EXCLUDED.connections,
			stats = EXCLUDED.stats,
			updated_at = EXCLUDED.updated_at,
			published_at = EXCLUDED.published_at
	`

	_, err = r.db.ExecContext(ctx, query,
		flow.ID, flow.Name, flow.Description, string(flow.Status), flow.Owner,
		nodes, connections, stats,
		flow.CreatedAt, flow.UpdatedAt, flow.PublishedAt,
	)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	return nil
}

func (r *FlowRepository) DeleteFlow(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM flows WHERE id = $1`, id)
	if err != nil {
		return persistence.NewFlowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewFlowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewFlowError("Delete", id, persistence.ErrFlowNotFound)
	}

	return nil
}

// GetPublishedFlow returns the flow only when it is published.
func (r *FlowRepository) GetPublishedFlow(ctx context.Context, id string) (*models.Flow, error) {
	query := `SELECT ` + flowColumns + ` FROM flows WHERE id = $1 AND status = $2`

	flow, err := scanFlow(r.db.QueryRowContext(ctx, query, id, string(models.FlowStatusPublished)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewFlowError("GetPublished", id, persistence.ErrPublishedFlowNotFound)
		}

		return nil, persistence.NewFlowError("GetPublished", id, err)
	}

	return flow, nil
}

// SaveFlowStats updates only the stats document, leaving the flow definition
// untouched.
func (r *FlowRepository) SaveFlowStats(ctx context.Context, id string, stats models.FlowStats) error {
	encoded, err := json.Marshal(stats)
	if err != nil {
		return persistence.NewFlowError("SaveStats", id, err)
	}

	result, err := r.db.ExecContext(ctx, `UPDATE flows SET stats = $2 WHERE id = $1`, id, encoded)
	if err != nil {
		return persistence.NewFlowError("SaveStats", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewFlowError("SaveStats", id, err)
	}

	if affected == 0 {
		return persistence.NewFlowError("SaveStats", id, persistence.ErrFlowNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlow(row rowScanner) (*models.Flow, error) {
	var (
		flow        models.Flow
		status      string
		nodes       []byte
		connections []byte
		stats       []byte
		publishedAt sql.NullTime
	)

	err := row.Scan(
		&flow.ID, &flow.Name, &flow.Description, &status, &flow.Owner,
		&nodes, &connections, &stats,
		&flow.CreatedAt, &flow.UpdatedAt, &publishedAt,
	)
	if err != nil {
		return nil, err
	}

	flow.Status = models.FlowStatus(status)

	if err := json.Unmarshal(nodes, &flow.Nodes); err != nil {
		return nil, fmt.Errorf("failed to decode nodes: %w", err)
	}

	if err := json.Unmarshal(connections, &flow.Connections); err != nil {
		return nil, fmt.Errorf("failed to decode connections: %w", err)
	}

	if err := json.Unmarshal(stats, &flow.Stats); err != nil {
		return nil, fmt.Errorf("failed to decode stats: %w", err)
	}

	if publishedAt.Valid {
		flow.PublishedAt = &publishedAt.Time
	}

	return &flow, nil
}
