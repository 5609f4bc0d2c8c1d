package file_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/persistence"
	"github.com/voxflow/voxflow/pkg/persistence/file"
	"github.com/voxflow/voxflow/pkg/testutil"
)

func TestFlowRepositoryRoundTrip(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	repo := p.FlowRepository()
	ctx := context.Background()

	flow := testutil.NewFlow(
		testutil.WithFlowID("flow-1"),
		testutil.WithNodes(
			testutil.NewNode("start", models.NodeTypeStart),
			testutil.NewNode("end", models.NodeTypeEnd),
		),
		testutil.WithConnections(testutil.Connect("start", "end")),
	)

	require.NoError(t, repo.SaveFlow(ctx, flow))

	loaded, err := repo.FlowByID(ctx, "flow-1")
	require.NoError(t, err)

	assert.Equal(t, flow.ID, loaded.ID)
	assert.Equal(t, flow.Status, loaded.Status)
	require.Len(t, loaded.Nodes, 2)
	require.Len(t, loaded.Connections, 1)
	assert.Equal(t, "start", loaded.Connections[0].SourceNodeID)
}

func TestFlowRepositoryMissingFlow(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	_, err := p.FlowRepository().FlowByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsFlowNotFound(err))
}

func TestGetPublishedFlowRejectsDraft(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	repo := p.FlowRepository()
	ctx := context.Background()

	flow := testutil.NewFlow(
		testutil.WithFlowID("flow-1"),
		testutil.WithStatus(models.FlowStatusDraft),
	)
	require.NoError(t, repo.SaveFlow(ctx, flow))

	_, err := repo.GetPublishedFlow(ctx, "flow-1")
	require.Error(t, err)
	assert.True(t, persistence.IsPublishedFlowNotFound(err))
}

func TestSaveFlowStatsUpdatesDocument(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	repo := p.FlowRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveFlow(ctx, testutil.NewFlow(testutil.WithFlowID("flow-1"))))

	stats := models.FlowStats{TotalExecutions: 7, SuccessRate: 85.7, AvgDurationSeconds: 3.2}
	require.NoError(t, repo.SaveFlowStats(ctx, "flow-1", stats))

	loaded, err := repo.FlowByID(ctx, "flow-1")
	require.NoError(t, err)
	assert.Equal(t, stats, loaded.Stats)
}

func TestDeleteFlow(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	repo := p.FlowRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveFlow(ctx, testutil.NewFlow(testutil.WithFlowID("flow-1"))))
	require.NoError(t, repo.DeleteFlow(ctx, "flow-1"))

	_, err := repo.FlowByID(ctx, "flow-1")
	assert.True(t, persistence.IsFlowNotFound(err))

	err = repo.DeleteFlow(ctx, "flow-1")
	assert.True(t, persistence.IsFlowNotFound(err))
}

func TestFlowsListsAllSavedFlows(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	repo := p.FlowRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveFlow(ctx, testutil.NewFlow(testutil.WithFlowID("flow-a"))))
	require.NoError(t, repo.SaveFlow(ctx, testutil.NewFlow(testutil.WithFlowID("flow-b"))))

	flows, err := repo.Flows(ctx)
	require.NoError(t, err)
	assert.Len(t, flows, 2)
}

func TestExecutionRepositoryRoundTrip(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	repo := p.ExecutionRepository()
	ctx := context.Background()

	now := time.Now()
	result := &models.ExecutionResult{
		ExecutionID: "exec-1",
		FlowID:      "flow-1",
		Status:      models.ExecutionStatusCompleted,
		StartedAt:   now,
		CompletedAt: now.Add(time.Second),
		Steps: []*models.ExecutionStep{
			{NodeID: "start", NodeType: models.NodeTypeStart, Status: models.StepStatusCompleted},
		},
	}

	require.NoError(t, repo.SaveExecution(ctx, result))

	loaded, err := repo.ExecutionByID(ctx, "exec-1")
	require.NoError(t, err)

	assert.Equal(t, result.ExecutionID, loaded.ExecutionID)
	assert.Equal(t, result.Status, loaded.Status)
	require.Len(t, loaded.Steps, 1)
	assert.Equal(t, "start", loaded.Steps[0].NodeID)
}

func TestExecutionsByFlowSortsNewestFirst(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	repo := p.ExecutionRepository()
	ctx := context.Background()

	base := time.Now()

	for i, id := range []string{"exec-old", "exec-new"} {
		require.NoError(t, repo.SaveExecution(ctx, &models.ExecutionResult{
			ExecutionID: id,
			FlowID:      "flow-1",
			Status:      models.ExecutionStatusCompleted,
			StartedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	require.NoError(t, repo.SaveExecution(ctx, &models.ExecutionResult{
		ExecutionID: "exec-other",
		FlowID:      "flow-2",
		Status:      models.ExecutionStatusCompleted,
		StartedAt:   base,
	}))

	results, err := repo.ExecutionsByFlow(ctx, "flow-1")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "exec-new", results[0].ExecutionID)
	assert.Equal(t, "exec-old", results[1].ExecutionID)
}

func TestExecutionByIDMissing(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	_, err := p.ExecutionRepository().ExecutionByID(context.Background(), "missing")
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestHealthCheck(t *testing.T) {
	dir := t.TempDir()

	assert.NoError(t, file.NewPersistence(dir).HealthCheck(context.Background()))
	assert.Error(t, file.NewPersistence(dir+"/does-not-exist").HealthCheck(context.Background()))
}
