package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxflow/voxflow/pkg/engine"
	"github.com/voxflow/voxflow/pkg/expression"
	"github.com/voxflow/voxflow/pkg/flow"
	"github.com/voxflow/voxflow/pkg/log"
	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/mocks"
	"github.com/voxflow/voxflow/pkg/nodes"
	"github.com/voxflow/voxflow/pkg/persistence/file"
	"github.com/voxflow/voxflow/pkg/testutil"
)

func newService(t *testing.T) *flow.Service {
	t.Helper()

	expr, err := expression.New()
	require.NoError(t, err)

	logger := log.WithModule("test")
	ai := &mocks.MockAIProvider{}
	conditions := engine.NewConditionEvaluator(ai, expr, logger)
	registry := nodes.NewRegistry(ai, &mocks.MockInputCollector{}, &mocks.MockTransferService{}, conditions)

	return flow.NewService(file.NewPersistence(t.TempDir()).FlowRepository(), registry, logger)
}

func draftFlow(opts ...testutil.FlowOption) *models.Flow {
	base := []testutil.FlowOption{
		testutil.WithStatus(models.FlowStatusDraft),
		testutil.WithNodes(
			testutil.NewNode("start", models.NodeTypeStart),
			testutil.NewNode("greet", models.NodeTypeMessage, "text", "Hello"),
			testutil.NewNode("end", models.NodeTypeEnd),
		),
		testutil.WithConnections(
			testutil.Connect("start", "greet"),
			testutil.Connect("greet", "end"),
		),
	}

	return testutil.NewFlow(append(base, opts...)...)
}

func TestCreateStoresDraft(t *testing.T) {
	service := newService(t)

	created, err := service.Create(context.Background(), draftFlow())
	require.NoError(t, err)

	assert.Equal(t, models.FlowStatusDraft, created.Status)
	assert.NotEmpty(t, created.ID)

	loaded, err := service.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, loaded.Name)
}

func TestCreateRejectsShortName(t *testing.T) {
	service := newService(t)

	_, err := service.Create(context.Background(), draftFlow(testutil.WithName("ab")))
	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrInvalidFlow)
}

func TestPublishValidFlow(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, draftFlow())
	require.NoError(t, err)

	published, issues, err := service.Publish(ctx, created.ID)
	require.NoError(t, err)

	assert.True(t, published.IsPublished())
	assert.NotNil(t, published.PublishedAt)
	assert.Empty(t, issues)
}

func TestPublishRejectsFlowWithoutStartNode(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, testutil.NewFlow(
		testutil.WithStatus(models.FlowStatusDraft),
		testutil.WithNodes(testutil.NewNode("end", models.NodeTypeEnd)),
	))
	require.NoError(t, err)

	_, _, err = service.Publish(ctx, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrNoStartNode)
}

func TestPublishRejectsMultipleStartNodes(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, testutil.NewFlow(
		testutil.WithStatus(models.FlowStatusDraft),
		testutil.WithNodes(
			testutil.NewNode("start-a", models.NodeTypeStart),
			testutil.NewNode("start-b", models.NodeTypeStart),
		),
	))
	require.NoError(t, err)

	_, _, err = service.Publish(ctx, created.ID)
	assert.ErrorIs(t, err, flow.ErrMultipleStartNodes)
}

func TestPublishRejectsDanglingConnection(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, draftFlow(
		testutil.WithConnections(testutil.Connect("start", "ghost")),
	))
	require.NoError(t, err)

	_, _, err = service.Publish(ctx, created.ID)
	assert.ErrorIs(t, err, flow.ErrDanglingConnection)
}

func TestPublishRejectsInvalidNodeConfig(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, draftFlow(
		testutil.WithNodes(
			testutil.NewNode("start", models.NodeTypeStart),
			testutil.NewNode("handoff", models.NodeTypeTransfer),
		),
		testutil.WithConnections(testutil.Connect("start", "handoff")),
	))
	require.NoError(t, err)

	_, _, err = service.Publish(ctx, created.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handoff")
}

func TestPublishWarnsWhenNoEndNode(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, testutil.NewFlow(
		testutil.WithStatus(models.FlowStatusDraft),
		testutil.WithNodes(
			testutil.NewNode("start", models.NodeTypeStart),
			testutil.NewNode("greet", models.NodeTypeMessage, "text", "Hello"),
		),
		testutil.WithConnections(testutil.Connect("start", "greet")),
	))
	require.NoError(t, err)

	published, issues, err := service.Publish(ctx, created.ID)
	require.NoError(t, err)

	assert.True(t, published.IsPublished())
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Message, "no end node")
}

func TestPublishTwiceFails(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, draftFlow())
	require.NoError(t, err)

	_, _, err = service.Publish(ctx, created.ID)
	require.NoError(t, err)

	_, _, err = service.Publish(ctx, created.ID)
	assert.ErrorIs(t, err, flow.ErrAlreadyPublished)
}

func TestUnpublishReturnsFlowToDraft(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, draftFlow())
	require.NoError(t, err)

	_, _, err = service.Publish(ctx, created.ID)
	require.NoError(t, err)

	draft, err := service.Unpublish(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, models.FlowStatusDraft, draft.Status)
	assert.Nil(t, draft.PublishedAt)
}

func TestUpdateRejectsPublishedFlow(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, draftFlow())
	require.NoError(t, err)

	_, _, err = service.Publish(ctx, created.ID)
	require.NoError(t, err)

	_, err = service.Update(ctx, created)
	assert.ErrorIs(t, err, flow.ErrAlreadyPublished)
}

func TestDuplicateNodeIDsRejected(t *testing.T) {
	service := newService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, draftFlow(
		testutil.WithNodes(
			testutil.NewNode("start", models.NodeTypeStart),
			testutil.NewNode("greet", models.NodeTypeMessage, "text", "hi"),
			testutil.NewNode("greet", models.NodeTypeMessage, "text", "hi again"),
		),
		testutil.WithConnections(),
	))
	require.NoError(t, err)

	_, _, err = service.Publish(ctx, created.ID)
	assert.ErrorIs(t, err, flow.ErrDuplicateNodeID)
}
