package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxflow/voxflow/pkg/engine"
	"github.com/voxflow/voxflow/pkg/expression"
	"github.com/voxflow/voxflow/pkg/log"
	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/testutil"
)

func newTestRouter(t *testing.T) *engine.Router {
	t.Helper()

	expr, err := expression.New()
	require.NoError(t, err)

	return engine.NewRouter(expr, log.WithModule("test"))
}

func routingFlow(connections ...*models.Connection) *models.Flow {
	return testutil.NewFlow(
		testutil.WithNodes(
			testutil.NewNode("source", models.NodeTypeMessage, "text", "hi"),
			testutil.NewNode("a", models.NodeTypeMessage, "text", "a"),
			testutil.NewNode("b", models.NodeTypeMessage, "text", "b"),
		),
		testutil.WithConnections(connections...),
	)
}

func nextIDs(router *engine.Router, flow *models.Flow, result map[string]any, ec *models.ExecutionContext) []string {
	source := flow.NodeByID("source")

	var ids []string
	for _, node := range router.NextNodes(flow, source, result, ec) {
		ids = append(ids, node.ID)
	}

	return ids
}

func TestRouterDefaultConnectionAlwaysFollowed(t *testing.T) {
	router := newTestRouter(t)
	flow := routingFlow(testutil.Connect("source", "a"))
	ec := models.NewExecutionContext("exec-1", flow.ID, nil, nil)

	assert.Equal(t, []string{"a"}, nextIDs(router, flow, nil, ec))
}

func TestRouterSuccessConnectionRequiresSuccessTrue(t *testing.T) {
	router := newTestRouter(t)
	flow := routingFlow(testutil.ConnectTyped("source", "a", models.ConnectionTypeSuccess))
	ec := models.NewExecutionContext("exec-1", flow.ID, nil, nil)

	assert.Equal(t, []string{"a"}, nextIDs(router, flow, map[string]any{"success": true}, ec))
	assert.Empty(t, nextIDs(router, flow, map[string]any{"success": false}, ec))
	assert.Empty(t, nextIDs(router, flow, map[string]any{}, ec))
	assert.Empty(t, nextIDs(router, flow, map[string]any{"success": "true"}, ec))
}

func TestRouterErrorConnectionFollowedOnFailureOrMissingFlag(t *testing.T) {
	router := newTestRouter(t)
	flow := routingFlow(testutil.ConnectTyped("source", "a", models.ConnectionTypeError))
	ec := models.NewExecutionContext("exec-1", flow.ID, nil, nil)

	assert.Equal(t, []string{"a"}, nextIDs(router, flow, map[string]any{"success": false}, ec))
	assert.Equal(t, []string{"a"}, nextIDs(router, flow, map[string]any{}, ec))
	assert.Empty(t, nextIDs(router, flow, map[string]any{"success": true}, ec))
}

func TestRouterConditionalOperators(t *testing.T) {
	tests := []struct {
		name     string
		operator models.ConditionOperator
		value    any
		result   map[string]any
		matched  bool
	}{
		{name: "equals on strings", operator: models.OperatorEquals, value: "yes", result: map[string]any{"answer": "yes"}, matched: true},
		{name: "equals coerces numeric strings", operator: models.OperatorEquals, value: 3, result: map[string]any{"answer": "3"}, matched: true},
		{name: "not_equals", operator: models.OperatorNotEquals, value: "yes", result: map[string]any{"answer": "no"}, matched: true},
		{name: "contains", operator: models.OperatorContains, value: "half", result: map[string]any{"answer": "one and a half"}, matched: true},
		{name: "greater_than", operator: models.OperatorGreaterThan, value: 10, result: map[string]any{"answer": 11.0}, matched: true},
		{name: "greater_than equal values", operator: models.OperatorGreaterThan, value: 10, result: map[string]any{"answer": 10}, matched: false},
		{name: "less_than", operator: models.OperatorLessThan, value: 10, result: map[string]any{"answer": 9}, matched: true},
		{name: "numeric compare on non numeric is not matched", operator: models.OperatorGreaterThan, value: 10, result: map[string]any{"answer": "lots"}, matched: false},
		{name: "missing field is not matched", operator: models.OperatorEquals, value: "yes", result: map[string]any{}, matched: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t)
			flow := routingFlow(testutil.ConnectConditional("source", "a", "answer", tt.operator, tt.value))
			ec := models.NewExecutionContext("exec-1", flow.ID, nil, nil)

			next := nextIDs(router, flow, tt.result, ec)

			if tt.matched {
				assert.Equal(t, []string{"a"}, next)
			} else {
				assert.Empty(t, next)
			}
		})
	}
}

func TestRouterConditionReadsVariablesWithResultOverlay(t *testing.T) {
	router := newTestRouter(t)
	flow := routingFlow(testutil.ConnectConditional("source", "a", "tier", models.OperatorEquals, "gold"))

	ec := models.NewExecutionContext("exec-1", flow.ID, nil, map[string]any{"tier": "gold"})
	assert.Equal(t, []string{"a"}, nextIDs(router, flow, nil, ec))

	// A result value shadows the variable of the same name.
	assert.Empty(t, nextIDs(router, flow, map[string]any{"tier": "silver"}, ec))
}

func TestRouterExpressionCondition(t *testing.T) {
	router := newTestRouter(t)
	flow := routingFlow(testutil.ConnectExpression("source", "a", `variables.attempts < 3`))

	ec := models.NewExecutionContext("exec-1", flow.ID, nil, map[string]any{"attempts": 1})
	assert.Equal(t, []string{"a"}, nextIDs(router, flow, nil, ec))

	ec = models.NewExecutionContext("exec-1", flow.ID, nil, map[string]any{"attempts": 5})
	assert.Empty(t, nextIDs(router, flow, nil, ec))
}

func TestRouterBrokenExpressionIsNotMatched(t *testing.T) {
	router := newTestRouter(t)
	flow := routingFlow(testutil.ConnectExpression("source", "a", `variables.attempts <`))

	ec := models.NewExecutionContext("exec-1", flow.ID, nil, map[string]any{"attempts": 1})
	assert.Empty(t, nextIDs(router, flow, nil, ec))
}

func TestRouterPreservesDeclarationOrder(t *testing.T) {
	router := newTestRouter(t)
	flow := routingFlow(
		testutil.Connect("source", "b"),
		testutil.Connect("source", "a"),
	)

	ec := models.NewExecutionContext("exec-1", flow.ID, nil, nil)
	assert.Equal(t, []string{"b", "a"}, nextIDs(router, flow, nil, ec))
}

func TestRouterSkipsConnectionToUnknownTarget(t *testing.T) {
	router := newTestRouter(t)
	flow := routingFlow(
		testutil.Connect("source", "ghost"),
		testutil.Connect("source", "a"),
	)

	ec := models.NewExecutionContext("exec-1", flow.ID, nil, nil)
	assert.Equal(t, []string{"a"}, nextIDs(router, flow, nil, ec))
}

func TestRouterConditionalWithoutConditionIsNotMatched(t *testing.T) {
	router := newTestRouter(t)
	flow := routingFlow(testutil.ConnectTyped("source", "a", models.ConnectionTypeConditional))

	ec := models.NewExecutionContext("exec-1", flow.ID, nil, nil)
	assert.Empty(t, nextIDs(router, flow, nil, ec))
}
