package engine

import (
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/voxflow/voxflow/pkg/expression"
	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/template"
)

// Router selects which outgoing connections to follow after a node executes.
// A condition that cannot be evaluated (bad field, impossible coercion,
// broken expression) makes that connection not-matched; routing never fails
// a run.
type Router struct {
	expr   *expression.Evaluator
	logger *slog.Logger
}

// NewRouter creates a connection router.
func NewRouter(expr *expression.Evaluator, logger *slog.Logger) *Router {
	return &Router{
		expr:   expr,
		logger: logger.With("module", "connection_router"),
	}
}

// NextNodes returns the target nodes of every outgoing connection of source
// that matches the execution result, in connection declaration order. An
// empty result means the run completes at this node.
func (r *Router) NextNodes(flow *models.Flow, source *models.Node, result map[string]any, ec *models.ExecutionContext) []*models.Node {
	connections := flow.ConnectionsFrom(source.ID)
	if len(connections) == 0 {
		return nil
	}

	// Conditional connections see the node result overlaid on the run
	// variables, so a condition can reference either.
	merged := make(map[string]any, len(ec.Variables)+len(result))
	maps.Copy(merged, ec.Variables)
	maps.Copy(merged, result)

	var next []*models.Node

	for _, conn := range connections {
		if !r.follows(conn, result, merged, ec) {
			continue
		}

		target := flow.NodeByID(conn.TargetNodeID)
		if target == nil {
			r.logger.Warn("connection targets unknown node",
				"connection_id", conn.ID,
				"target_node_id", conn.TargetNodeID,
				"flow_id", flow.ID,
			)

			continue
		}

		next = append(next, target)
	}

	return next
}

func (r *Router) follows(conn *models.Connection, result, merged map[string]any, ec *models.ExecutionContext) bool {
	switch conn.Type {
	case models.ConnectionTypeDefault:
		return true
	case models.ConnectionTypeSuccess:
		success, ok := result["success"].(bool)

		return ok && success
	case models.ConnectionTypeError:
		success, ok := result["success"].(bool)

		return !ok || !success
	case models.ConnectionTypeConditional:
		return r.matchesCondition(conn, merged, ec)
	default:
		r.logger.Warn("unknown connection type, skipping",
			"connection_id", conn.ID,
			"connection_type", string(conn.Type),
		)

		return false
	}
}

func (r *Router) matchesCondition(conn *models.Connection, merged map[string]any, ec *models.ExecutionContext) bool {
	cond := conn.Condition
	if cond == nil {
		return false
	}

	if cond.Expression != "" {
		matched, err := r.expr.EvalBool(cond.Expression, ec.Variables, ec.InputData)
		if err != nil {
			r.logger.Warn("connection expression failed, treating as not matched",
				"connection_id", conn.ID,
				"error", err,
			)

			return false
		}

		return matched
	}

	actual, ok := merged[cond.Field]
	if !ok {
		return false
	}

	switch cond.Operator {
	case models.OperatorEquals:
		return looselyEqual(actual, cond.Value)
	case models.OperatorNotEquals:
		return !looselyEqual(actual, cond.Value)
	case models.OperatorContains:
		return strings.Contains(template.Stringify(actual), template.Stringify(cond.Value))
	case models.OperatorGreaterThan:
		return compareNumeric(actual, cond.Value, func(a, b float64) bool { return a > b })
	case models.OperatorLessThan:
		return compareNumeric(actual, cond.Value, func(a, b float64) bool { return a < b })
	default:
		r.logger.Warn("unknown condition operator, treating as not matched",
			"connection_id", conn.ID,
			"operator", string(cond.Operator),
		)

		return false
	}
}

// looselyEqual compares numerically when both sides coerce to numbers and by
// stringified value otherwise, so `"3" equals 3` holds for JSON-decoded data.
func looselyEqual(a, b any) bool {
	aNum, aOK := toFloat64(a)

	bNum, bOK := toFloat64(b)
	if aOK && bOK {
		return aNum == bNum
	}

	return template.Stringify(a) == template.Stringify(b)
}

// compareNumeric applies cmp after coercing both sides to float64. Impossible
// coercion means not-matched, never an error.
func compareNumeric(a, b any, cmp func(a, b float64) bool) bool {
	aNum, aOK := toFloat64(a)

	bNum, bOK := toFloat64(b)
	if !aOK || !bOK {
		return false
	}

	return cmp(aNum, bNum)
}

func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)

		return f, err == nil
	default:
		return 0, false
	}
}
