package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voxflow/voxflow/pkg/expression"
	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/protocol"
	"github.com/voxflow/voxflow/pkg/template"
)

// Condition kinds accepted by condition nodes.
const (
	ConditionKindUserInput  = "user_input"
	ConditionKindAIAnalysis = "ai_analysis"
	ConditionKindCustom     = "custom"
)

const (
	defaultAnalysisModel     = "gpt-4o-mini"
	defaultAnalysisMaxTokens = 10
)

// ConditionEvaluator decides true/false for condition nodes. Evaluation is
// deterministic for identical node and context inputs, except ai_analysis
// which depends on the AI collaborator's reply.
type ConditionEvaluator struct {
	ai     protocol.AIProvider
	expr   *expression.Evaluator
	logger *slog.Logger
}

// NewConditionEvaluator creates a condition evaluator. The AI provider is
// only consulted for ai_analysis conditions.
func NewConditionEvaluator(ai protocol.AIProvider, expr *expression.Evaluator, logger *slog.Logger) *ConditionEvaluator {
	return &ConditionEvaluator{
		ai:     ai,
		expr:   expr,
		logger: logger.With("module", "condition_evaluator"),
	}
}

// Evaluate resolves the node's condition against the execution context. The
// returned warning is non-empty when a recoverable failure was resolved to a
// safe default instead of aborting the run.
func (e *ConditionEvaluator) Evaluate(ctx context.Context, node *models.Node, ec *models.ExecutionContext) (bool, string, error) {
	kind := node.StringData("condition_type", ConditionKindUserInput)

	switch kind {
	case ConditionKindUserInput:
		return e.evaluateUserInput(node, ec), "", nil
	case ConditionKindAIAnalysis:
		return e.evaluateAIAnalysis(ctx, node, ec)
	case ConditionKindCustom:
		return e.evaluateCustom(node, ec)
	default:
		return false, "", fmt.Errorf("unknown condition type %q", kind)
	}
}

// evaluateUserInput matches any expected value as a case-insensitive
// substring of the caller's last input.
func (e *ConditionEvaluator) evaluateUserInput(node *models.Node, ec *models.ExecutionContext) bool {
	raw, _ := ec.Variable("user_input")

	userInput := strings.ToLower(template.Stringify(raw))
	if userInput == "" {
		return false
	}

	for _, expected := range node.SliceData("expected_values") {
		candidate := strings.ToLower(template.Stringify(expected))
		if candidate != "" && strings.Contains(userInput, candidate) {
			return true
		}
	}

	return false
}

// evaluateAIAnalysis asks the AI collaborator a yes/no question. A failed AI
// call resolves to false with a warning; branching must never throw on a
// provider outage.
func (e *ConditionEvaluator) evaluateAIAnalysis(ctx context.Context, node *models.Node, ec *models.ExecutionContext) (bool, string, error) {
	evaluationPrompt := node.StringData("evaluation_prompt", "")
	target := template.Resolve(node.StringData("analysis_value", "{user_input}"), ec.Variables)

	prompt := fmt.Sprintf(
		"%s\n\nValue to analyze: %s\n\nAnswer with exactly 'true' or 'false'.",
		evaluationPrompt, target,
	)

	model := node.StringData("model", defaultAnalysisModel)

	reply, err := e.ai.Generate(ctx, prompt, model, defaultAnalysisMaxTokens)
	if err != nil {
		warning := fmt.Sprintf("ai analysis failed, defaulting to false: %v", err)
		e.logger.Warn("AI analysis condition failed",
			"node_id", node.ID,
			"execution_id", ec.ExecutionID,
			"error", err,
		)

		return false, warning, nil
	}

	return strings.Contains(strings.ToLower(reply), "true"), "", nil
}

// evaluateCustom runs the restricted expression over variables and input
// data. Expression errors are fatal: a broken expression is a flow bug, not
// a runtime hazard to default away.
func (e *ConditionEvaluator) evaluateCustom(node *models.Node, ec *models.ExecutionContext) (bool, string, error) {
	expr := node.StringData("expression", "")
	if expr == "" {
		return false, "", fmt.Errorf("custom condition has no expression")
	}

	result, err := e.expr.EvalBool(expr, ec.Variables, ec.InputData)
	if err != nil {
		return false, "", err
	}

	return result, "", nil
}
