// Package expression evaluates restricted boolean expressions for custom
// flow conditions. Expressions are compiled with CEL against an environment
// holding only the run variables and the trigger input; no host functions,
// attribute access, or loops are exposed.
package expression

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
)

// Evaluator compiles and runs custom condition expressions.
type Evaluator struct {
	env *cel.Env
}

// New creates an evaluator whose environment declares exactly two variables:
// "variables" and "input_data", both dynamic maps.
func New() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("variables", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("input_data", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create expression environment: %w", err)
	}

	return &Evaluator{env: env}, nil
}

// EvalBool compiles and evaluates the expression over the given variable and
// input maps. The expression must produce a boolean; any other result type is
// an error.
func (e *Evaluator) EvalBool(expr string, variables, inputData map[string]any) (bool, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("failed to compile expression %q: %w", expr, issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("failed to plan expression %q: %w", expr, err)
	}

	if variables == nil {
		variables = map[string]any{}
	}

	if inputData == nil {
		inputData = map[string]any{}
	}

	out, _, err := prg.Eval(map[string]any{
		"variables":  variables,
		"input_data": inputData,
	})
	if err != nil {
		return false, fmt.Errorf("failed to evaluate expression %q: %w", expr, err)
	}

	if out.Type() != types.BoolType {
		return false, fmt.Errorf("expression %q returned %s, want bool", expr, out.Type().TypeName())
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned non-boolean value", expr)
	}

	return result, nil
}
