package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalBool_Comparisons(t *testing.T) {
	evaluator, err := New()
	require.NoError(t, err)

	variables := map[string]any{
		"attempts": 3,
		"intent":   "billing",
	}
	input := map[string]any{
		"caller": "+15550100",
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"numeric greater", `variables.attempts > 2`, true},
		{"numeric less", `variables.attempts < 2`, false},
		{"string equality", `variables.intent == "billing"`, true},
		{"boolean and", `variables.attempts >= 3 && variables.intent != "sales"`, true},
		{"input lookup", `input_data.caller == "+15550100"`, true},
		{"arithmetic", `variables.attempts * 2 == 6`, true},
		{"ternary", `variables.attempts > 10 ? false : true`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evaluator.EvalBool(tt.expr, variables, input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalBool_NonBooleanResult(t *testing.T) {
	evaluator, err := New()
	require.NoError(t, err)

	_, err = evaluator.EvalBool(`variables.attempts + 1`, map[string]any{"attempts": 1}, nil)
	assert.ErrorContains(t, err, "want bool")
}

func TestEvalBool_UnknownVariableFails(t *testing.T) {
	evaluator, err := New()
	require.NoError(t, err)

	// Only "variables" and "input_data" are declared; anything else is a
	// compile error, not a lookup against the host environment.
	_, err = evaluator.EvalBool(`os.getenv("HOME") != ""`, nil, nil)
	assert.Error(t, err)

	_, err = evaluator.EvalBool(`session.user == "root"`, nil, nil)
	assert.Error(t, err)
}

func TestEvalBool_MissingKeyIsError(t *testing.T) {
	evaluator, err := New()
	require.NoError(t, err)

	_, err = evaluator.EvalBool(`variables.missing == "x"`, map[string]any{}, nil)
	assert.Error(t, err)
}

func TestEvalBool_NilMaps(t *testing.T) {
	evaluator, err := New()
	require.NoError(t, err)

	got, err := evaluator.EvalBool(`size(variables) == 0`, nil, nil)
	require.NoError(t, err)
	assert.True(t, got)
}
