package engine_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voxflow/voxflow/pkg/engine"
)

func TestErrorKindClassification(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		kind engine.ErrorKind
	}{
		{name: "validation", err: engine.NewValidationError("exec-1", cause), kind: engine.KindValidation},
		{name: "execution", err: engine.NewExecutionError("exec-1", "node-1", cause), kind: engine.KindExecution},
		{name: "configuration", err: engine.NewConfigurationError("exec-1", "node-1", cause), kind: engine.KindConfiguration},
		{name: "timeout", err: engine.NewTimeoutError("exec-1", "node-1", cause), kind: engine.KindTimeout},
		{name: "limit exceeded", err: engine.NewLimitExceededError("exec-1", "node-1", cause), kind: engine.KindLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, engine.KindOf(tt.err))
			assert.ErrorIs(t, tt.err, cause)
		})
	}
}

func TestErrorMessageCarriesContext(t *testing.T) {
	err := engine.NewExecutionError("exec-42", "node-7", errors.New("dial failed"))

	assert.Contains(t, err.Error(), "node-7")
	assert.Contains(t, err.Error(), "dial failed")
	assert.Equal(t, "exec-42", err.ExecutionID)
}

func TestKindOfUnclassifiedErrorIsExecution(t *testing.T) {
	assert.Equal(t, engine.KindExecution, engine.KindOf(errors.New("plain")))
}

func TestErrorKindSurvivesWrapping(t *testing.T) {
	inner := engine.NewTimeoutError("exec-1", "node-1", engine.ErrRunTimeout)
	wrapped := fmt.Errorf("running flow: %w", inner)

	assert.True(t, engine.IsTimeout(wrapped))
	assert.ErrorIs(t, wrapped, engine.ErrRunTimeout)
}

func TestSentinelMatchingThroughConstructor(t *testing.T) {
	err := engine.NewLimitExceededError("exec-1", "node-1",
		fmt.Errorf("%w: 50", engine.ErrMaxStepsExceeded))

	assert.ErrorIs(t, err, engine.ErrMaxStepsExceeded)
	assert.True(t, engine.IsLimitExceeded(err))
	assert.False(t, engine.IsTimeout(err))
}
