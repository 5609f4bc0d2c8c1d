package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxflow/voxflow/pkg/log"
	"github.com/voxflow/voxflow/pkg/trigger/schedule"
)

func TestNewTriggerValidatesCronExpression(t *testing.T) {
	logger := log.WithModule("test")

	trigger, err := schedule.NewTrigger("flow-1", "*/5 * * * *", logger)
	require.NoError(t, err)
	assert.Equal(t, "flow-1", trigger.FlowID)

	_, err = schedule.NewTrigger("flow-1", "not a cron", logger)
	assert.Error(t, err)

	_, err = schedule.NewTrigger("", "*/5 * * * *", logger)
	assert.Error(t, err)
}
