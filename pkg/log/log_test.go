package log_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/voxflow/voxflow/pkg/log"
)

func TestSetupAppliesLevel(t *testing.T) {
	log.Setup("debug")
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))

	log.Setup("error")
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelError))
}

func TestSetupUnknownLevelFallsBackToInfo(t *testing.T) {
	log.Setup("verbose")

	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
}

func TestSetupHonorsJSONFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	log.Setup("info")

	_, ok := slog.Default().Handler().(*slog.JSONHandler)
	assert.True(t, ok)
}
