package stats_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/voxflow/voxflow/pkg/log"
	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/mocks"
	"github.com/voxflow/voxflow/pkg/stats"
)

func newAggregator() *stats.Aggregator {
	return stats.New(nil, prometheus.NewRegistry(), log.WithModule("test"))
}

func TestRecordRunUpdatesIncrementalAggregates(t *testing.T) {
	aggregator := newAggregator()
	ctx := context.Background()

	aggregator.RecordRun(ctx, "flow-1", models.ExecutionStatusCompleted, 2*time.Second)
	aggregator.RecordRun(ctx, "flow-1", models.ExecutionStatusError, 4*time.Second)
	aggregator.RecordRun(ctx, "flow-1", models.ExecutionStatusCompleted, 6*time.Second)

	snapshot, ok := aggregator.Snapshot("flow-1")
	require.True(t, ok)

	assert.Equal(t, int64(3), snapshot.TotalExecutions)
	assert.InDelta(t, 66.666, snapshot.SuccessRate, 0.001)
	assert.InDelta(t, 4.0, snapshot.AvgDurationSeconds, 1e-9)
}

func TestRecordRunKeepsFlowsIndependent(t *testing.T) {
	aggregator := newAggregator()
	ctx := context.Background()

	aggregator.RecordRun(ctx, "flow-a", models.ExecutionStatusCompleted, time.Second)
	aggregator.RecordRun(ctx, "flow-b", models.ExecutionStatusError, time.Second)

	a, ok := aggregator.Snapshot("flow-a")
	require.True(t, ok)
	assert.InDelta(t, 100.0, a.SuccessRate, 1e-9)

	b, ok := aggregator.Snapshot("flow-b")
	require.True(t, ok)
	assert.InDelta(t, 0.0, b.SuccessRate, 1e-9)
}

func TestSnapshotOfUnknownFlow(t *testing.T) {
	aggregator := newAggregator()

	_, ok := aggregator.Snapshot("missing")
	assert.False(t, ok)
}

func TestSeedContinuesAggregates(t *testing.T) {
	aggregator := newAggregator()
	aggregator.Seed("flow-1", models.FlowStats{
		TotalExecutions:    9,
		SuccessRate:        100.0,
		AvgDurationSeconds: 1.0,
	})

	aggregator.RecordRun(context.Background(), "flow-1", models.ExecutionStatusError, 11*time.Second)

	snapshot, ok := aggregator.Snapshot("flow-1")
	require.True(t, ok)

	assert.Equal(t, int64(10), snapshot.TotalExecutions)
	assert.InDelta(t, 90.0, snapshot.SuccessRate, 1e-9)
	assert.InDelta(t, 2.0, snapshot.AvgDurationSeconds, 1e-9)
}

func TestConcurrentRecordRunLosesNoUpdates(t *testing.T) {
	aggregator := newAggregator()
	ctx := context.Background()

	const runs = 200

	var wg sync.WaitGroup

	for i := range runs {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			status := models.ExecutionStatusCompleted
			if i%2 == 1 {
				status = models.ExecutionStatusError
			}

			aggregator.RecordRun(ctx, "flow-1", status, time.Second)
		}(i)
	}

	wg.Wait()

	snapshot, ok := aggregator.Snapshot("flow-1")
	require.True(t, ok)

	assert.Equal(t, int64(runs), snapshot.TotalExecutions)
	assert.InDelta(t, 50.0, snapshot.SuccessRate, 1e-9)
	assert.InDelta(t, 1.0, snapshot.AvgDurationSeconds, 1e-9)
}

func TestRecordRunPushesSnapshotToSink(t *testing.T) {
	sink := &mocks.MockStatsSink{}
	sink.On("SaveFlowStats", mock.Anything, "flow-1", mock.MatchedBy(func(s models.FlowStats) bool {
		return s.TotalExecutions == 1 && s.SuccessRate == 100.0
	})).Return(nil).Once()

	aggregator := stats.New(sink, prometheus.NewRegistry(), log.WithModule("test"))
	aggregator.RecordRun(context.Background(), "flow-1", models.ExecutionStatusCompleted, time.Second)

	sink.AssertExpectations(t)
}
