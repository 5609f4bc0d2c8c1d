// Package stats maintains per-flow execution statistics with incremental
// aggregates, so updating after a run never rescans execution history.
package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/protocol"
)

// Aggregator tracks rolling per-flow counters. Each flow has a single-writer
// lock: concurrent runs of the same flow serialize their stats update, runs
// of different flows never contend.
type Aggregator struct {
	mu      sync.Mutex
	entries map[string]*entry

	sink   protocol.StatsSink
	logger *slog.Logger

	executions *prometheus.CounterVec
	durations  prometheus.Histogram
}

type entry struct {
	mu    sync.Mutex
	stats models.FlowStats
}

// New creates an aggregator. sink may be nil; updated stats are then kept in
// memory only. registerer may be nil to skip metrics registration.
func New(sink protocol.StatsSink, registerer prometheus.Registerer, logger *slog.Logger) *Aggregator {
	a := &Aggregator{
		entries: make(map[string]*entry),
		sink:    sink,
		logger:  logger.With("module", "stats_aggregator"),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voxflow_executions_total",
			Help: "Completed flow executions by flow and final status.",
		}, []string{"flow_id", "status"}),
		durations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "voxflow_execution_duration_seconds",
			Help:    "Flow execution duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
	}

	if registerer != nil {
		registerer.MustRegister(a.executions, a.durations)
	}

	return a
}

// Seed loads previously persisted stats for a flow, typically at startup.
// Runs recorded after Seed continue the incremental aggregates from the
// seeded values.
func (a *Aggregator) Seed(flowID string, stats models.FlowStats) {
	e := a.entry(flowID)

	e.mu.Lock()
	e.stats = stats
	e.mu.Unlock()
}

// RecordRun folds one finished run into the flow's aggregates. Validation
// failures never reach here; only runs that executed at least one node are
// counted.
func (a *Aggregator) RecordRun(ctx context.Context, flowID string, status models.ExecutionStatus, duration time.Duration) {
	e := a.entry(flowID)

	e.mu.Lock()

	n := e.stats.TotalExecutions + 1

	success := 0.0
	if status == models.ExecutionStatusCompleted {
		success = 100.0
	}

	// Incremental mean: no run history is kept, the previous aggregate and
	// the new observation fully determine the next one.
	e.stats.SuccessRate = (e.stats.SuccessRate*float64(n-1) + success) / float64(n)
	e.stats.AvgDurationSeconds = (e.stats.AvgDurationSeconds*float64(n-1) + duration.Seconds()) / float64(n)
	e.stats.TotalExecutions = n

	snapshot := e.stats

	e.mu.Unlock()

	a.executions.WithLabelValues(flowID, string(status)).Inc()
	a.durations.Observe(duration.Seconds())

	if a.sink == nil {
		return
	}

	if err := a.sink.SaveFlowStats(ctx, flowID, snapshot); err != nil {
		a.logger.Error("Failed to persist flow stats",
			"flow_id", flowID,
			"total_executions", snapshot.TotalExecutions,
			"error", err,
		)
	}
}

// Snapshot returns the current aggregates for a flow.
func (a *Aggregator) Snapshot(flowID string) (models.FlowStats, bool) {
	a.mu.Lock()
	e, ok := a.entries[flowID]
	a.mu.Unlock()

	if !ok {
		return models.FlowStats{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.stats, true
}

func (a *Aggregator) entry(flowID string) *entry {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.entries[flowID]
	if !ok {
		e = &entry{}
		a.entries[flowID] = e
	}

	return e
}
