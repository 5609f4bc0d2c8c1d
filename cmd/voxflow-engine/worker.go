package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/voxflow/voxflow/pkg/cmd"
	"github.com/voxflow/voxflow/pkg/engine"
	"github.com/voxflow/voxflow/pkg/eventbus"
	"github.com/voxflow/voxflow/pkg/events"
	"github.com/voxflow/voxflow/pkg/persistence"
	"github.com/voxflow/voxflow/pkg/protocol"
	"github.com/voxflow/voxflow/pkg/trigger/queue"
	"github.com/voxflow/voxflow/pkg/trigger/schedule"
)

const shutdownTimeout = 10 * time.Second

// WorkerConfig carries the CLI settings for the engine worker.
type WorkerConfig struct {
	AIProvider   string
	OpenAIAPIKey string
	Schedules    []string
	QueueAddr    string
	QueueName    string
	MaxSteps     int
	MetricsPort  int
}

// Worker runs trigger sources against the execution engine and persists
// every result.
type Worker struct {
	cfg    WorkerConfig
	store  persistence.Persistence
	bus    eventbus.EventBus
	logger *slog.Logger
}

func NewWorker(logger *slog.Logger, store persistence.Persistence, bus eventbus.EventBus, cfg WorkerConfig) *Worker {
	return &Worker{
		cfg:    cfg,
		store:  store,
		bus:    bus,
		logger: logger,
	}
}

// Run starts the configured triggers and blocks until SIGINT or SIGTERM.
func (w *Worker) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ai := cmd.NewAIProvider(w.cfg.AIProvider, w.cfg.OpenAIAPIKey, w.logger)
	collector := cmd.NewInputCollector(w.logger)
	transfers := cmd.NewTransferService(w.logger)

	stack := cmd.NewEngineStack(w.store, w.bus, ai, collector, transfers,
		prometheus.DefaultRegisterer, engine.Config{MaxSteps: w.cfg.MaxSteps})

	w.seedStats(ctx, stack)

	triggers, err := w.buildTriggers()
	if err != nil {
		return err
	}

	if len(triggers) == 0 {
		return errors.New("no triggers configured: pass --schedule or --queue-addr")
	}

	if err := w.subscribeLifecycleEvents(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to execution events: %w", err)
	}

	callback := w.executionCallback(stack)

	for _, trigger := range triggers {
		if err := trigger.Start(ctx, callback); err != nil {
			return fmt.Errorf("failed to start trigger: %w", err)
		}
	}

	metricsServer := w.startMetricsServer()

	w.logger.InfoContext(ctx, "Engine worker started",
		"triggers", len(triggers),
		"metrics_port", w.cfg.MetricsPort,
	)

	<-ctx.Done()

	w.logger.Info("Shutting down engine worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for _, trigger := range triggers {
		if err := trigger.Stop(shutdownCtx); err != nil {
			w.logger.Error("Failed to stop trigger", "error", err)
		}
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		w.logger.Error("Failed to stop metrics server", "error", err)
	}

	return nil
}

// executionCallback loads the published flow for a request, runs it, and
// saves the result. Run failures are recorded in the result, not returned;
// only requests that never start an execution produce an error.
func (w *Worker) executionCallback(stack *cmd.EngineStack) protocol.TriggerCallback {
	return func(ctx context.Context, req protocol.ExecutionRequest) error {
		flow, err := w.store.FlowRepository().GetPublishedFlow(ctx, req.FlowID)
		if err != nil {
			return fmt.Errorf("failed to load published flow %s: %w", req.FlowID, err)
		}

		result, err := stack.Executor.Execute(ctx, flow, req.Input, req.Variables)
		if err != nil {
			w.logger.ErrorContext(ctx, "Flow execution failed",
				"flow_id", req.FlowID,
				"execution_id", result.ExecutionID,
				"error", err,
			)
		}

		if saveErr := w.store.ExecutionRepository().SaveExecution(ctx, result); saveErr != nil {
			return fmt.Errorf("failed to save execution %s: %w", result.ExecutionID, saveErr)
		}

		return nil
	}
}

// seedStats loads persisted flow stats so counters survive restarts.
func (w *Worker) seedStats(ctx context.Context, stack *cmd.EngineStack) {
	flows, err := w.store.FlowRepository().Flows(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to preload flow stats", "error", err)

		return
	}

	for _, flow := range flows {
		if flow.Stats.TotalExecutions > 0 {
			stack.Aggregator.Seed(flow.ID, flow.Stats)
		}
	}
}

// subscribeLifecycleEvents logs terminal execution events from the bus. With
// the kafka bus this also covers runs started by other instances.
func (w *Worker) subscribeLifecycleEvents(ctx context.Context) error {
	err := w.bus.Handle(events.ExecutionCompletedEvent, func(ctx context.Context, event any) error {
		if completed, ok := event.(*events.ExecutionCompleted); ok {
			w.logger.InfoContext(ctx, "Execution completed",
				"flow_id", completed.FlowID,
				"execution_id", completed.ExecutionID,
				"steps", completed.Steps,
				"duration_seconds", completed.DurationSeconds,
			)
		}

		return nil
	})
	if err != nil {
		return err
	}

	err = w.bus.Handle(events.ExecutionFailedEvent, func(ctx context.Context, event any) error {
		if failed, ok := event.(*events.ExecutionFailed); ok {
			w.logger.WarnContext(ctx, "Execution failed",
				"flow_id", failed.FlowID,
				"execution_id", failed.ExecutionID,
				"kind", failed.Kind,
				"error", failed.Error,
			)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return w.bus.Subscribe(ctx)
}

func (w *Worker) buildTriggers() ([]protocol.Trigger, error) {
	triggers := make([]protocol.Trigger, 0, len(w.cfg.Schedules)+1)

	for _, spec := range w.cfg.Schedules {
		flowID, cronExpr, ok := strings.Cut(spec, "@")
		if !ok || flowID == "" || cronExpr == "" {
			return nil, fmt.Errorf("invalid schedule %q: expected <flow-id>@<cron>", spec)
		}

		trigger, err := schedule.NewTrigger(flowID, cronExpr, w.logger)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
		}

		triggers = append(triggers, trigger)
	}

	if w.cfg.QueueAddr != "" {
		trigger, err := queue.NewTrigger(queue.Config{
			Addr:  w.cfg.QueueAddr,
			Queue: w.cfg.QueueName,
		}, w.logger)
		if err != nil {
			return nil, err
		}

		triggers = append(triggers, trigger)
	}

	return triggers, nil
}

func (w *Worker) startMetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(w.cfg.MetricsPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.logger.Error("Metrics server failed", "error", err)
		}
	}()

	return server
}
