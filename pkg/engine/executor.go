package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/voxflow/voxflow/pkg/eventbus"
	"github.com/voxflow/voxflow/pkg/events"
	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/otelhelper"
	"github.com/voxflow/voxflow/pkg/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Default run limits.
const (
	DefaultMaxSteps   = 500
	DefaultRunTimeout = 2 * time.Minute
)

// Config bounds a single run. MaxSteps is the cycle guard: the flow graph is
// not guaranteed acyclic, so the step counter is the only thing standing
// between a looping flow and an unbounded run.
type Config struct {
	MaxSteps   int
	RunTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}

	if c.RunTimeout <= 0 {
		c.RunTimeout = DefaultRunTimeout
	}

	return c
}

// RunRecorder receives the outcome of every run that executed at least one
// node. The stats aggregator implements this.
type RunRecorder interface {
	RecordRun(ctx context.Context, flowID string, status models.ExecutionStatus, duration time.Duration)
}

// Executor drives flow runs: it resolves the start node, dispatches node
// executors, follows connections, fans out parallel branches, enforces the
// step and time limits, and assembles the trace.
type Executor struct {
	registry protocol.ExecutorRegistry
	router   *Router
	recorder RunRecorder
	bus      eventbus.EventPublisher
	tracer   trace.Tracer
	logger   *slog.Logger
	cfg      Config
}

// New creates an executor. recorder and bus may be nil; stats recording and
// event publishing are then skipped.
func New(
	registry protocol.ExecutorRegistry,
	router *Router,
	recorder RunRecorder,
	bus eventbus.EventPublisher,
	logger *slog.Logger,
	cfg Config,
) *Executor {
	return &Executor{
		registry: registry,
		router:   router,
		recorder: recorder,
		bus:      bus,
		tracer:   otel.Tracer("voxflow/engine"),
		logger:   logger.With("module", "flow_executor"),
		cfg:      cfg.withDefaults(),
	}
}

// Execute runs a published flow to completion and returns the execution
// result. The result is fully formed even on failure: the partial trace,
// final variables, and causing error are always attached alongside the
// returned error.
func (e *Executor) Execute(ctx context.Context, flow *models.Flow, input, variables map[string]any) (*models.ExecutionResult, error) {
	executionID := generateExecutionID()
	ec := models.NewExecutionContext(executionID, flow.ID, input, variables)

	logger := e.logger.With("execution_id", executionID, "flow_id", flow.ID)
	logger.Info("Starting flow execution")

	if err := e.validate(flow, executionID); err != nil {
		logger.Warn("Flow failed pre-execution validation", "error", err)
		ec.Status = models.ExecutionStatusError

		return e.buildResult(ec, nil, err), err
	}

	start := flow.StartNodes()[0]

	ctx, span := e.tracer.Start(ctx, "flow.execute", trace.WithAttributes(
		attribute.String(otelhelper.FlowIDKey, flow.ID),
		attribute.String(otelhelper.ExecutionIDKey, executionID),
		attribute.String(otelhelper.TriggerTypeKey, triggerType(input)),
	))
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.RunTimeout)
	defer cancel()

	e.publish(ctx, flow.ID, events.ExecutionStarted{
		BaseEvent:   e.baseEvent(events.ExecutionStartedEvent, flow.ID),
		ExecutionID: executionID,
		Input:       input,
	})

	var stepCounter atomic.Int64

	lastResult, err := e.runFrom(runCtx, flow, ec, start, &stepCounter, logger)
	if err != nil {
		ec.Status = models.ExecutionStatusError
		otelhelper.SetError(span, err)

		result := e.buildResult(ec, lastResult, err)
		e.finishRun(ctx, flow.ID, result, err, logger)

		return result, err
	}

	if ec.Status == models.ExecutionStatusRunning {
		ec.Status = models.ExecutionStatusCompleted
	}

	result := e.buildResult(ec, lastResult, nil)
	e.finishRun(ctx, flow.ID, result, nil, logger)

	return result, nil
}

func (e *Executor) validate(flow *models.Flow, executionID string) error {
	if !flow.IsPublished() {
		return NewValidationError(executionID, ErrFlowNotPublished)
	}

	switch starts := flow.StartNodes(); len(starts) {
	case 0:
		return NewValidationError(executionID, ErrNoStartNode)
	case 1:
		return nil
	default:
		return NewValidationError(executionID, ErrMultipleStartNodes)
	}
}

// runFrom executes the path beginning at node until the path terminates,
// fans out, or fails. stepCounter is shared by every branch of the run so
// the step limit is global.
func (e *Executor) runFrom(
	ctx context.Context,
	flow *models.Flow,
	ec *models.ExecutionContext,
	node *models.Node,
	stepCounter *atomic.Int64,
	logger *slog.Logger,
) (map[string]any, error) {
	current := node

	var lastResult map[string]any

	for current != nil {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return lastResult, NewTimeoutError(ec.ExecutionID, current.ID, ErrRunTimeout)
			}

			return lastResult, NewExecutionError(ec.ExecutionID, current.ID, err)
		}

		if stepCounter.Add(1) > int64(e.cfg.MaxSteps) {
			return lastResult, NewLimitExceededError(ec.ExecutionID, current.ID,
				fmt.Errorf("%w: %d", ErrMaxStepsExceeded, e.cfg.MaxSteps))
		}

		result, err := e.executeNode(ctx, current, ec, logger)
		if err != nil {
			return lastResult, err
		}

		lastResult = result

		// End nodes are terminal; the router is not consulted after them.
		if current.Type == models.NodeTypeEnd {
			return lastResult, nil
		}

		next := e.router.NextNodes(flow, current, result, ec)

		switch len(next) {
		case 0:
			// No matching outgoing connection: the run completes here.
			ec.Status = models.ExecutionStatusCompleted

			return lastResult, nil
		case 1:
			current = next[0]
		default:
			return e.fanOut(ctx, flow, ec, next, stepCounter, logger)
		}
	}

	return lastResult, nil
}

// executeNode dispatches a single node, records its execution step, and
// classifies any failure.
func (e *Executor) executeNode(
	ctx context.Context,
	node *models.Node,
	ec *models.ExecutionContext,
	logger *slog.Logger,
) (map[string]any, error) {
	executor, err := e.registry.ExecutorFor(node.Type)
	if err != nil {
		return nil, NewExecutionError(ec.ExecutionID, node.ID, err)
	}

	nodeCtx, span := e.tracer.Start(ctx, "flow.node", trace.WithAttributes(
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
	))
	defer span.End()

	logger.Debug("Executing node", "node_id", node.ID, "node_type", node.Type)

	step := &models.ExecutionStep{
		NodeID:    node.ID,
		NodeType:  node.Type,
		StartedAt: time.Now(),
	}

	result, execErr := executor.Execute(nodeCtx, node, ec)
	step.CompletedAt = time.Now()

	if execErr != nil {
		step.Status = models.StepStatusError
		step.Error = execErr.Error()
		ec.AppendStep(step)
		ec.Status = models.ExecutionStatusError

		classified := e.classify(execErr, ec.ExecutionID, node.ID)
		otelhelper.SetError(span, classified)
		e.publishStep(ctx, ec, step)

		logger.Error("Node execution failed",
			"node_id", node.ID,
			"node_type", node.Type,
			"error", execErr,
		)

		return nil, classified
	}

	step.Status = models.StepStatusCompleted
	step.Result = result
	ec.AppendStep(step)
	e.publishStep(ctx, ec, step)

	return result, nil
}

// classify maps a node executor failure into the engine error taxonomy.
// Errors the executors already classified (configuration failures) pass
// through untouched.
func (e *Executor) classify(err error, executionID, nodeID string) error {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return err
	}

	if errors.Is(err, protocol.ErrCollectTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(executionID, nodeID, err)
	}

	return NewExecutionError(executionID, nodeID, err)
}

// fanOut executes every target concurrently on an independent context copy
// and waits for all branches to finish. The first branch failure cancels its
// siblings and fails the run; branch traces are merged into the parent at
// the join barrier either way.
func (e *Executor) fanOut(
	ctx context.Context,
	flow *models.Flow,
	parent *models.ExecutionContext,
	targets []*models.Node,
	stepCounter *atomic.Int64,
	logger *slog.Logger,
) (map[string]any, error) {
	branchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type branchOutcome struct {
		ec     *models.ExecutionContext
		result map[string]any
		err    error
	}

	outcomes := make([]branchOutcome, len(targets))

	var wg sync.WaitGroup

	for i, target := range targets {
		wg.Add(1)

		go func(i int, target *models.Node) {
			defer wg.Done()

			branch := parent.Branch()
			result, err := e.runFrom(branchCtx, flow, branch, target, stepCounter, logger)
			outcomes[i] = branchOutcome{ec: branch, result: result, err: err}

			if err != nil {
				cancel()
			}
		}(i, target)
	}

	wg.Wait()

	// Join barrier: every branch step is recorded on the parent before
	// parallel_results is assembled.
	var firstErr error

	parallelResults := make([]any, 0, len(targets))

	for _, outcome := range outcomes {
		parent.Steps = append(parent.Steps, outcome.ec.Steps...)

		if outcome.err == nil {
			parallelResults = append(parallelResults, outcome.result)

			continue
		}

		// Prefer the causing failure over the cancellations it triggered
		// in sibling branches.
		if firstErr == nil || errors.Is(firstErr, context.Canceled) {
			firstErr = outcome.err
		}
	}

	if firstErr != nil {
		parent.Status = models.ExecutionStatusError

		return nil, firstErr
	}

	parent.Status = models.ExecutionStatusCompleted

	return map[string]any{"parallel_results": parallelResults}, nil
}

func (e *Executor) buildResult(ec *models.ExecutionContext, lastResult map[string]any, err error) *models.ExecutionResult {
	completedAt := time.Now()

	result := &models.ExecutionResult{
		ExecutionID:     ec.ExecutionID,
		FlowID:          ec.FlowID,
		Status:          ec.Status,
		Result:          lastResult,
		Steps:           ec.Steps,
		Variables:       ec.Variables,
		StartedAt:       ec.StartedAt,
		CompletedAt:     completedAt,
		DurationSeconds: completedAt.Sub(ec.StartedAt).Seconds(),
	}

	if err != nil {
		result.Error = err.Error()
	}

	return result
}

// finishRun records the run outcome exactly once and publishes the terminal
// event. Validation failures never reach here: they happen before any node
// runs and are not counted against the flow's statistics.
func (e *Executor) finishRun(ctx context.Context, flowID string, result *models.ExecutionResult, err error, logger *slog.Logger) {
	duration := result.CompletedAt.Sub(result.StartedAt)

	if e.recorder != nil {
		e.recorder.RecordRun(ctx, flowID, result.Status, duration)
	}

	if err != nil {
		e.publish(ctx, flowID, events.ExecutionFailed{
			BaseEvent:       e.baseEvent(events.ExecutionFailedEvent, flowID),
			ExecutionID:     result.ExecutionID,
			Kind:            string(KindOf(err)),
			Error:           err.Error(),
			DurationSeconds: result.DurationSeconds,
			Steps:           len(result.Steps),
		})

		logger.Error("Flow execution failed",
			"status", result.Status,
			"steps", len(result.Steps),
			"duration_seconds", result.DurationSeconds,
			"error", err,
		)

		return
	}

	e.publish(ctx, flowID, events.ExecutionCompleted{
		BaseEvent:       e.baseEvent(events.ExecutionCompletedEvent, flowID),
		ExecutionID:     result.ExecutionID,
		DurationSeconds: result.DurationSeconds,
		Steps:           len(result.Steps),
	})

	logger.Info("Flow execution completed",
		"steps", len(result.Steps),
		"duration_seconds", result.DurationSeconds,
	)
}

func (e *Executor) publishStep(ctx context.Context, ec *models.ExecutionContext, step *models.ExecutionStep) {
	e.publish(ctx, ec.FlowID, events.ExecutionStep{
		BaseEvent:   e.baseEvent(events.ExecutionStepEvent, ec.FlowID),
		ExecutionID: ec.ExecutionID,
		NodeID:      step.NodeID,
		NodeType:    step.NodeType,
		Status:      step.Status,
		DurationMs:  step.CompletedAt.Sub(step.StartedAt).Milliseconds(),
		Error:       step.Error,
	})
}

func (e *Executor) publish(ctx context.Context, flowID string, event eventbus.Event) {
	if e.bus == nil {
		return
	}

	if err := e.bus.Publish(ctx, flowID, event); err != nil {
		e.logger.Warn("Failed to publish execution event",
			"event_type", event.GetType(),
			"flow_id", flowID,
			"error", err,
		)
	}
}

func (e *Executor) baseEvent(eventType events.EventType, flowID string) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		FlowID:    flowID,
	}
}

// generateExecutionID generates a unique execution ID.
func generateExecutionID() string {
	return "exec-" + uuid.New().String()[:8]
}

// triggerType mirrors the start node's default so span attributes and the
// start step report the same source.
func triggerType(input map[string]any) string {
	if s, ok := input["trigger_type"].(string); ok && s != "" {
		return s
	}

	return "api"
}
