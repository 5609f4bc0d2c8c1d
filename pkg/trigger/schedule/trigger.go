// Package schedule triggers flow executions on a cron schedule.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/voxflow/voxflow/pkg/protocol"
)

// Trigger fires an execution request for one flow on each cron tick.
type Trigger struct {
	FlowID   string
	CronExpr string

	cron     *cron.Cron
	callback protocol.TriggerCallback
	logger   *slog.Logger
}

// NewTrigger creates a schedule trigger. CronExpr uses the standard
// five-field format.
func NewTrigger(flowID, cronExpr string, logger *slog.Logger) (*Trigger, error) {
	if flowID == "" {
		return nil, errors.New("schedule trigger flow ID is required")
	}

	if _, err := cron.ParseStandard(cronExpr); err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	return &Trigger{
		FlowID:   flowID,
		CronExpr: cronExpr,
		logger: logger.With(
			"module", "schedule_trigger",
			"flow_id", flowID,
			"cron", cronExpr,
		),
	}, nil
}

func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	t.logger.InfoContext(ctx, "Starting schedule trigger")
	t.callback = callback

	t.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	if _, err := t.cron.AddFunc(t.CronExpr, t.run); err != nil {
		return fmt.Errorf("failed to add cron job for flow %s: %w", t.FlowID, err)
	}

	t.cron.Start()

	return nil
}

func (t *Trigger) run() {
	t.logger.Info("Cron tick, requesting execution")

	req := protocol.ExecutionRequest{
		FlowID: t.FlowID,
		Input: map[string]any{
			"trigger_type": "schedule",
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		},
	}

	go func() {
		if err := t.callback(context.Background(), req); err != nil {
			t.logger.Error("Scheduled execution failed", "error", err)
		}
	}()
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping schedule trigger")

	if t.cron != nil {
		stopCtx := t.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

var _ protocol.Trigger = (*Trigger)(nil)
