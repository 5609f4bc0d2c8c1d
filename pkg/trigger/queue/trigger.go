// Package queue triggers flow executions from a Redis list. Producers push
// JSON execution requests; the trigger pops and dispatches them.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/voxflow/voxflow/pkg/protocol"
)

const popTimeout = 5 * time.Second

// Config holds the Redis connection and queue settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Queue    string
}

// Trigger consumes execution requests from a Redis list with BRPOP.
type Trigger struct {
	cfg Config

	client   redis.UniversalClient
	callback protocol.TriggerCallback
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewTrigger creates a queue trigger.
func NewTrigger(cfg Config, logger *slog.Logger) (*Trigger, error) {
	if cfg.Queue == "" {
		return nil, errors.New("queue trigger queue name is required")
	}

	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}

	return &Trigger{
		cfg:    cfg,
		stopCh: make(chan struct{}),
		logger: logger.With(
			"module", "queue_trigger",
			"queue", cfg.Queue,
		),
	}, nil
}

func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	t.logger.InfoContext(ctx, "Starting queue trigger")
	t.callback = callback

	t.client = redis.NewClient(&redis.Options{
		Addr:     t.cfg.Addr,
		Password: t.cfg.Password,
		DB:       t.cfg.DB,
	})

	if err := t.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	t.wg.Add(1)

	go t.consume(ctx)

	return nil
}

func (t *Trigger) consume(ctx context.Context) {
	defer t.wg.Done()

	for {
		select {
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		values, err := t.client.BRPop(ctx, popTimeout, t.cfg.Queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}

			t.logger.Error("Failed to pop from queue", "error", err)
			time.Sleep(time.Second)

			continue
		}

		// BRPop returns [key, value].
		if len(values) < 2 {
			continue
		}

		t.dispatch(ctx, []byte(values[1]))
	}
}

func (t *Trigger) dispatch(ctx context.Context, payload []byte) {
	var req protocol.ExecutionRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		t.logger.Error("Discarding malformed queue message", "error", err)

		return
	}

	if req.FlowID == "" {
		t.logger.Error("Discarding queue message without flow_id")

		return
	}

	if req.Input == nil {
		req.Input = map[string]any{}
	}

	req.Input["trigger_type"] = "queue"

	if err := t.callback(ctx, req); err != nil {
		t.logger.Error("Queued execution failed", "flow_id", req.FlowID, "error", err)
	}
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping queue trigger")
	close(t.stopCh)
	t.wg.Wait()

	if t.client != nil {
		return t.client.Close()
	}

	return nil
}

var _ protocol.Trigger = (*Trigger)(nil)
