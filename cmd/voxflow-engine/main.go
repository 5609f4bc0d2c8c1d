package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"github.com/voxflow/voxflow/pkg/cmd"
	"github.com/voxflow/voxflow/pkg/engine"
	"github.com/voxflow/voxflow/pkg/log"
	"github.com/voxflow/voxflow/pkg/otelhelper"
)

const defaultMetricsPort = 9090

func main() {
	logger := log.WithModule("engine")

	command := &cli.Command{
		Name:                  "voxflow-engine",
		Usage:                 "Execute published voice call flows from schedules and queues",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Storage URL (file://<dir> or postgres://...)",
				Value:   "file://./data",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "ai-provider",
				Usage:   "AI provider for ai_response nodes (simulated, openai)",
				Value:   "simulated",
				Sources: cli.EnvVars("AI_PROVIDER"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "OpenAI API key, required when ai-provider is openai",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringSliceFlag{
				Name:    "schedule",
				Usage:   "Scheduled flow as <flow-id>@<cron>, repeatable",
				Sources: cli.EnvVars("SCHEDULES"),
			},
			&cli.StringFlag{
				Name:    "queue-addr",
				Usage:   "Redis address for the execution queue, empty disables the queue trigger",
				Sources: cli.EnvVars("QUEUE_ADDR"),
			},
			&cli.StringFlag{
				Name:    "queue-name",
				Usage:   "Redis list holding execution requests",
				Value:   "voxflow:executions",
				Sources: cli.EnvVars("QUEUE_NAME"),
			},
			&cli.IntFlag{
				Name:    "max-steps",
				Usage:   "Maximum node executions per run",
				Value:   engine.DefaultMaxSteps,
				Sources: cli.EnvVars("MAX_STEPS"),
			},
			&cli.IntFlag{
				Name:    "metrics-port",
				Usage:   "Port for the Prometheus metrics endpoint",
				Value:   defaultMetricsPort,
				Sources: cli.EnvVars("METRICS_PORT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing voxflow engine worker")

			if _, err := otelhelper.Setup(ctx, "voxflow-engine"); err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}

			store := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			bus := cmd.NewEventBus(command.String("event-bus"), logger)

			defer func() {
				if err := bus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			worker := NewWorker(logger, store, bus, WorkerConfig{
				AIProvider:   command.String("ai-provider"),
				OpenAIAPIKey: command.String("openai-api-key"),
				Schedules:    command.StringSlice("schedule"),
				QueueAddr:    command.String("queue-addr"),
				QueueName:    command.String("queue-name"),
				MaxSteps:     command.Int("max-steps"),
				MetricsPort:  command.Int("metrics-port"),
			})

			return worker.Run(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
