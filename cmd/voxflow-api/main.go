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

const defaultPort = 9080

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "voxflow-api",
		Usage:                 "Create, publish, and execute voice call flows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
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
			&cli.IntFlag{
				Name:    "max-steps",
				Usage:   "Maximum node executions per run",
				Value:   engine.DefaultMaxSteps,
				Sources: cli.EnvVars("MAX_STEPS"),
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

			logger.InfoContext(ctx, "Initializing voxflow API")

			if _, err := otelhelper.Setup(ctx, "voxflow-api"); err != nil {
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

			api := NewAPI(logger, store, bus, APIConfig{
				AIProvider:   command.String("ai-provider"),
				OpenAIAPIKey: command.String("openai-api-key"),
				MaxSteps:     command.Int("max-steps"),
			})

			return api.Start(command.Int("port"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
