// Package main provides the voxflow API server.
package main

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/voxflow/voxflow/pkg/cmd"
	"github.com/voxflow/voxflow/pkg/engine"
	"github.com/voxflow/voxflow/pkg/eventbus"
	"github.com/voxflow/voxflow/pkg/flow"
	"github.com/voxflow/voxflow/pkg/persistence"
	"github.com/voxflow/voxflow/pkg/web"
)

// APIConfig carries the execution settings of the API's embedded engine.
type APIConfig struct {
	AIProvider   string
	OpenAIAPIKey string
	MaxSteps     int
}

type API struct {
	logger *slog.Logger
	store  persistence.Persistence
	bus    eventbus.EventBus
	cfg    APIConfig
}

func NewAPI(logger *slog.Logger, store persistence.Persistence, bus eventbus.EventBus, cfg APIConfig) *API {
	return &API{
		logger: logger,
		store:  store,
		bus:    bus,
		cfg:    cfg,
	}
}

func (a *API) App() *fiber.App {
	ai := cmd.NewAIProvider(a.cfg.AIProvider, a.cfg.OpenAIAPIKey, a.logger)
	collector := cmd.NewInputCollector(a.logger)
	transfers := cmd.NewTransferService(a.logger)

	stack := cmd.NewEngineStack(a.store, a.bus, ai, collector, transfers,
		prometheus.DefaultRegisterer, engine.Config{MaxSteps: a.cfg.MaxSteps})

	flowService := flow.NewService(a.store.FlowRepository(), stack.Registry, a.logger)
	handlers := web.NewAPIHandlers(flowService, stack.Executor, a.store.ExecutionRepository(),
		stack.Aggregator, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("voxflow API")
	})

	handlers.Register(app)

	return app
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
