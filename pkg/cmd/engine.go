package cmd

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/voxflow/voxflow/pkg/engine"
	"github.com/voxflow/voxflow/pkg/eventbus"
	"github.com/voxflow/voxflow/pkg/expression"
	"github.com/voxflow/voxflow/pkg/log"
	"github.com/voxflow/voxflow/pkg/nodes"
	"github.com/voxflow/voxflow/pkg/persistence"
	"github.com/voxflow/voxflow/pkg/protocol"
	"github.com/voxflow/voxflow/pkg/providers/openai"
	"github.com/voxflow/voxflow/pkg/providers/simulated"
	"github.com/voxflow/voxflow/pkg/stats"
)

// NewAIProvider selects the AI backend. "openai" requires an API key;
// "simulated" answers deterministically and needs nothing.
func NewAIProvider(providerName, apiKey string, logger *slog.Logger) protocol.AIProvider {
	switch providerName {
	case "openai":
		if apiKey == "" {
			panic("openai provider requires an API key")
		}

		return openai.NewProvider(apiKey, logger)
	case "simulated", "":
		return simulated.NewAIProvider(logger)
	default:
		panic(fmt.Sprintf("unsupported AI provider: %s", providerName))
	}
}

// EngineStack bundles the executor with the collaborators the binaries need
// to keep references to.
type EngineStack struct {
	Executor   *engine.Executor
	Registry   *nodes.Registry
	Aggregator *stats.Aggregator
}

// NewEngineStack assembles the full execution engine: expression evaluator,
// condition evaluator, node registry, router, stats aggregator, and
// executor.
func NewEngineStack(
	store persistence.Persistence,
	bus eventbus.EventPublisher,
	ai protocol.AIProvider,
	collector protocol.InputCollector,
	transfers protocol.TransferService,
	registerer prometheus.Registerer,
	cfg engine.Config,
) *EngineStack {
	logger := log.WithModule("engine")

	expr, err := expression.New()
	if err != nil {
		panic(fmt.Errorf("failed to build expression evaluator: %w", err))
	}

	conditions := engine.NewConditionEvaluator(ai, expr, logger)
	registry := nodes.NewRegistry(ai, collector, transfers, conditions)
	router := engine.NewRouter(expr, logger)
	aggregator := stats.New(store.FlowRepository(), registerer, logger)

	return &EngineStack{
		Executor:   engine.New(registry, router, aggregator, bus, logger, cfg),
		Registry:   registry,
		Aggregator: aggregator,
	}
}
