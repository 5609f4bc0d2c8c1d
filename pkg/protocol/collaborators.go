// Package protocol defines the interfaces the engine consumes: external
// collaborators (AI generation, input collection, call transfer), the flow
// repository boundary, and the node executor contract.
package protocol

import (
	"context"
	"time"

	"github.com/voxflow/voxflow/pkg/models"
)

// AIProvider generates text for AI-response nodes and AI-analysis conditions.
type AIProvider interface {
	// Generate produces a completion for the prompt using the given model.
	Generate(ctx context.Context, prompt, model string, maxTokens int) (string, error)
}

// InputCollector gathers caller input (speech or DTMF) from the telephony
// layer. Retries are honored by the collector itself; the engine never
// re-drives the collection loop.
type InputCollector interface {
	// Collect returns the collected input, or ErrCollectTimeout once the
	// retry budget is exhausted.
	Collect(ctx context.Context, inputType string, timeout time.Duration, retries int) (string, error)
}

// TransferService hands the call over to another number. Implementations are
// expected to be cancel-safe: a cancelled context must not leave an in-flight
// transfer in an ambiguous state.
type TransferService interface {
	Transfer(ctx context.Context, number, transferType string) (bool, error)
}

// FlowRepository is the engine's read-only view of flow storage.
type FlowRepository interface {
	// GetPublishedFlow returns the published flow with embedded nodes and
	// connections, or a not-found error when absent or not published.
	GetPublishedFlow(ctx context.Context, flowID string) (*models.Flow, error)
}

// StatsSink persists the aggregator's updated per-flow counters.
type StatsSink interface {
	SaveFlowStats(ctx context.Context, flowID string, stats models.FlowStats) error
}
