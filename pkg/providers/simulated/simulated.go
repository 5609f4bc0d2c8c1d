// Package simulated provides deterministic in-process implementations of the
// telephony collaborators, used for local development and demos where no
// real call leg exists.
package simulated

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voxflow/voxflow/pkg/protocol"
)

// AIProvider answers deterministically from the prompt content, so demo
// flows branch the same way on every run.
type AIProvider struct {
	logger *slog.Logger
}

func NewAIProvider(logger *slog.Logger) *AIProvider {
	return &AIProvider{logger: logger.With("module", "simulated_ai")}
}

// Generate returns "true" or "false" for analysis-style prompts and an
// echo-style reply otherwise. The decision is a stable hash of the prompt.
func (p *AIProvider) Generate(_ context.Context, prompt, model string, _ int) (string, error) {
	if strings.Contains(prompt, "'true' or 'false'") {
		h := fnv.New32a()
		_, _ = h.Write([]byte(prompt))

		if h.Sum32()%2 == 0 {
			return "true", nil
		}

		return "false", nil
	}

	p.logger.Debug("Simulating completion", "model", model)

	return fmt.Sprintf("Simulated reply (%s): %s", model, firstLine(prompt)), nil
}

// InputCollector replays a scripted sequence of caller inputs. Once the
// script runs out it reports a collection timeout, which is how demo flows
// exercise their timeout paths. Parallel branches may collect concurrently,
// so the cursor is guarded.
type InputCollector struct {
	mu     sync.Mutex
	inputs []string
	next   int
}

func NewInputCollector(inputs ...string) *InputCollector {
	return &InputCollector{inputs: inputs}
}

func (c *InputCollector) Collect(_ context.Context, _ string, _ time.Duration, _ int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.next >= len(c.inputs) {
		return "", protocol.ErrCollectTimeout
	}

	input := c.inputs[c.next]
	c.next++

	return input, nil
}

// TransferService accepts every transfer without dialing anything.
type TransferService struct {
	logger *slog.Logger
}

func NewTransferService(logger *slog.Logger) *TransferService {
	return &TransferService{logger: logger.With("module", "simulated_transfer")}
}

func (s *TransferService) Transfer(_ context.Context, number, transferType string) (bool, error) {
	s.logger.Info("Simulating call transfer", "number", number, "transfer_type", transferType)

	return true, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}

	return s
}

var (
	_ protocol.AIProvider      = (*AIProvider)(nil)
	_ protocol.InputCollector  = (*InputCollector)(nil)
	_ protocol.TransferService = (*TransferService)(nil)
)
