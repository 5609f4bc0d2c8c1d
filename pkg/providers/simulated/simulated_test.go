package simulated_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxflow/voxflow/pkg/log"
	"github.com/voxflow/voxflow/pkg/protocol"
	"github.com/voxflow/voxflow/pkg/providers/simulated"
)

func TestAIProviderAnalysisPromptsAreStable(t *testing.T) {
	provider := simulated.NewAIProvider(log.WithModule("test"))
	prompt := "Answer with 'true' or 'false': did the caller agree?"

	first, err := provider.Generate(context.Background(), prompt, "gpt-4o-mini", 10)
	require.NoError(t, err)
	assert.Contains(t, []string{"true", "false"}, first)

	second, err := provider.Generate(context.Background(), prompt, "gpt-4o-mini", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestInputCollectorReplaysScriptThenTimesOut(t *testing.T) {
	collector := simulated.NewInputCollector("yes", "1234")

	first, err := collector.Collect(context.Background(), "speech", time.Second, 1)
	require.NoError(t, err)
	assert.Equal(t, "yes", first)

	second, err := collector.Collect(context.Background(), "dtmf", time.Second, 1)
	require.NoError(t, err)
	assert.Equal(t, "1234", second)

	_, err = collector.Collect(context.Background(), "speech", time.Second, 1)
	assert.ErrorIs(t, err, protocol.ErrCollectTimeout)
}

func TestInputCollectorConcurrentBranchesDeliverEachInputOnce(t *testing.T) {
	inputs := []string{"one", "two", "three", "four"}
	collector := simulated.NewInputCollector(inputs...)

	const collectors = 16

	results := make([]string, collectors)
	errs := make([]error, collectors)

	var wg sync.WaitGroup
	for i := range collectors {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i], errs[i] = collector.Collect(context.Background(), "speech", time.Second, 1)
		}()
	}

	wg.Wait()

	var delivered []string

	timeouts := 0

	for i := range collectors {
		if errs[i] != nil {
			require.ErrorIs(t, errs[i], protocol.ErrCollectTimeout)

			timeouts++

			continue
		}

		delivered = append(delivered, results[i])
	}

	// Every scripted input handed out exactly once, the rest timed out.
	sort.Strings(delivered)
	assert.Equal(t, []string{"four", "one", "three", "two"}, delivered)
	assert.Equal(t, collectors-len(inputs), timeouts)
}
