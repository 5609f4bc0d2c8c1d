package nodes

import (
	"context"
	"fmt"

	"github.com/voxflow/voxflow/pkg/models"
	"github.com/voxflow/voxflow/pkg/protocol"
	"github.com/voxflow/voxflow/pkg/template"
)

const (
	defaultResponseModel     = "gpt-4o-mini"
	defaultResponseMaxTokens = 150
)

// AIResponseExecutor generates a caller-facing reply through the AI
// provider. A provider failure fails the node: there is no retry here, the
// flow author routes recovery through an error connection instead.
type AIResponseExecutor struct {
	ai protocol.AIProvider
}

func NewAIResponseExecutor(ai protocol.AIProvider) *AIResponseExecutor {
	return &AIResponseExecutor{ai: ai}
}

func (e *AIResponseExecutor) Type() models.NodeType {
	return models.NodeTypeAIResponse
}

func (e *AIResponseExecutor) Execute(ctx context.Context, node *models.Node, ec *models.ExecutionContext) (map[string]any, error) {
	rawPrompt := node.StringData("prompt", "")
	if rawPrompt == "" {
		return nil, fmt.Errorf("ai_response node %s has no prompt", node.ID)
	}

	prompt := template.Resolve(rawPrompt, ec.Variables)
	model := node.StringData("model", defaultResponseModel)
	maxTokens := node.IntData("max_tokens", defaultResponseMaxTokens)

	reply, err := e.ai.Generate(ctx, prompt, model, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("generating ai response: %w", err)
	}

	ec.SetVariable("last_ai_response", reply)

	return map[string]any{
		"response": reply,
		"model":    model,
		"success":  true,
	}, nil
}
