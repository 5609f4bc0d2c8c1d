// Package openai implements the AI provider on the OpenAI chat completions
// API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/voxflow/voxflow/pkg/protocol"
)

var errEmptyCompletion = errors.New("completion returned no choices")

// Provider calls the OpenAI chat completions endpoint. It performs a single
// attempt per call; retry policy belongs to the flow, not the provider.
type Provider struct {
	client openai.Client
	logger *slog.Logger
}

// NewProvider creates an OpenAI-backed provider.
func NewProvider(apiKey string, logger *slog.Logger) *Provider {
	return &Provider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		logger: logger.With("module", "openai_provider"),
	}
}

// Generate produces a completion for the prompt using the given model.
func (p *Provider) Generate(ctx context.Context, prompt, model string, maxTokens int) (string, error) {
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:     openai.ChatModel(model),
		MaxTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", errEmptyCompletion
	}

	p.logger.Debug("Generated completion",
		"model", model,
		"prompt_length", len(prompt),
		"completion_tokens", completion.Usage.CompletionTokens,
	)

	return completion.Choices[0].Message.Content, nil
}

var _ protocol.AIProvider = (*Provider)(nil)
