// OpenAI-compatible ChatCompleter implementation.
package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/roamline/go-trip-backend/internal/config"
)

const systemInstructions = "You are a travel assistant. You give short, practical suggestions for trips."

// OpenAICompleter talks to an OpenAI-compatible chat-completions endpoint.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter builds a completer from configuration. An empty BaseURL
// uses the provider default; an empty APIKey attempts unauthenticated access
// (useful against local gateways).
func NewOpenAICompleter(cfg config.AIConfig) *OpenAICompleter {
	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	client := openai.NewClient(opts...)
	return &OpenAICompleter{client: &client, model: cfg.Model}
}

// Complete implements ChatCompleter.
func (o *OpenAICompleter) Complete(ctx context.Context, prompt string, maxTokens int64) (*Completion, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstructions),
			openai.UserMessage(prompt),
		},
		Model:     o.model,
		MaxTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("provider returned no content choices")
	}

	choice := resp.Choices[0]
	return &Completion{
		Text:             choice.Message.Content,
		FinishReason:     choice.FinishReason,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
