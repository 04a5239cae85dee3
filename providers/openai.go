package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ai-visibility/backend/config"
	"github.com/ai-visibility/backend/visibility"
)

var ErrEmptyCompletion = errors.New("completion returned no choices")

// OpenAI answers prompts with the chat completions API.
type OpenAI struct {
	client       *openai.Client
	model        string
	maxTokens    int
	temperature  float32
	systemPrompt string
}

func NewOpenAI(cfg config.OpenAIConfig) *OpenAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &OpenAI{
		client:       openai.NewClientWithConfig(clientConfig),
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		systemPrompt: cfg.SystemPrompt,
	}
}

func (o *OpenAI) Query(ctx context.Context, prompt string, _ visibility.Platform, _ string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
