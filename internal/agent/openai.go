// Package agent generates learning content and reward suggestions with a
// language model. The model is an injected capability: every operation has a
// deterministic fallback or a plain error when it is unavailable.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const DefaultModel = "gpt-4o-mini"

const systemPrompt = "You are a productivity coach inside a gamified self-improvement app. " +
	"Answer concisely. When asked for JSON, answer with JSON only."

// Generator produces text for a prompt
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// OpenAIConfig configures the OpenAI generator
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
}

// OpenAI is a Generator backed by the chat completions API
type OpenAI struct {
	client *openai.Client
	cfg    OpenAIConfig
}

// NewOpenAI creates a new generator
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 800
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	slog.Info("initializing OpenAI client", "model", cfg.Model)
	return &OpenAI{client: openai.NewClientWithConfig(oc), cfg: cfg}, nil
}

// GenerateContent sends prompt as a single user message
func (o *OpenAI) GenerateContent(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("OpenAI returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
