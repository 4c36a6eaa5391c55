package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/domain"
	logpkg "github.com/kailas-cloud/shortlist/internal/logger"
)

// Completer is a chat completion provider over the OpenAI-compatible API.
type Completer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// ChatConfig holds the chat provider settings.
type ChatConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	// Provider labels log lines; OpenAI-compatible hosts share this client.
	Provider string
	Logger   *zap.Logger
}

// NewCompleter creates an OpenAI-compatible chat completer.
func NewCompleter(cfg *ChatConfig) *Completer {
	return &Completer{
		client: newClient(cfg.APIKey, cfg.BaseURL),
		model:  cfg.Model,
		logger: logpkg.WithProvider(cfg.Logger, cfg.Provider, cfg.Model),
	}
}

// Model returns the configured model name.
func (c *Completer) Model() string { return c.model }

// Complete sends a single user message and returns the first choice.
func (c *Completer) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return domain.ChatResponse{}, wrapAPIError("chat", err, domain.ErrLLMProviderError)
	}

	if len(resp.Choices) == 0 {
		return domain.ChatResponse{}, fmt.Errorf("empty chat response: %w", domain.ErrLLMProviderError)
	}

	c.logger.Debug("Chat completion received",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return domain.ChatResponse{
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
