// Package gemini is a chat completion provider backed by the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/shortlist/internal/domain"
	logpkg "github.com/kailas-cloud/shortlist/internal/logger"
)

const defaultModel = "gemini-2.5-flash"

// models is the subset of genai.Models used here.
type models interface {
	GenerateContent(
		ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Completer implements domain.ChatCompleter over the Gemini API.
type Completer struct {
	models    models
	modelName string
	logger    *zap.Logger
}

// NewCompleter creates a completer configured for the Gemini API backend.
func NewCompleter(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Completer, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newCompleter(client.Models, model, logger), nil
}

func newCompleter(m models, model string, logger *zap.Logger) *Completer {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Completer{models: m, modelName: model, logger: logpkg.WithProvider(logger, "gemini", model)}
}

// Model returns the configured model name.
func (c *Completer) Model() string { return c.modelName }

// Complete sends the prompt and joins the textual parts of every candidate.
func (c *Completer) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return domain.ChatResponse{}, domain.NewValidationError("prompt", "must not be empty")
	}

	temperature := req.Temperature
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens) //nolint:gosec // bounded by config validation
	}

	resp, err := c.models.GenerateContent(ctx, c.modelName, genai.Text(prompt), cfg)
	if err != nil {
		return domain.ChatResponse{}, wrapError(err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return domain.ChatResponse{}, fmt.Errorf("gemini api returned empty response: %w", domain.ErrLLMProviderError)
	}

	out := domain.ChatResponse{Text: output}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	c.logger.Debug("Gemini completion received",
		zap.Int("completion_tokens", out.CompletionTokens),
	)

	return out, nil
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return fmt.Errorf("gemini API error %d: %s: %w: %w",
				apiErr.Code, apiErr.Message, domain.ErrLLMProviderError, domain.ErrRateLimited)
		}
		return fmt.Errorf("gemini API error %d: %s: %w", apiErr.Code, apiErr.Message, domain.ErrLLMProviderError)
	}
	return fmt.Errorf("generate content: %w: %w", domain.ErrLLMProviderError, err)
}
