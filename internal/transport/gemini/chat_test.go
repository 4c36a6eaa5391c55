package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/shortlist/internal/domain"
)

type fakeModels struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(
	_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, config
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     90,
			CandidatesTokenCount: 25,
		},
	}
}

func TestCompleter_Complete(t *testing.T) {
	fake := &fakeModels{resp: textResponse("```json", `{"name":"Ada"}`, "```")}
	c := newCompleter(fake, "", zap.NewNop())

	resp, err := c.Complete(context.Background(), domain.ChatRequest{
		Prompt:      "Analyze this resume",
		MaxTokens:   400,
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Text != "```json\n{\"name\":\"Ada\"}\n```" {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if resp.PromptTokens != 90 || resp.CompletionTokens != 25 {
		t.Errorf("usage = %d/%d, expected 90/25", resp.PromptTokens, resp.CompletionTokens)
	}
	if fake.model != defaultModel {
		t.Errorf("expected default model %q, got %q", defaultModel, fake.model)
	}
	if fake.config.MaxOutputTokens != 400 {
		t.Errorf("expected MaxOutputTokens=400, got %d", fake.config.MaxOutputTokens)
	}
	if fake.config.Temperature == nil || *fake.config.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", fake.config.Temperature)
	}
	if len(fake.contents) != 1 || fake.contents[0].Parts[0].Text != "Analyze this resume" {
		t.Errorf("unexpected contents %+v", fake.contents)
	}
}

func TestCompleter_EmptyPrompt(t *testing.T) {
	c := newCompleter(&fakeModels{}, "gemini-pro", zap.NewNop())

	_, err := c.Complete(context.Background(), domain.ChatRequest{Prompt: "   "})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestCompleter_EmptyResponse(t *testing.T) {
	c := newCompleter(&fakeModels{resp: &genai.GenerateContentResponse{}}, "gemini-pro", zap.NewNop())

	_, err := c.Complete(context.Background(), domain.ChatRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected ErrLLMProviderError, got %v", err)
	}
}

func TestCompleter_APIErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		rateLimited bool
	}{
		{"rate limited", genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}, true},
		{"internal", genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}, false},
		{"transport", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCompleter(&fakeModels{err: tt.err}, "gemini-pro", zap.NewNop())

			_, err := c.Complete(context.Background(), domain.ChatRequest{Prompt: "p"})
			if !errors.Is(err, domain.ErrLLMProviderError) {
				t.Fatalf("expected ErrLLMProviderError, got %v", err)
			}
			if got := errors.Is(err, domain.ErrRateLimited); got != tt.rateLimited {
				t.Errorf("rate limited = %v, want %v", got, tt.rateLimited)
			}
		})
	}
}

func TestNewCompleter_RequiresKey(t *testing.T) {
	if _, err := NewCompleter(context.Background(), " ", "", zap.NewNop()); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
