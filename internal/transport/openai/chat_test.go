package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shortlist/internal/domain"
)

func newTestCompleter(url string) *Completer {
	return NewCompleter(&ChatConfig{
		APIKey:  "test-key",
		BaseURL: url,
		Model:   "gpt-4o-mini",
		Logger:  zap.NewNop(),
	})
}

func TestCompleter_Complete(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float32 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "  {\"name\":\"Ada\"}\n"},
			}},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
		})
	}))
	defer server.Close()

	resp, err := newTestCompleter(server.URL).Complete(context.Background(), domain.ChatRequest{
		Prompt:      "Analyze this resume",
		MaxTokens:   400,
		Temperature: 0.3,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if resp.Text != `{"name":"Ada"}` {
		t.Errorf("unexpected text %q", resp.Text)
	}
	if resp.PromptTokens != 120 || resp.CompletionTokens != 30 {
		t.Errorf("usage = %d/%d, expected 120/30", resp.PromptTokens, resp.CompletionTokens)
	}
	if got.Model != "gpt-4o-mini" || got.MaxTokens != 400 {
		t.Errorf("unexpected request model=%q max_tokens=%d", got.Model, got.MaxTokens)
	}
	if got.Temperature < 0.29 || got.Temperature > 0.31 {
		t.Errorf("expected temperature 0.3, got %f", got.Temperature)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != "Analyze this resume" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
}

func TestCompleter_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "x", "choices": []any{}})
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), domain.ChatRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected ErrLLMProviderError, got %v", err)
	}
}

func TestCompleter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream exploded", "type": "server_error"},
		})
	}))
	defer server.Close()

	_, err := newTestCompleter(server.URL).Complete(context.Background(), domain.ChatRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected ErrLLMProviderError, got %v", err)
	}
	if errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("500 must not be reported as rate limited")
	}
}

func TestCompleter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestCompleter("http://127.0.0.1:1").Complete(ctx, domain.ChatRequest{Prompt: "p"})
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected ErrLLMProviderError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}
