package domain

import "context"

// ChatRequest is a single-turn completion request.
type ChatRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// ChatResponse carries the completion text and token usage.
type ChatResponse struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// ChatCompleter is the LLM contract used by the enrichment stage.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
