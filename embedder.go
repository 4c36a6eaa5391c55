package shortlist

import "context"

// Embedder converts text to a vector embedding. Required.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
// Optional: if the Embedder also implements BatchEmbedder, ingestion
// embeds resumes in batches instead of one request per file.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Completer answers a single-turn prompt. Required for Enrich and Shortlist.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

// CompletionRequest is one prompt with sampling settings.
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Completion is the model reply.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Extractor returns the plain text of one resume file.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
