package shortlist

import (
	"context"
	"os"
	"strings"
)

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batches int
}

func (m *mockBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	m.batches++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

type mockCompleter struct {
	fn func(ctx context.Context, req CompletionRequest) (Completion, error)
}

func (m *mockCompleter) Complete(ctx context.Context, req CompletionRequest) (Completion, error) {
	return m.fn(ctx, req)
}

// textExtractor reads files as plain text.
type textExtractor struct{}

func (textExtractor) Extract(_ context.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}

var vocabulary = []string{"go", "python", "react"}

func keywordEmbedder() *mockEmbedder {
	return &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
		v := make([]float32, len(vocabulary))
		for _, w := range strings.Fields(strings.ToLower(text)) {
			for i, term := range vocabulary {
				if w == term {
					v[i]++
				}
			}
		}
		for i := range v {
			v[i] += 0.01
		}
		return EmbeddingResult{Embedding: v}, nil
	}}
}

func nameCompleter() *mockCompleter {
	return &mockCompleter{fn: func(_ context.Context, req CompletionRequest) (Completion, error) {
		name := "Generalist"
		if strings.Contains(req.Prompt, "go go go") {
			name = "Gopher"
		}
		return Completion{Text: `{"name":"` + name + `","skills":["Go","SQL"],"reasons":["relevant"]}`}, nil
	}}
}
