package ollama

import (
	"context"
	"fmt"

	"github.com/beedev/recommender/internal/core/ports"
	"github.com/beedev/recommender/internal/infrastructure/resilience"
)

// Embedder produces dense vectors for catalog descriptions and query text.
type Embedder struct {
	client   *Client
	executor *resilience.Executor
}

var _ ports.Embedder = (*Embedder)(nil)

func NewEmbedder(client *Client, executor *resilience.Executor) *Embedder {
	return &Embedder{client: client, executor: executor}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.execute(ctx, "ollama_embed", func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, "/api/embed", request, &response, "embed")
	})
	if err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d inputs", len(response.Embeddings), len(texts))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

func (e *Embedder) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if e.executor == nil {
		return wrapTemporaryIfNeeded(operation, fn(ctx))
	}
	err := e.executor.Execute(ctx, operation, fn, classifyOllamaError)
	return wrapTemporaryIfNeeded(operation, err)
}
