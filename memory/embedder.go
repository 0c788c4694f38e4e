package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/openai/openai-go"
)

// OpenAIEmbedder computes embeddings via the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIEmbedder creates an embedder using the official client. Model
// defaults to text-embedding-3-small when empty.
func NewOpenAIEmbedder(client *openai.Client, embeddingModel openai.EmbeddingModel) *OpenAIEmbedder {
	if embeddingModel == "" {
		embeddingModel = openai.EmbeddingModelTextEmbedding3Small
	}
	return &OpenAIEmbedder{client: client, model: embeddingModel}
}

// Embed implements the Embedder interface.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}
	raw := resp.Data[0].Embedding
	embedding := make([]float32, len(raw))
	for i, v := range raw {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// HashEmbedder is a deterministic, dependency-free embedder: a hashed
// bag-of-words vector, L2-normalized. Identical texts map to identical
// vectors and texts sharing tokens score high cosine similarity. It is meant
// for tests and offline operation, not for semantic quality.
type HashEmbedder struct {
	Dims int
}

// NewHashEmbedder creates a HashEmbedder with the given dimensionality
// (128 when d <= 0).
func NewHashEmbedder(d int) *HashEmbedder {
	if d <= 0 {
		d = 128
	}
	return &HashEmbedder{Dims: d}
}

// Embed implements the Embedder interface.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.Dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%e.Dims]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// Zero input embeds to a fixed unit vector so queries never fail.
		vec[0] = 1
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}
