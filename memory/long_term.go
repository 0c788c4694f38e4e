package memory

import (
	"context"
	"time"
)

// Record is a write-once long-term memory entry. Embedding may be left nil
// on write, in which case the store computes it from SourceText.
type Record struct {
	ID         string            `json:"id"`
	Embedding  []float32         `json:"embedding,omitempty"`
	SourceText string            `json:"source_text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// SearchResult pairs a retrieved record with its similarity to the query,
// in [0, 1] with 1 meaning identical direction.
type SearchResult struct {
	Record
	Similarity float32 `json:"similarity"`
}

// LongTermStore is the process-wide semantic store shared by all sessions.
// Writes are append-only and target distinct record ids; reads may run
// concurrently with writes. Records are immutable once written.
type LongTermStore interface {
	// Write persists a new record. Writing an id that already exists is an
	// error; records are write-once.
	Write(ctx context.Context, rec Record) error

	// Query embeds the text and returns up to topK records ordered by
	// similarity descending.
	Query(ctx context.Context, text string, topK int) ([]SearchResult, error)

	// QueryEmbedding returns up to topK records nearest to the given vector,
	// ordered by similarity descending.
	QueryEmbedding(ctx context.Context, embedding []float32, topK int) ([]SearchResult, error)
}

// Embedder turns text into an embedding vector. Implementations must be
// deterministic for identical input within a process lifetime so that
// write-then-read retrieval is stable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
