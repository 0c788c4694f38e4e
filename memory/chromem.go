package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

const createdAtKey = "created_at"

// ChromemOptions configures the chromem-backed long-term store.
type ChromemOptions struct {
	// Collection names the chromem collection. Defaults to "planmesh".
	Collection string
	// Path enables on-disk persistence when non-empty; otherwise the store
	// is purely in-memory.
	Path string
}

// ChromemStore implements LongTermStore on an embedded chromem-go vector
// database. Writes target distinct document ids and chromem handles
// concurrent readers, so no store-wide lock is held across a turn; the
// internal mutex only guards the write-once id set.
type ChromemStore struct {
	collection *chromem.Collection

	mu      sync.Mutex
	written map[string]bool
}

// NewChromemStore creates a store around the given embedder.
func NewChromemStore(embedder Embedder, optFns ...func(o *ChromemOptions)) (*ChromemStore, error) {
	opts := ChromemOptions{Collection: "planmesh"}
	for _, fn := range optFns {
		fn(&opts)
	}

	var db *chromem.DB
	var err error
	if opts.Path != "" {
		db, err = chromem.NewPersistentDB(opts.Path, true)
		if err != nil {
			return nil, fmt.Errorf("open persistent store: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	embeddingFunc := chromem.EmbeddingFunc(
		func(ctx context.Context, text string) ([]float32, error) {
			return embedder.Embed(ctx, text)
		},
	)

	collection, err := db.GetOrCreateCollection(opts.Collection, nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		collection: collection,
		written:    make(map[string]bool),
	}, nil
}

// Write implements the LongTermStore interface. Records are write-once: a
// duplicate id is rejected.
func (s *ChromemStore) Write(ctx context.Context, rec Record) error {
	if rec.SourceText == "" {
		return fmt.Errorf("record source text must not be empty")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	if s.written[rec.ID] {
		s.mu.Unlock()
		return fmt.Errorf("record %s already written", rec.ID)
	}
	s.written[rec.ID] = true
	s.mu.Unlock()

	metadata := make(map[string]string, len(rec.Metadata)+1)
	for k, v := range rec.Metadata {
		metadata[k] = v
	}
	metadata[createdAtKey] = rec.CreatedAt.Format(time.RFC3339Nano)

	err := s.collection.AddDocuments(ctx, []chromem.Document{{
		ID:        rec.ID,
		Content:   rec.SourceText,
		Metadata:  metadata,
		Embedding: rec.Embedding,
	}}, 1)
	if err != nil {
		s.mu.Lock()
		delete(s.written, rec.ID)
		s.mu.Unlock()
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query implements the LongTermStore interface.
func (s *ChromemStore) Query(ctx context.Context, text string, topK int) ([]SearchResult, error) {
	n := s.clamp(topK)
	if n == 0 {
		return nil, nil
	}
	results, err := s.collection.Query(ctx, text, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return convertResults(results), nil
}

// QueryEmbedding implements the LongTermStore interface.
func (s *ChromemStore) QueryEmbedding(ctx context.Context, embedding []float32, topK int) ([]SearchResult, error) {
	n := s.clamp(topK)
	if n == 0 {
		return nil, nil
	}
	results, err := s.collection.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}
	return convertResults(results), nil
}

// clamp bounds topK by the collection size; chromem rejects asking for more
// results than documents.
func (s *ChromemStore) clamp(topK int) int {
	count := s.collection.Count()
	if topK > count {
		topK = count
	}
	if topK < 0 {
		topK = 0
	}
	return topK
}

func convertResults(results []chromem.Result) []SearchResult {
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		rec := Record{
			ID:         r.ID,
			Embedding:  r.Embedding,
			SourceText: r.Content,
			Metadata:   make(map[string]string, len(r.Metadata)),
		}
		for k, v := range r.Metadata {
			if k == createdAtKey {
				if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
					rec.CreatedAt = t
					continue
				}
			}
			rec.Metadata[k] = v
		}
		out = append(out, SearchResult{Record: rec, Similarity: r.Similarity})
	}
	return out
}
