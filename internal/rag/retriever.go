package rag

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"

	"pdf-rag/internal/models"
)

// VectorStore is what the pipeline needs from a storage backend. Both the
// chromem manager and the pgvector store satisfy it.
type VectorStore interface {
	Populated(ctx context.Context) (bool, error)
	Count(ctx context.Context) (int, error)
	AddDocuments(ctx context.Context, docs []models.ChunkEmbedding) error
	Search(ctx context.Context, query []float32, k int) ([]models.SearchResult, error)
	Reset(ctx context.Context) error
	Close() error
}

type Retriever struct {
	embedder embeddings.Embedder
	store    VectorStore
	topK     int
}

func NewRetriever(embedder embeddings.Embedder, store VectorStore, topK int) *Retriever {
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve embeds the question with the same embedder used for indexing and
// returns the topK nearest chunks, best first.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]models.SearchResult, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("error embedding question: %w", err)
	}

	results, err := r.store.Search(ctx, queryEmbedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("error retrieving chunks: %w", err)
	}
	return results, nil
}
