package retriever

import (
	"context"

	"ai-research-kb/internal/core/ingest"
)

// VectorStore is the vector-search collaborator. Similarity metric and
// persistence format are its own contract; results arrive best-first.
type VectorStore interface {
	Add(ctx context.Context, chunks []ingest.Document) error
	SimilaritySearch(ctx context.Context, query string, k int) ([]ingest.Document, error)
}

// Reranker scores one (query, candidate) pair; higher is better. Scores are
// not calibrated across models.
type Reranker interface {
	Score(ctx context.Context, query, candidate string) (float64, error)
}

// Retriever is the single retrieval capability exposed to callers.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]ingest.Document, error)
}
