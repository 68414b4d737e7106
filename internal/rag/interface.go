// Package rag implements owner-scoped retrieval over journal entries:
// embed the query, over-fetch candidates by vector similarity, rerank them
// with a cross-encoder style scorer and keep the top results.
// Concrete embedders, rerankers and stores satisfy the interfaces below so
// the pipeline never depends on a specific backend.
package rag

import (
	"context"
	"fmt"

	"github.com/Badar25/Journal-backend/internal/journal"
	"github.com/Badar25/Journal-backend/internal/result"
)

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Reranker scores candidate documents against a query.
// Implementations must be safe to call from multiple goroutines.
type Reranker interface {
	// Score returns one relevance score per document, in input order.
	// Higher is more relevant. The whole batch is scored in one call.
	Score(ctx context.Context, query string, documents []string) ([]float32, error)
}

// Searcher is the similarity-search slice of the entry store used by the
// pipeline.
type Searcher interface {
	// SimilaritySearch returns at most limit entries owned by owner, most
	// similar first.
	SimilaritySearch(ctx context.Context, vector []float32, owner string, limit int) result.Result[[]journal.Entry]
}

// EmbedOne embeds a single text and checks the vector has dims components.
// dims <= 0 skips the length check. Every failure is an EMBEDDING_ERROR.
func EmbedOne(ctx context.Context, e Embedder, text string, dims int) result.Result[[]float32] {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return result.Wrap[[]float32](result.KindEmbeddingError, "Failed to process text embedding", err)
	}
	if len(vecs) != 1 {
		return result.Err[[]float32](result.KindEmbeddingError,
			fmt.Sprintf("Failed to process text embedding: expected 1 vector, got %d", len(vecs)))
	}
	if dims > 0 && len(vecs[0]) != dims {
		return result.Err[[]float32](result.KindEmbeddingError,
			fmt.Sprintf("Failed to process text embedding: expected %d dimensions, got %d", dims, len(vecs[0])),
			"expected_dims", dims, "got_dims", len(vecs[0]))
	}
	return result.Ok(vecs[0])
}
