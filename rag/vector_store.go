package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// InMemoryVectorStore is a cosine-similarity index over document embeddings.
// A session builds its own store from freshly fetched posts and discards it
// afterwards; stores are never shared between sessions.
type InMemoryVectorStore struct {
	documents  []Document
	embeddings [][]float32
	embedder   Embedder
}

// NewInMemoryVectorStore creates an empty store. The embedder is used for
// documents added without a precomputed embedding.
func NewInMemoryVectorStore(embedder Embedder) *InMemoryVectorStore {
	return &InMemoryVectorStore{embedder: embedder}
}

// Add indexes documents, embedding any that lack an embedding.
func (s *InMemoryVectorStore) Add(ctx context.Context, documents []Document) error {
	for _, doc := range documents {
		embedding := doc.Embedding
		if len(embedding) == 0 {
			if s.embedder == nil {
				return fmt.Errorf("no embedder configured and document %s has no embedding", doc.ID)
			}
			var err error
			embedding, err = s.embedder.EmbedDocument(ctx, doc.Content)
			if err != nil {
				return fmt.Errorf("failed to embed document %s: %w", doc.ID, err)
			}
		}
		s.documents = append(s.documents, doc)
		s.embeddings = append(s.embeddings, embedding)
	}
	return nil
}

// Len returns the number of indexed documents.
func (s *InMemoryVectorStore) Len() int {
	return len(s.documents)
}

// Search returns the k documents most similar to the query embedding,
// ranked by cosine similarity descending.
func (s *InMemoryVectorStore) Search(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}
	if len(s.documents) == 0 {
		return nil, nil
	}

	results := make([]SearchResult, len(s.documents))
	for i, embedding := range s.embeddings {
		results[i] = SearchResult{
			Document: s.documents[i],
			Score:    cosineSimilarity(queryEmbedding, embedding),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
