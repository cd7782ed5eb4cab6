// Package rag holds the retrieval side of xagent: chunking fetched posts,
// embedding the chunks, and similarity search over a per-session in-memory
// vector index.
package rag

// Document is one indexed text chunk. Immutable once produced by the
// retriever; graders read it but never modify it.
type Document struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"-"`
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document Document
	Score    float64
}
