package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextShortInput(t *testing.T) {
	s := NewRecursiveCharacterTextSplitter()
	chunks := s.SplitText("a short tweet")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short tweet", chunks[0])
}

func TestSplitTextEmptyInput(t *testing.T) {
	s := NewRecursiveCharacterTextSplitter()
	assert.Empty(t, s.SplitText(""))
	assert.Empty(t, s.SplitText("   \n  "))
}

func TestSplitTextRespectsChunkSize(t *testing.T) {
	s := NewRecursiveCharacterTextSplitter(WithChunkSize(50), WithChunkOverlap(10))

	var b strings.Builder
	for i := 0; i < 30; i++ {
		b.WriteString("word word word\n")
	}

	chunks := s.SplitText(b.String())
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 50)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplitTextUnbreakableRun(t *testing.T) {
	s := NewRecursiveCharacterTextSplitter(WithChunkSize(20), WithChunkOverlap(5))
	chunks := s.SplitText(strings.Repeat("x", 100))
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 20)
	}
}

func TestSplitDocumentsMetadata(t *testing.T) {
	s := NewRecursiveCharacterTextSplitter(WithChunkSize(30), WithChunkOverlap(0))

	docs := []Document{
		{
			ID:       "100",
			Content:  "first paragraph here\n\nsecond paragraph here\n\nthird paragraph here",
			Metadata: map[string]any{"author": "Ada"},
		},
	}

	chunks := s.SplitDocuments(docs)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, "Ada", chunk.Metadata["author"])
		assert.Equal(t, i, chunk.Metadata["chunk_index"])
		assert.Equal(t, len(chunks), chunk.Metadata["chunk_total"])
		assert.Equal(t, "100", chunk.Metadata["parent_id"])
		assert.Contains(t, chunk.ID, "100_chunk_")
	}
}

func TestSplitDocumentsSkipsEmpty(t *testing.T) {
	s := NewRecursiveCharacterTextSplitter()
	chunks := s.SplitDocuments([]Document{{ID: "1", Content: "  "}})
	assert.Empty(t, chunks)
}
